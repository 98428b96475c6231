// Package workflow turns a submitted job into a finished audiobook.
//
// The Manager runs one goroutine per job through the ordered stages in the
// jobs stage table: download, transcribe, extract a voice sample, clone the
// voice, translate, synthesize, and concatenate. Every stage reports its
// start and end through the job store, and the chunked stages report
// per-chunk sub-progress so observers see smooth movement.
//
// Each stage carries a failure policy. Transcription and voice cloning
// degrade (a fallback transcript or the configured default voice) and the
// run continues; every other stage aborts the run and records the error
// verbatim on the job. A cloned voice is always released exactly once after
// the run finishes, whatever the outcome.
//
// Collaborators are consumed through the small interfaces in
// collaborators.go so tests can substitute fakes for yt-dlp, ffmpeg, the
// translation model and the speech provider.
package workflow
