// Package ytdlp wraps the yt-dlp binary for source metadata, audio download,
// and subtitle-based transcription.
//
// Transcription downloads manual and automatic VTT subtitles in the
// configured languages and flattens them to plain text with ParseVTT. HTTP 429
// responses from the source are retried with a linear backoff. Every
// invocation goes through a command runner so tests can substitute canned
// output.
package ytdlp
