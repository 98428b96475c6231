package workflow

import (
	"context"

	"narrator/internal/media"
)

// MediaSource resolves and downloads remote sources.
type MediaSource interface {
	Metadata(ctx context.Context, sourceRef string) (media.Info, error)
	// DownloadAudio stores the source audio under destDir. maxSeconds caps
	// the download; 0 means the whole source.
	DownloadAudio(ctx context.Context, sourceRef, destDir string, maxSeconds int) (string, error)
}

// Transcriber produces source-language text for a source.
type Transcriber interface {
	Transcribe(ctx context.Context, sourceRef string, maxSeconds int) (string, error)
}

// TranscriptCache stores transcripts keyed by source and duration cap.
type TranscriptCache interface {
	Lookup(ctx context.Context, sourceRef string, maxSeconds int) (string, bool, error)
	Store(ctx context.Context, sourceRef string, maxSeconds int, transcript string) error
}

// SampleExtractor cuts a short reference clip for voice cloning.
type SampleExtractor interface {
	Extract(ctx context.Context, audioPath, destDir string) (string, error)
}

// Translator translates one chunk. contextHint carries the tail of the
// previous translated chunk and may be empty.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage, contextHint string) (string, error)
}

// Synthesizer renders speech for one chunk. previousRequestIDs lists the
// most recent successful request ids, oldest first.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string, previousRequestIDs []string) (audio []byte, requestID string, err error)
}

// Concatenator joins ordered audio chunks into outputPath.
type Concatenator interface {
	Concat(ctx context.Context, chunkPaths []string, outputPath string) error
}
