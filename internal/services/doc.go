// Package services defines shared utilities consumed by the pipeline
// orchestrator and the external integrations it drives.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so collaborator failures
//     can be classified (validation, download, external service, pipeline)
//     without losing their human-readable message.
//
// Subpackages hold the concrete collaborators: llm (translation), elevenlabs
// (voice cloning and speech synthesis), ytdlp (media source and subtitle
// transcription), and ffmpeg (voice samples and concatenation).
package services
