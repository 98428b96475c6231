// Package api defines the job-facing facade and the wire-format types shared
// by the HTTP server and the CLI client. It translates internal job records
// and workflow summaries into transport-friendly DTOs so consumers never
// couple to internal types.
//
// # Key Types
//
// JobService: submitJob/getJob/streamJob/fetchArtifact plus source analysis
// and language listing. Input validation happens here, before any job is
// created or collaborator is called.
//
// JobResponse / ProgressEvent: the job snapshot and the per-event progress
// payload carried by SSE frames.
//
// DaemonStatus: aggregated runtime information including active runs and
// dependency availability.
//
// Client: HTTP client used by the CLI, including an SSE reader for progress
// streams.
//
// # Design Notes
//
// DTOs use snake_case JSON tags. Status values are the lowercase job status
// strings. The error field is null until a job fails. Timestamps use RFC3339
// with milliseconds.
package api
