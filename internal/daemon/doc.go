// Package daemon coordinates the long-running narrator process.
//
// It wires configuration, the job store, the workflow manager and the HTTP
// API into a single lifecycle with flock-based locking to prevent multiple
// instances. The HTTP surface is a chi router serving job submission, job
// snapshots, SSE progress streams, artifact download, source analysis and
// daemon status.
//
// Keep orchestration logic here: pipeline steps live in workflow and the
// service packages while the daemon focuses on startup, shutdown and the
// transport layer.
package daemon
