// Package main hosts the narrator CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon (`narrator serve`) and
// translates terminal invocations into HTTP calls against it: job
// submission, progress watching over SSE, artifact download, source quotes
// and daemon status. Offline commands cover cost estimates, configuration
// scaffolding, the transcript cache, the daemon log and notification tests.
//
// Keep this package lean: add new functionality in the internal packages
// first, then surface it through dedicated commands or flags here.
package main
