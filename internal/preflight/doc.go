// Package preflight provides readiness checks for external services,
// binaries, and filesystem paths that narrator depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs any failures; jobs still
//     run so collaborators can surface precise errors per job.
//   - The CLI "narrator config validate --check-services" command and the
//     daemon status endpoint report individual results.
package preflight
