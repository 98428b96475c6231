// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Args builds the ffprobe command line and Parse decodes its output, so
// callers keep control of how the process is run. Result helpers expose
// audio stream counts and container duration, size, and bitrate.
package ffprobe
