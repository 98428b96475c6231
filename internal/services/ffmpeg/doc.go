// Package ffmpeg performs the audio work of the pipeline: cutting the voice
// reference clip from downloaded audio and joining synthesized MP3 chunks
// into the final audiobook, verified with ffprobe.
package ffmpeg
