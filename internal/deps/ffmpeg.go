package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobePath returns the ffprobe binary to use alongside ffmpeg.
//
// An explicitly configured ffprobe that resolves on PATH wins. Otherwise an
// ffprobe sitting next to the resolved ffmpeg binary is preferred so static
// builds installed outside PATH stay paired, falling back to the configured
// name unchanged.
func ResolveFFprobePath(ffmpegBinary, ffprobeBinary string) string {
	probe := strings.TrimSpace(ffprobeBinary)
	if probe == "" {
		probe = "ffprobe"
	}
	if probe != "ffprobe" {
		return probe
	}
	if _, err := exec.LookPath(probe); err == nil {
		return probe
	}
	ffmpeg := strings.TrimSpace(ffmpegBinary)
	if ffmpeg == "" {
		return probe
	}
	resolved, err := exec.LookPath(ffmpeg)
	if err != nil {
		return probe
	}
	candidate := siblingBinary(resolved, "ffprobe")
	if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
		return candidate
	}
	return probe
}

func siblingBinary(path, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(path), name)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
