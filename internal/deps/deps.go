package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Toolchain names the external binaries the pipeline shells out to.
type Toolchain struct {
	YtDlp   string
	FFmpeg  string
	FFprobe string
}

// Requirement is one binary the daemon expects to find.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement resolved. Path is the absolute
// location when it did.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements lists the toolchain binaries. ffprobe is optional and
// resolved next to ffmpeg when not configured explicitly.
func (t Toolchain) Requirements() []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     strings.TrimSpace(t.YtDlp),
			Description: "Required for metadata, audio download, and subtitles",
		},
		{
			Name:        "FFmpeg",
			Command:     strings.TrimSpace(t.FFmpeg),
			Description: "Required for voice samples and audiobook assembly",
		},
		{
			Name:        "FFprobe",
			Command:     ResolveFFprobePath(t.FFmpeg, t.FFprobe),
			Description: "Verifies the finished audiobook",
			Optional:    true,
		},
	}
}

// Check resolves every toolchain binary.
func (t Toolchain) Check() []Status {
	return CheckBinaries(t.Requirements())
}

// CheckBinaries looks up each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch path, err := exec.LookPath(status.Command); {
		case status.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		default:
			status.Available = true
			status.Path = path
		}
		results = append(results, status)
	}
	return results
}
