package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"narrator/internal/config"
	"narrator/internal/deps"
	"narrator/internal/services/elevenlabs"
	"narrator/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeServiceError("LLM API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckElevenLabs verifies the ElevenLabs API key.
func CheckElevenLabs(ctx context.Context, cfg config.ElevenLabs) Result {
	const name = "ElevenLabs"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeServiceError("ElevenLabs API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDefaultVoice reports whether a fallback voice is configured. Without
// one a failed voice clone fails the job.
func CheckDefaultVoice(cfg config.Pipeline) Result {
	const name = "Default voice"
	if id := strings.TrimSpace(cfg.DefaultVoiceID); id != "" {
		return Result{Name: name, Passed: true, Detail: id}
	}
	return Result{
		Name:    name,
		Passed:  true,
		Warning: true,
		Detail:  "not set; jobs fail when voice cloning fails (set pipeline.default_voice_id or NARRATOR_DEFAULT_VOICE_ID)",
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out to.
// Both the daemon status endpoint and preflight use this.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return Toolchain(cfg).Check()
}

// Toolchain maps the media config onto the binaries to check.
func Toolchain(cfg *config.Config) deps.Toolchain {
	return deps.Toolchain{
		YtDlp:   cfg.Media.YtDlpBinary,
		FFmpeg:  cfg.Media.FFmpegBinary,
		FFprobe: cfg.Media.FFprobeBinary,
	}
}

// summarizeServiceError produces a human-readable summary for health check failures.
func summarizeServiceError(service string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", service)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", service)
	}
	return err.Error()
}
