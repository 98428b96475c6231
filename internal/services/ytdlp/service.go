package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"narrator/internal/media"
	"narrator/internal/services"
)

const (
	// DefaultBinary is the yt-dlp executable looked up on PATH.
	DefaultBinary = "yt-dlp"

	sourceAudioName      = "source"
	subtitleTemplateName = "subs"
	rateLimitAttempts    = 3
	rateLimitBaseWait    = 5 * time.Second
)

var defaultSubtitleLanguages = []string{"en", "en-orig", "en-US"}

// Config describes the yt-dlp invocation.
type Config struct {
	Binary             string
	SubtitleLanguages  []string
	CookiesFromBrowser string
}

// Service implements metadata, download, and transcription on top of yt-dlp.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
	sleeper       func(context.Context, time.Duration) error
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	cfg.Binary = strings.TrimSpace(cfg.Binary)
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if len(cfg.SubtitleLanguages) == 0 {
		cfg.SubtitleLanguages = append([]string(nil), defaultSubtitleLanguages...)
	}
	cfg.CookiesFromBrowser = strings.TrimSpace(cfg.CookiesFromBrowser)
	return &Service{cfg: cfg, sleeper: sleepContext}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// WithSleeper overrides how rate-limit waits are performed (for testing).
func (s *Service) WithSleeper(sleeper func(context.Context, time.Duration) error) {
	if sleeper != nil {
		s.sleeper = sleeper
	}
}

// Binary reports the configured executable.
func (s *Service) Binary() string {
	return s.cfg.Binary
}

type videoInfo struct {
	Title     string  `json:"title"`
	Channel   string  `json:"channel"`
	Uploader  string  `json:"uploader"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// Metadata fetches source details without downloading media.
func (s *Service) Metadata(ctx context.Context, sourceRef string) (media.Info, error) {
	args := s.baseArgs("--dump-json", "--skip-download", "--no-playlist")
	args = append(args, "--", sourceRef)
	output, err := s.run(ctx, args...)
	if err != nil {
		return media.Info{}, services.Wrap(services.ErrDownload, "downloading", "video info", "Failed to fetch video info", err)
	}
	var info videoInfo
	if err := json.Unmarshal(lastJSONLine(output), &info); err != nil {
		return media.Info{}, services.Wrap(services.ErrDownload, "downloading", "video info", "decode yt-dlp json", err)
	}
	return media.Info{
		Title:           firstNonEmpty(info.Title, "Unknown"),
		Channel:         firstNonEmpty(info.Channel, info.Uploader, "Unknown"),
		DurationSeconds: int(math.Round(info.Duration)),
		ThumbnailURL:    strings.TrimSpace(info.Thumbnail),
	}, nil
}

// DownloadAudio extracts the best audio stream to <destDir>/source.wav. A
// positive maxSeconds downloads only the leading section.
func (s *Service) DownloadAudio(ctx context.Context, sourceRef, destDir string, maxSeconds int) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDownload, "downloading", "download audio", "ensure job dir", err)
	}
	template := filepath.Join(destDir, sourceAudioName+".%(ext)s")
	args := s.baseArgs(
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "wav",
		"--audio-quality", "0",
		"--no-playlist",
		"--output", template,
	)
	if maxSeconds > 0 {
		args = append(args, "--download-sections", "*0-"+strconv.Itoa(maxSeconds))
	}
	args = append(args, "--", sourceRef)
	if _, err := s.run(ctx, args...); err != nil {
		return "", services.Wrap(services.ErrDownload, "downloading", "download audio", "Failed to download audio", err)
	}
	target := filepath.Join(destDir, sourceAudioName+".wav")
	if _, err := os.Stat(target); err != nil {
		return "", services.Wrap(services.ErrDownload, "downloading", "download audio", "audio file missing after download", err)
	}
	return target, nil
}

// Transcribe returns the subtitle text for sourceRef, truncated at the first
// cue starting after maxSeconds when maxSeconds is positive.
func (s *Service) Transcribe(ctx context.Context, sourceRef string, maxSeconds int) (string, error) {
	var lastErr error
	for attempt := range rateLimitAttempts {
		raw, err := s.downloadSubtitles(ctx, sourceRef)
		if err == nil {
			if raw == "" {
				return "", services.Wrap(services.ErrPipeline, "transcribing", "transcribe", "No subtitles available for this video", nil)
			}
			return ParseVTT(raw, maxSeconds), nil
		}
		lastErr = err
		if !isRateLimited(err) || attempt == rateLimitAttempts-1 {
			break
		}
		if err := s.sleeper(ctx, rateLimitBaseWait*time.Duration(attempt+1)); err != nil {
			return "", err
		}
	}
	return "", services.Wrap(services.ErrPipeline, "transcribing", "transcribe", "Subtitle extraction failed", lastErr)
}

func (s *Service) downloadSubtitles(ctx context.Context, sourceRef string) (string, error) {
	dir, err := os.MkdirTemp("", "narrator-subs-")
	if err != nil {
		return "", fmt.Errorf("create subtitle dir: %w", err)
	}
	defer os.RemoveAll(dir)

	args := s.baseArgs(
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(s.cfg.SubtitleLanguages, ","),
		"--sub-format", "vtt",
		"--retries", "3",
		"--extractor-retries", "3",
		"--sleep-subtitles", "2",
		"--ignore-errors",
		"--no-playlist",
		"--output", filepath.Join(dir, subtitleTemplateName),
		"--", sourceRef,
	)
	output, err := s.run(ctx, args...)
	if err != nil {
		return "", err
	}
	// --ignore-errors keeps the exit status clean on subtitle failures, so
	// rate limiting is only visible in the output.
	matches, _ := filepath.Glob(filepath.Join(dir, "*.vtt"))
	if len(matches) == 0 {
		matches, _ = filepath.Glob(filepath.Join(dir, subtitleTemplateName+"*"))
	}
	if len(matches) == 0 {
		if strings.Contains(string(output), "429") {
			return "", fmt.Errorf("yt-dlp subtitles: %s", strings.TrimSpace(string(output)))
		}
		return "", nil
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return "", fmt.Errorf("read subtitles: %w", err)
	}
	return string(data), nil
}

func (s *Service) baseArgs(args ...string) []string {
	out := []string{"--quiet", "--no-warnings"}
	if s.cfg.CookiesFromBrowser != "" {
		out = append(out, "--cookies-from-browser", s.cfg.CookiesFromBrowser)
	}
	return append(out, args...)
}

// run executes yt-dlp, using the custom runner if set.
func (s *Service) run(ctx context.Context, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.cfg.Binary, args...)
	}
	cmd := exec.CommandContext(ctx, s.cfg.Binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", s.cfg.Binary, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func isRateLimited(err error) bool {
	return err != nil && strings.Contains(err.Error(), "429")
}

// lastJSONLine skips any non-JSON preamble yt-dlp prints before the payload.
func lastJSONLine(output []byte) []byte {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "{") {
			return []byte(line)
		}
	}
	return output
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
