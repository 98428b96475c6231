package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"narrator/internal/media/ffprobe"
	"narrator/internal/services"
)

const (
	// DefaultFFmpegBinary is the ffmpeg executable looked up on PATH.
	DefaultFFmpegBinary = "ffmpeg"
	// DefaultFFprobeBinary is the ffprobe executable looked up on PATH.
	DefaultFFprobeBinary = "ffprobe"
	// SampleFileName is the voice reference clip written by Extract.
	SampleFileName = "voice_sample.wav"

	defaultSampleSeconds = 45
	concatListName       = "concat.txt"
	outputBitrate        = "192k"
)

// Config describes the ffmpeg invocation.
type Config struct {
	FFmpegBinary  string
	FFprobeBinary string
	SampleSeconds int
}

// Service implements sample extraction and chunk concatenation.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = DefaultFFmpegBinary
	}
	if strings.TrimSpace(cfg.FFprobeBinary) == "" {
		cfg.FFprobeBinary = DefaultFFprobeBinary
	}
	if cfg.SampleSeconds <= 0 {
		cfg.SampleSeconds = defaultSampleSeconds
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// Binaries reports the configured executables.
func (s *Service) Binaries() (ffmpegBinary, ffprobeBinary string) {
	return s.cfg.FFmpegBinary, s.cfg.FFprobeBinary
}

// Extract writes the first SampleSeconds of audioPath to destDir as a WAV
// clip. Shorter sources yield the whole source.
func (s *Service) Extract(ctx context.Context, audioPath, destDir string) (string, error) {
	dest := filepath.Join(destDir, SampleFileName)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", audioPath,
		"-t", strconv.Itoa(s.cfg.SampleSeconds),
		"-vn",
		"-c:a", "pcm_s16le",
		dest,
	}
	if _, err := s.run(ctx, s.cfg.FFmpegBinary, args...); err != nil {
		return "", services.Wrap(services.ErrPipeline, "extracting_voice", "extract sample", "Voice sample extraction failed", err)
	}
	if _, err := os.Stat(dest); err != nil {
		return "", services.Wrap(services.ErrPipeline, "extracting_voice", "extract sample", "sample missing after ffmpeg", err)
	}
	return dest, nil
}

// Concat joins chunkPaths, in order, into a single MP3 at outputPath and
// verifies the result carries playable audio.
func (s *Service) Concat(ctx context.Context, chunkPaths []string, outputPath string) error {
	if len(chunkPaths) == 0 {
		return services.Wrap(services.ErrPipeline, "concatenating", "concat audio", "no audio chunks to concatenate", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return services.Wrap(services.ErrPipeline, "concatenating", "concat audio", "ensure output dir", err)
	}
	listPath := filepath.Join(filepath.Dir(outputPath), concatListName)
	if err := writeConcatList(listPath, chunkPaths); err != nil {
		return services.Wrap(services.ErrPipeline, "concatenating", "concat audio", "write concat list", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", outputBitrate,
		outputPath,
	}
	if _, err := s.run(ctx, s.cfg.FFmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrPipeline, "concatenating", "concat audio", "Audio concatenation failed", err)
	}
	if _, err := s.Probe(ctx, outputPath); err != nil {
		return services.Wrap(services.ErrPipeline, "concatenating", "verify audiobook", "output failed verification", err)
	}
	return nil
}

// Probe inspects path and confirms it holds an audio stream with a positive
// duration.
func (s *Service) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	output, err := s.run(ctx, s.cfg.FFprobeBinary, ffprobe.Args(path)...)
	if err != nil {
		return ffprobe.Result{}, err
	}
	result, err := ffprobe.Parse(output)
	if err != nil {
		return ffprobe.Result{}, err
	}
	if result.AudioStreamCount() == 0 {
		return result, fmt.Errorf("%s: no audio stream", filepath.Base(path))
	}
	if duration := result.DurationSeconds(); math.IsNaN(duration) || duration <= 0 {
		return result, fmt.Errorf("%s: invalid duration %q", filepath.Base(path), result.Format.Duration)
	}
	return result, nil
}

// writeConcatList renders the concat demuxer input, quoting paths per its
// escaping rules.
func writeConcatList(path string, chunkPaths []string) error {
	var b strings.Builder
	for _, chunk := range chunkPaths {
		abs, err := filepath.Abs(chunk)
		if err != nil {
			return err
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// run executes a command, using the custom runner if set. Only stdout is
// returned so ffprobe JSON stays parseable.
func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
