package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"narrator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "jobs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.ElevenLabs.APIKey = "test-elevenlabs"
	cfgVal.LLM.APIKey = "test-llm"
	cfgVal.Pipeline.SynthesisRetryBaseMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDefaultVoice sets the fallback voice used when cloning fails.
func WithDefaultVoice(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.DefaultVoiceID = id
	}
}

// WithDemoCap caps every download to the given number of seconds.
func WithDemoCap(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.DemoMaxSeconds = seconds
	}
}

// WithChunkBudgets overrides the translation and synthesis chunk sizes.
func WithChunkBudgets(translation, synthesis int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.TranslationChunkChars = translation
		b.cfg.Pipeline.SynthesisChunkChars = synthesis
	}
}

// WithSynthesisAttempts overrides the per-chunk synthesis attempt budget.
func WithSynthesisAttempts(attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.SynthesisMaxAttempts = attempts
	}
}

// BaseDir returns the temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WithStubbedBinaries writes no-op executables for the provided names into a
// temp bin directory and prepends it to PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
