package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"narrator/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "narrator", "jobs")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.API.Bind != "127.0.0.1:8400" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.Pipeline.StreamIdleTimeoutSeconds != 300 {
		t.Fatalf("expected 300s idle timeout, got %d", cfg.Pipeline.StreamIdleTimeoutSeconds)
	}
	if cfg.Pipeline.SynthesisChunkChars != 4500 {
		t.Fatalf("unexpected synthesis chunk size %d", cfg.Pipeline.SynthesisChunkChars)
	}
	if cfg.ElevenLabs.ModelID != "eleven_multilingual_v2" {
		t.Fatalf("unexpected model id %q", cfg.ElevenLabs.ModelID)
	}
	if cfg.StreamIdleTimeout().Seconds() != 300 {
		t.Fatalf("unexpected idle timeout duration %s", cfg.StreamIdleTimeout())
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "narrator.toml")

	custom := config.Default()
	custom.Paths.WorkDir = filepath.Join(dir, "work")
	custom.Pipeline.DemoMaxSeconds = 90
	custom.Pipeline.DefaultVoiceID = "voice-default"
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %s, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(dir, "work") {
		t.Fatalf("unexpected work dir %q", cfg.Paths.WorkDir)
	}
	if cfg.Pipeline.DemoMaxSeconds != 90 {
		t.Fatalf("unexpected demo cap %d", cfg.Pipeline.DemoMaxSeconds)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("ELEVENLABS_API_KEY", "")
	os.Unsetenv("ELEVENLABS_API_KEY")
	t.Chdir(t.TempDir())

	path := filepath.Join(dir, "narrator.toml")
	if err := os.WriteFile(path, []byte("[api]\nbind = \"127.0.0.1:9000\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ELEVENLABS_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ELEVENLABS_API_KEY") })

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ElevenLabs.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.API.Bind != "127.0.0.1:9000" {
		t.Fatalf("unexpected bind %q", cfg.API.Bind)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative demo cap", func(c *config.Config) { c.Pipeline.DemoMaxSeconds = -1 }, "demo_max_seconds"},
		{"zero idle timeout", func(c *config.Config) { c.Pipeline.StreamIdleTimeoutSeconds = 0 }, "stream_idle_timeout_seconds"},
		{"zero attempts", func(c *config.Config) { c.Pipeline.SynthesisMaxAttempts = 0 }, "synthesis_max_attempts"},
		{"short above medium", func(c *config.Config) { c.Tiers.ShortFraction = 0.8 }, "short_fraction"},
		{"negative rate", func(c *config.Config) { c.Costs.TTSPerMinute = -0.1 }, "tts_per_minute"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad amqp url", func(c *config.Config) { c.Notifications.AMQPURL = "http://broker" }, "amqp_url"},
		{"relative llm url", func(c *config.Config) { c.LLM.BaseURL = "/v1/chat" }, "llm.base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}
