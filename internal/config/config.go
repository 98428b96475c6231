package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// API contains HTTP listener configuration.
type API struct {
	Bind string `toml:"bind"`
}

// Pipeline contains orchestrator tuning knobs.
type Pipeline struct {
	DefaultVoiceID           string `toml:"default_voice_id"`
	DemoMaxSeconds           int    `toml:"demo_max_seconds"`
	FallbackTranscript       string `toml:"fallback_transcript"`
	VoiceSampleSeconds       int    `toml:"voice_sample_seconds"`
	StreamIdleTimeoutSeconds int    `toml:"stream_idle_timeout_seconds"`
	TranslationChunkChars    int    `toml:"translation_chunk_chars"`
	TranslationContextChars  int    `toml:"translation_context_chars"`
	SynthesisChunkChars      int    `toml:"synthesis_chunk_chars"`
	SynthesisMaxAttempts     int    `toml:"synthesis_max_attempts"`
	SynthesisRetryBaseMillis int    `toml:"synthesis_retry_base_ms"`
	SynthesisPriorRequests   int    `toml:"synthesis_prior_requests"`
}

// Tiers contains the fraction of the source processed by the capped tiers.
type Tiers struct {
	ShortFraction  float64 `toml:"short_fraction"`
	MediumFraction float64 `toml:"medium_fraction"`
}

// Costs contains per-minute provider rates used for quotes.
type Costs struct {
	TranscriptionPerMinute float64 `toml:"transcription_per_minute"`
	TranslationPerMinute   float64 `toml:"translation_per_minute"`
	TTSPerMinute           float64 `toml:"tts_per_minute"`
	PlatformMargin         float64 `toml:"platform_margin"`
}

// ElevenLabs contains voice cloning and text-to-speech settings.
type ElevenLabs struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	ModelID         string  `toml:"model_id"`
	OutputFormat    string  `toml:"output_format"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// LLM contains translation model connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxTokens      int    `toml:"max_tokens"`
}

// Media contains external binary settings for download and audio work.
type Media struct {
	YtDlpBinary        string   `toml:"ytdlp_binary"`
	FFmpegBinary       string   `toml:"ffmpeg_binary"`
	FFprobeBinary      string   `toml:"ffprobe_binary"`
	SubtitleLanguages  []string `toml:"subtitle_languages"`
	CookiesFromBrowser string   `toml:"cookies_from_browser"`
}

// Notifications contains ntfy and AMQP notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	AMQPURL        string `toml:"amqp_url"`
	AMQPExchange   string `toml:"amqp_exchange"`
	AMQPRoutingKey string `toml:"amqp_routing_key"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for narrator.
//
// Configuration sections by subsystem:
//   - Paths: job work directories, logs, and caches
//   - API: HTTP listener address
//   - Pipeline: orchestrator fallbacks, chunk budgets, retry policy
//   - Tiers/Costs: duration caps and quote rates
//   - ElevenLabs: voice cloning and speech synthesis
//   - LLM: translation model
//   - Media: yt-dlp and ffmpeg binaries
//   - Notifications: ntfy and AMQP publishers
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Tiers         Tiers         `toml:"tiers"`
	Costs         Costs         `toml:"costs"`
	ElevenLabs    ElevenLabs    `toml:"elevenlabs"`
	LLM           LLM           `toml:"llm"`
	Media         Media         `toml:"media"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the config file or in the
// working directory is loaded first so credentials can live outside the TOML file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env"), ".env"); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv applies the first readable candidates without overriding variables
// already present in the process environment.
func loadDotEnv(candidates ...string) error {
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load env file %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("narrator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TranscriptCachePath returns the SQLite database used for cached transcripts.
func (c *Config) TranscriptCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "transcripts.db")
}

// LockPath returns the single-instance lock file used by the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "narrator.lock")
}

// LogFilePath returns the daemon's log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "narrator.log")
}

// StreamIdleTimeout bounds how long a progress stream may stay silent.
func (c *Config) StreamIdleTimeout() time.Duration {
	return time.Duration(c.Pipeline.StreamIdleTimeoutSeconds) * time.Second
}

// SynthesisRetryBase is the first backoff delay for a failed synthesis chunk.
func (c *Config) SynthesisRetryBase() time.Duration {
	return time.Duration(c.Pipeline.SynthesisRetryBaseMillis) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
