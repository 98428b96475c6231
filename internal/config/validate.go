package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are not required
// here so offline commands keep working; the daemon reports missing keys
// through its preflight checks.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateTiers(); err != nil {
		return err
	}
	if err := c.validateCosts(); err != nil {
		return err
	}
	if err := c.validateElevenLabs(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	p := c.Pipeline
	if p.DemoMaxSeconds < 0 {
		return errors.New("pipeline.demo_max_seconds must be >= 0")
	}
	if p.VoiceSampleSeconds <= 0 {
		return errors.New("pipeline.voice_sample_seconds must be positive")
	}
	if p.StreamIdleTimeoutSeconds <= 0 {
		return errors.New("pipeline.stream_idle_timeout_seconds must be positive")
	}
	if p.TranslationChunkChars <= 0 {
		return errors.New("pipeline.translation_chunk_chars must be positive")
	}
	if p.TranslationContextChars < 0 {
		return errors.New("pipeline.translation_context_chars must be >= 0")
	}
	if p.SynthesisChunkChars <= 0 {
		return errors.New("pipeline.synthesis_chunk_chars must be positive")
	}
	if p.SynthesisMaxAttempts <= 0 {
		return errors.New("pipeline.synthesis_max_attempts must be positive")
	}
	if p.SynthesisRetryBaseMillis < 0 {
		return errors.New("pipeline.synthesis_retry_base_ms must be >= 0")
	}
	if p.SynthesisPriorRequests < 0 {
		return errors.New("pipeline.synthesis_prior_requests must be >= 0")
	}
	return nil
}

func (c *Config) validateTiers() error {
	if c.Tiers.ShortFraction <= 0 || c.Tiers.ShortFraction > 1 {
		return errors.New("tiers.short_fraction must be in (0, 1]")
	}
	if c.Tiers.MediumFraction <= 0 || c.Tiers.MediumFraction > 1 {
		return errors.New("tiers.medium_fraction must be in (0, 1]")
	}
	if c.Tiers.ShortFraction > c.Tiers.MediumFraction {
		return errors.New("tiers.short_fraction must not exceed tiers.medium_fraction")
	}
	return nil
}

func (c *Config) validateCosts() error {
	rates := map[string]float64{
		"costs.transcription_per_minute": c.Costs.TranscriptionPerMinute,
		"costs.translation_per_minute":   c.Costs.TranslationPerMinute,
		"costs.tts_per_minute":           c.Costs.TTSPerMinute,
		"costs.platform_margin":          c.Costs.PlatformMargin,
	}
	for key, value := range rates {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}

func (c *Config) validateElevenLabs() error {
	if err := validateURL("elevenlabs.base_url", c.ElevenLabs.BaseURL); err != nil {
		return err
	}
	if c.ElevenLabs.Stability < 0 || c.ElevenLabs.Stability > 1 {
		return errors.New("elevenlabs.stability must be between 0 and 1")
	}
	if c.ElevenLabs.SimilarityBoost < 0 || c.ElevenLabs.SimilarityBoost > 1 {
		return errors.New("elevenlabs.similarity_boost must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLLM() error {
	return validateURL("llm.base_url", c.LLM.BaseURL)
}

func (c *Config) validateNotifications() error {
	if c.Notifications.AMQPURL != "" {
		parsed, err := url.Parse(c.Notifications.AMQPURL)
		if err != nil || (parsed.Scheme != "amqp" && parsed.Scheme != "amqps") {
			return errors.New("notifications.amqp_url must be an amqp:// or amqps:// URL")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(key, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", key)
	}
	return nil
}
