package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeElevenLabs()
	c.normalizeLLM()
	c.normalizeMedia()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.DefaultVoiceID = strings.TrimSpace(c.Pipeline.DefaultVoiceID)
	if c.Pipeline.DefaultVoiceID == "" {
		if value, ok := os.LookupEnv("NARRATOR_DEFAULT_VOICE_ID"); ok {
			c.Pipeline.DefaultVoiceID = strings.TrimSpace(value)
		}
	}
	c.Pipeline.FallbackTranscript = strings.TrimSpace(c.Pipeline.FallbackTranscript)
	if c.Pipeline.FallbackTranscript == "" {
		c.Pipeline.FallbackTranscript = defaultFallbackTranscript
	}
}

func (c *Config) normalizeElevenLabs() {
	c.ElevenLabs.APIKey = strings.TrimSpace(c.ElevenLabs.APIKey)
	if c.ElevenLabs.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.ElevenLabs.APIKey = strings.TrimSpace(value)
		}
	}
	c.ElevenLabs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ElevenLabs.BaseURL), "/")
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = defaultElevenLabsBaseURL
	}
	c.ElevenLabs.ModelID = strings.TrimSpace(c.ElevenLabs.ModelID)
	if c.ElevenLabs.ModelID == "" {
		c.ElevenLabs.ModelID = defaultElevenLabsModelID
	}
	c.ElevenLabs.OutputFormat = strings.TrimSpace(c.ElevenLabs.OutputFormat)
	if c.ElevenLabs.OutputFormat == "" {
		c.ElevenLabs.OutputFormat = defaultElevenLabsOutputFormat
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		c.ElevenLabs.TimeoutSeconds = defaultElevenLabsTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, key := range []string{"NARRATOR_LLM_API_KEY", "OPENROUTER_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
}

func (c *Config) normalizeMedia() {
	c.Media.YtDlpBinary = strings.TrimSpace(c.Media.YtDlpBinary)
	if c.Media.YtDlpBinary == "" {
		c.Media.YtDlpBinary = defaultYtDlpBinary
	}
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	langs := c.Media.SubtitleLanguages[:0]
	for _, lang := range c.Media.SubtitleLanguages {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		langs = append(langs, defaultSubtitleLanguages...)
	}
	c.Media.SubtitleLanguages = langs
	c.Media.CookiesFromBrowser = strings.TrimSpace(c.Media.CookiesFromBrowser)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	c.Notifications.AMQPURL = strings.TrimSpace(c.Notifications.AMQPURL)
	if c.Notifications.AMQPURL == "" {
		if value, ok := os.LookupEnv("NARRATOR_AMQP_URL"); ok {
			c.Notifications.AMQPURL = strings.TrimSpace(value)
		}
	}
	c.Notifications.AMQPExchange = strings.TrimSpace(c.Notifications.AMQPExchange)
	if c.Notifications.AMQPExchange == "" {
		c.Notifications.AMQPExchange = defaultAMQPExchange
	}
	c.Notifications.AMQPRoutingKey = strings.TrimSpace(c.Notifications.AMQPRoutingKey)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
