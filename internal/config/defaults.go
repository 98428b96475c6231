package config

const (
	defaultConfigPath               = "~/.config/narrator/config.toml"
	defaultWorkDir                  = "~/.local/share/narrator/jobs"
	defaultLogDir                   = "~/.local/share/narrator/logs"
	defaultCacheDir                 = "~/.cache/narrator"
	defaultAPIBind                  = "127.0.0.1:8400"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultFallbackTranscript       = "This is a demo audiobook. The original transcript could not be fetched due to rate limiting. Please try again in a few minutes."
	defaultVoiceSampleSeconds       = 45
	defaultStreamIdleTimeoutSeconds = 300
	defaultTranslationChunkChars    = 12000
	defaultTranslationContextChars  = 500
	defaultSynthesisChunkChars      = 4500
	defaultSynthesisMaxAttempts     = 3
	defaultSynthesisRetryBaseMillis = 1000
	defaultSynthesisPriorRequests   = 3
	defaultShortFraction            = 0.1
	defaultMediumFraction           = 0.5
	defaultElevenLabsBaseURL        = "https://api.elevenlabs.io/v1"
	defaultElevenLabsModelID        = "eleven_multilingual_v2"
	defaultElevenLabsOutputFormat   = "mp3_44100_128"
	defaultElevenLabsTimeoutSeconds = 120
	defaultLLMBaseURL               = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                 = "anthropic/claude-sonnet-4"
	defaultLLMReferer               = "https://github.com/narrator-audio/narrator"
	defaultLLMTitle                 = "Narrator Translator"
	defaultLLMTimeoutSeconds        = 180
	defaultLLMMaxTokens             = 16000
	defaultYtDlpBinary              = "yt-dlp"
	defaultFFmpegBinary             = "ffmpeg"
	defaultFFprobeBinary            = "ffprobe"
	defaultNotifyRequestTimeout     = 10
	defaultAMQPExchange             = "narrator.jobs"
)

var defaultSubtitleLanguages = []string{"en", "en-orig", "en-US"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Pipeline: Pipeline{
			FallbackTranscript:       defaultFallbackTranscript,
			VoiceSampleSeconds:       defaultVoiceSampleSeconds,
			StreamIdleTimeoutSeconds: defaultStreamIdleTimeoutSeconds,
			TranslationChunkChars:    defaultTranslationChunkChars,
			TranslationContextChars:  defaultTranslationContextChars,
			SynthesisChunkChars:      defaultSynthesisChunkChars,
			SynthesisMaxAttempts:     defaultSynthesisMaxAttempts,
			SynthesisRetryBaseMillis: defaultSynthesisRetryBaseMillis,
			SynthesisPriorRequests:   defaultSynthesisPriorRequests,
		},
		Tiers: Tiers{
			ShortFraction:  defaultShortFraction,
			MediumFraction: defaultMediumFraction,
		},
		Costs: Costs{
			TranscriptionPerMinute: 0.006,
			TranslationPerMinute:   0.01,
			TTSPerMinute:           0.30,
			PlatformMargin:         0.30,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:         defaultElevenLabsBaseURL,
			ModelID:         defaultElevenLabsModelID,
			OutputFormat:    defaultElevenLabsOutputFormat,
			Stability:       0.5,
			SimilarityBoost: 0.75,
			TimeoutSeconds:  defaultElevenLabsTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxTokens:      defaultLLMMaxTokens,
		},
		Media: Media{
			YtDlpBinary:       defaultYtDlpBinary,
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			SubtitleLanguages: append([]string(nil), defaultSubtitleLanguages...),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			AMQPExchange:   defaultAMQPExchange,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
