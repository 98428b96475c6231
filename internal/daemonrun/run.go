package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"narrator/internal/api"
	"narrator/internal/config"
	"narrator/internal/daemon"
	"narrator/internal/deps"
	"narrator/internal/jobs"
	"narrator/internal/logging"
	"narrator/internal/notifications"
	"narrator/internal/preflight"
	"narrator/internal/pricing"
	"narrator/internal/services/elevenlabs"
	"narrator/internal/services/ffmpeg"
	"narrator/internal/services/llm"
	"narrator/internal/services/ytdlp"
	"narrator/internal/transcriptcache"
	"narrator/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the narrator daemon and blocks until SIGINT/SIGTERM or cmdCtx
// cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogFilePath()},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "narrator.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	notifier := notifications.NewService(cfg)
	defer func() {
		if err := notifications.Close(notifier); err != nil {
			logger.Warn("notifier close failed", logging.Error(err))
		}
	}()

	media := ytdlp.NewService(ytdlp.Config{
		Binary:             cfg.Media.YtDlpBinary,
		SubtitleLanguages:  cfg.Media.SubtitleLanguages,
		CookiesFromBrowser: cfg.Media.CookiesFromBrowser,
	})
	audio := ffmpeg.NewService(ffmpeg.Config{
		FFmpegBinary:  cfg.Media.FFmpegBinary,
		FFprobeBinary: deps.ResolveFFprobePath(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary),
		SampleSeconds: cfg.Pipeline.VoiceSampleSeconds,
	})
	voices := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:          cfg.ElevenLabs.APIKey,
		BaseURL:         cfg.ElevenLabs.BaseURL,
		ModelID:         cfg.ElevenLabs.ModelID,
		OutputFormat:    cfg.ElevenLabs.OutputFormat,
		Stability:       cfg.ElevenLabs.Stability,
		SimilarityBoost: cfg.ElevenLabs.SimilarityBoost,
		TimeoutSeconds:  cfg.ElevenLabs.TimeoutSeconds,
	})
	// Chunk translation failures abort the job, so the client makes one attempt.
	translator := llm.NewTranslator(llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		MaxTokens:      cfg.LLM.MaxTokens,
	}, llm.WithRetryMaxAttempts(1)))

	collaborators := workflow.Dependencies{
		Media:        media,
		Transcriber:  media,
		Sampler:      audio,
		Cloner:       voices,
		Translator:   translator,
		Synthesizer:  voices,
		Concatenator: audio,
		Notifier:     notifier,
	}
	cache, err := transcriptcache.Open(cfg.TranscriptCachePath())
	if err != nil {
		logging.WarnWithContext(logger, "transcript cache unavailable", "transcript_cache_unavailable",
			logging.Error(err),
			logging.String("path", cfg.TranscriptCachePath()),
			logging.String(logging.FieldImpact, "every job transcribes from scratch"),
			logging.String(logging.FieldErrorHint, "check cache_dir permissions or delete the cache file"),
		)
	} else {
		defer cache.Close()
		collaborators.Cache = cache
	}

	store := jobs.NewStore(logger)
	manager := workflow.NewManager(cfg, store, collaborators, logger)
	svc := api.NewJobService(store, manager, media, pricing.NewCalculator(cfg), cfg.StreamIdleTimeout())

	d, err := daemon.New(cfg, manager, svc, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check api.bind and that no other narrator daemon is running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("narrator daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed && result.Warning {
			logging.WarnWithContext(logger, "preflight check warning", "preflight_warning",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "jobs needing this dependency will fail"),
			logging.String(logging.FieldErrorHint, "run narrator config validate for details"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []any{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("elevenlabs_key_present", strings.TrimSpace(cfg.ElevenLabs.APIKey) != ""),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.String("llm_model", cfg.LLM.Model),
		logging.Bool("default_voice_configured", strings.TrimSpace(cfg.Pipeline.DefaultVoiceID) != ""),
		logging.Int("demo_max_seconds", cfg.Pipeline.DemoMaxSeconds),
	}
	for _, status := range preflight.CheckSystemDeps(context.Background(), cfg) {
		key := strings.ToLower(strings.ReplaceAll(status.Name, "-", ""))
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	logger.Info("dependency snapshot", attrs...)
}
