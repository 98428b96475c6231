package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"narrator/internal/jobs"
	"narrator/internal/logging"
	"narrator/internal/media"
	"narrator/internal/notifications"
	"narrator/internal/services"
	"narrator/internal/voice"
)

const artifactName = "audiobook.mp3"

// failurePolicy decides what a stage failure does to the run.
type failurePolicy int

const (
	policyAbort failurePolicy = iota
	policyDegrade
)

// runState carries intermediate results between stages of one run.
type runState struct {
	job        jobs.Job
	dir        string
	info       media.Info
	maxSeconds int
	audioPath  string
	transcript string
	samplePath string
	voiceID    string
	lease      *voice.Lease
	translated string
	chunkPaths []string
	artifact   string
	// pending options are attached to the next stage-end update.
	pending []jobs.UpdateOption
}

type pipelineStage struct {
	status  jobs.Status
	policy  failurePolicy
	execute func(context.Context, *runState) error
	// degrade applies the fallback after a failure; a non-nil return aborts.
	degrade func(context.Context, *runState, error) error
}

func (m *Manager) stages() []pipelineStage {
	return []pipelineStage{
		{status: jobs.StatusDownloading, policy: policyAbort, execute: m.download},
		{status: jobs.StatusTranscribing, policy: policyDegrade, execute: m.transcribe, degrade: m.fallbackTranscript},
		{status: jobs.StatusExtractingVoice, policy: policyAbort, execute: m.extractSample},
		{status: jobs.StatusCloningVoice, policy: policyDegrade, execute: m.cloneVoice, degrade: m.fallbackVoice},
		{status: jobs.StatusTranslating, policy: policyAbort, execute: m.translate},
		{status: jobs.StatusSynthesizing, policy: policyAbort, execute: m.synthesize},
		{status: jobs.StatusConcatenating, policy: policyAbort, execute: m.concatenate},
	}
}

// Run executes the pipeline for jobID synchronously. Unknown ids and jobs
// that have left PENDING are ignored.
func (m *Manager) Run(ctx context.Context, jobID string) {
	job, ok := m.store.Get(jobID)
	if !ok {
		m.logger.Debug("run requested for unknown job", logging.String(logging.FieldJobID, jobID))
		return
	}
	if job.Status != jobs.StatusPending {
		m.logger.Debug("run requested for job that already started",
			logging.String(logging.FieldJobID, jobID),
			logging.String("status", string(job.Status)),
		)
		return
	}

	ctx = services.WithJobID(ctx, jobID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)
	runStart := time.Now()
	logger.Info("job run started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source_ref", job.SourceRef),
		logging.String("tier", string(job.Tier)),
		logging.String("target_language", job.TargetLanguage),
	)

	state := &runState{job: job, dir: filepath.Join(m.cfg.Paths.WorkDir, jobID)}
	defer func() {
		if state.lease != nil {
			state.lease.Release(ctx)
		}
	}()

	if err := os.MkdirAll(state.dir, 0o755); err != nil {
		m.failJob(ctx, state, "", services.Wrap(services.ErrConfiguration, "workflow", "prepare job directory", "could not create job directory", err))
		return
	}

	for _, stage := range m.stages() {
		if err := m.runStage(ctx, state, stage); err != nil {
			m.failJob(ctx, state, stage.status, err)
			return
		}
	}

	if _, err := m.store.Update(jobID, jobs.StatusCompleted, 100, jobs.LabelComplete, jobs.WithArtifact(state.artifact)); err != nil {
		logger.Error("failed to record job completion", logging.Error(err))
		return
	}
	logger.Info("job run completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("artifact_path", state.artifact),
		logging.Duration("run_duration", time.Since(runStart)),
	)
	m.publish(ctx, notifications.EventJobCompleted, notifications.Payload{
		"jobID":          jobID,
		"title":          state.info.Title,
		"targetLanguage": state.job.TargetLanguage,
		"artifactPath":   state.artifact,
	})
}

func (m *Manager) runStage(ctx context.Context, state *runState, stage pipelineStage) error {
	desc, ok := jobs.StageFor(stage.status)
	if !ok {
		return fmt.Errorf("no stage descriptor for %s", stage.status)
	}
	if err := ctx.Err(); err != nil {
		return errShutdown
	}

	stageCtx := services.WithStage(ctx, string(stage.status))
	logger := logging.WithContext(stageCtx, m.logger)
	m.progress(state.job.ID, desc.Status, desc.Start, desc.Label)
	stageStart := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int(logging.FieldProgressPercent, desc.Start),
	)

	if err := stage.execute(stageCtx, state); err != nil {
		if stageCtx.Err() != nil {
			return errShutdown
		}
		if stage.policy != policyDegrade || stage.degrade == nil {
			return err
		}
		if degradeErr := stage.degrade(stageCtx, state, err); degradeErr != nil {
			return degradeErr
		}
	}

	m.progress(state.job.ID, desc.Status, desc.End, desc.Label, state.pending...)
	state.pending = nil
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int(logging.FieldProgressPercent, desc.End),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// progress records a progress update; a missing job is not an error here.
func (m *Manager) progress(jobID string, status jobs.Status, percent int, label string, opts ...jobs.UpdateOption) {
	if _, err := m.store.Update(jobID, status, percent, label, opts...); err != nil && !errors.Is(err, jobs.ErrNotFound) {
		m.logger.Warn("progress update rejected",
			logging.String(logging.FieldJobID, jobID),
			logging.String("status", string(status)),
			logging.Error(err),
		)
	}
}

func (m *Manager) download(ctx context.Context, state *runState) error {
	info, err := m.deps.Media.Metadata(ctx, state.job.SourceRef)
	if err != nil {
		return err
	}
	state.info = info
	state.maxSeconds = m.pricing.MaxSeconds(state.job.Tier, info.DurationSeconds)

	logger := logging.WithContext(ctx, m.logger)
	logger.Info("source resolved",
		logging.String("title", info.Title),
		logging.String("channel", info.Channel),
		logging.Int("duration_seconds", info.DurationSeconds),
		logging.Int("max_seconds", state.maxSeconds),
		logging.Bool("demo_cap", m.cfg.Pipeline.DemoMaxSeconds > 0),
	)

	desc, _ := jobs.StageFor(jobs.StatusDownloading)
	m.progress(state.job.ID, desc.Status, desc.Mid(), desc.Label, jobs.WithMetadata(info.Title, info.DurationSeconds))

	audioPath, err := m.deps.Media.DownloadAudio(ctx, state.job.SourceRef, state.dir, state.maxSeconds)
	if err != nil {
		return err
	}
	state.audioPath = audioPath
	return nil
}

func (m *Manager) transcribe(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, m.logger)
	if cache := m.deps.Cache; cache != nil {
		text, hit, err := cache.Lookup(ctx, state.job.SourceRef, state.maxSeconds)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "transcript cache lookup failed", "transcript_cache_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "transcript will be fetched again"),
				logging.String(logging.FieldErrorHint, "check cache_dir permissions"),
			)
		case hit:
			logger.Info("transcript cache hit",
				logging.String("decision_result", "hit"),
				logging.Int("transcript_chars", len([]rune(text))),
			)
			state.transcript = text
			return nil
		}
	}
	if m.deps.Transcriber == nil {
		return errors.New("transcriber unavailable")
	}

	text, err := m.deps.Transcriber.Transcribe(ctx, state.job.SourceRef, state.maxSeconds)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrExternalService, "transcribing", "transcribe", "no subtitles found", nil)
	}
	state.transcript = text
	logger.Info("transcript fetched", logging.Int("transcript_chars", len([]rune(text))))

	if cache := m.deps.Cache; cache != nil {
		if err := cache.Store(ctx, state.job.SourceRef, state.maxSeconds, text); err != nil {
			logger.Warn("transcript cache store failed", logging.Error(err))
		}
	}
	return nil
}

func (m *Manager) fallbackTranscript(ctx context.Context, state *runState, cause error) error {
	fallback := strings.TrimSpace(m.cfg.Pipeline.FallbackTranscript)
	if fallback == "" {
		return cause
	}
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "transcription failed; using fallback transcript", "transcript_fallback",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.String(logging.FieldImpact, "audiobook narrates the fallback text"),
		logging.String(logging.FieldErrorHint, services.Hint(cause)),
	)
	state.transcript = fallback
	return nil
}

func (m *Manager) extractSample(ctx context.Context, state *runState) error {
	samplePath, err := m.deps.Sampler.Extract(ctx, state.audioPath, state.dir)
	if err != nil {
		return err
	}
	state.samplePath = samplePath
	return nil
}

func (m *Manager) cloneVoice(ctx context.Context, state *runState) error {
	lease, err := m.voices.Acquire(ctx, state.samplePath, voice.Name(state.job.ID))
	if err != nil {
		return err
	}
	state.lease = lease
	state.voiceID = lease.ID()
	state.pending = append(state.pending, jobs.WithVoiceID(state.voiceID))
	return nil
}

func (m *Manager) fallbackVoice(ctx context.Context, state *runState, cause error) error {
	defaultVoice := strings.TrimSpace(m.cfg.Pipeline.DefaultVoiceID)
	if defaultVoice == "" {
		return fmt.Errorf("voice cloning failed and no default voice is configured: %w", cause)
	}
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "voice cloning failed; using default voice", "voice_clone_fallback",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.String("voice_id", defaultVoice),
		logging.String(logging.FieldImpact, "audiobook uses the default narrator voice"),
		logging.String(logging.FieldErrorHint, services.Hint(cause)),
	)
	state.voiceID = defaultVoice
	state.pending = append(state.pending, jobs.WithVoiceID(defaultVoice))
	return nil
}

func (m *Manager) concatenate(ctx context.Context, state *runState) error {
	output := filepath.Join(state.dir, artifactName)
	if err := m.deps.Concatenator.Concat(ctx, state.chunkPaths, output); err != nil {
		return err
	}
	state.artifact = output
	return nil
}
