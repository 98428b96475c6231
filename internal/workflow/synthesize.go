package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"narrator/internal/jobs"
	"narrator/internal/logging"
	"narrator/internal/services"
	"narrator/internal/textchunk"
)

// synthesize renders chunks strictly in order, stitching each request to the
// most recent successful request ids for prosody continuity.
func (m *Manager) synthesize(ctx context.Context, state *runState) error {
	chunks := textchunk.SplitSentences(state.translated, m.cfg.Pipeline.SynthesisChunkChars)
	if len(chunks) == 0 {
		return services.Wrap(services.ErrPipeline, "synthesizing", "split translation", "translation produced no text", nil)
	}
	desc, _ := jobs.StageFor(jobs.StatusSynthesizing)
	logger := logging.WithContext(ctx, m.logger)
	sampler := logging.NewProgressSampler(25)
	total := len(chunks)
	logger.Info("synthesis planned",
		logging.Int("chunk_count", total),
		logging.String("voice_id", state.voiceID),
	)

	priorLimit := max(m.cfg.Pipeline.SynthesisPriorRequests, 0)
	var prior []string
	paths := make([]string, 0, total)
	for i, chunk := range chunks {
		audio, requestID, err := m.synthesizeChunk(ctx, chunk, state.voiceID, prior, i+1, total)
		if err != nil {
			return err
		}
		path := filepath.Join(state.dir, fmt.Sprintf("tts_chunk_%04d.mp3", i))
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			return services.Wrap(services.ErrPipeline, "synthesizing", "write chunk", path, err)
		}
		paths = append(paths, path)
		if requestID != "" && priorLimit > 0 {
			prior = append(prior, requestID)
			if len(prior) > priorLimit {
				prior = prior[len(prior)-priorLimit:]
			}
		}

		done := i + 1
		percent := desc.Progress(done, total)
		m.progress(state.job.ID, desc.Status, percent, desc.ProgressLabel(done, total))
		if sampler.ShouldLog(100*done/total, string(desc.Status)) {
			logger.Info("synthesis progress",
				logging.Int("chunk_index", done),
				logging.Int("chunk_count", total),
				logging.Int(logging.FieldProgressPercent, percent),
			)
		}
	}
	state.chunkPaths = paths
	return nil
}

// synthesizeChunk retries a chunk up to the configured attempt count, doubling
// the delay after each failure.
func (m *Manager) synthesizeChunk(ctx context.Context, text, voiceID string, prior []string, index, total int) ([]byte, string, error) {
	attempts := max(m.cfg.Pipeline.SynthesisMaxAttempts, 1)
	delay := m.cfg.SynthesisRetryBase()
	ids := append([]string(nil), prior...)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		audio, requestID, err := m.deps.Synthesizer.Synthesize(ctx, text, voiceID, ids)
		if err == nil {
			if len(audio) == 0 {
				err = services.Wrap(services.ErrExternalService, "synthesizing", "synthesize", "provider returned empty audio", nil)
			} else {
				return audio, requestID, nil
			}
		}
		lastErr = err
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "synthesis attempt failed; retrying", "synthesis_retry",
			logging.Int("chunk_index", index),
			logging.Int("chunk_count", total),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("retry_in", delay),
			logging.Error(err),
			logging.String(logging.FieldImpact, "chunk will be retried"),
		)
		if err := m.sleep(ctx, delay); err != nil {
			return nil, "", err
		}
		delay *= 2
	}
	return nil, "", fmt.Errorf("synthesize chunk %d/%d failed after %d attempts: %w", index, total, attempts, lastErr)
}
