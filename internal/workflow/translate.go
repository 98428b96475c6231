package workflow

import (
	"context"
	"fmt"
	"strings"

	"narrator/internal/jobs"
	"narrator/internal/logging"
	"narrator/internal/services"
	"narrator/internal/textchunk"
)

// translate runs chunks strictly in order: each request carries the tail of
// the previous translation as continuity context. Chunk failures are not
// retried here.
func (m *Manager) translate(ctx context.Context, state *runState) error {
	chunks := textchunk.SplitParagraphs(state.transcript, m.cfg.Pipeline.TranslationChunkChars)
	if len(chunks) == 0 {
		return services.Wrap(services.ErrPipeline, "translating", "split transcript", "transcript is empty", nil)
	}
	desc, _ := jobs.StageFor(jobs.StatusTranslating)
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("translation planned",
		logging.Int("chunk_count", len(chunks)),
		logging.Int("transcript_chars", len([]rune(state.transcript))),
	)

	outputs := make([]string, 0, len(chunks))
	var contextHint string
	for i, chunk := range chunks {
		translated, err := m.deps.Translator.Translate(ctx, chunk, state.job.TargetLanguage, contextHint)
		if err != nil {
			if len(chunks) == 1 {
				return err
			}
			return fmt.Errorf("translate chunk %d/%d: %w", i+1, len(chunks), err)
		}
		translated = strings.TrimSpace(translated)
		outputs = append(outputs, translated)
		contextHint = textchunk.Tail(translated, m.cfg.Pipeline.TranslationContextChars)

		done := i + 1
		if len(chunks) > 1 {
			m.progress(state.job.ID, desc.Status, desc.Progress(done, len(chunks)), desc.ProgressLabel(done, len(chunks)))
		}
		logger.Debug("translation chunk complete",
			logging.Int("chunk_index", done),
			logging.Int("chunk_count", len(chunks)),
			logging.Int("chunk_chars", len([]rune(translated))),
		)
	}

	state.translated = strings.TrimSpace(strings.Join(outputs, "\n\n"))
	if state.translated == "" {
		return services.Wrap(services.ErrExternalService, "translating", "translate", "translator returned empty text", nil)
	}
	logger.Info("translation complete", logging.Int("translated_chars", len([]rune(state.translated))))
	return nil
}
