package workflow

import (
	"context"
	"errors"
	"strings"

	"narrator/internal/jobs"
	"narrator/internal/logging"
	"narrator/internal/notifications"
	"narrator/internal/services"
)

// failJob moves the job to FAILED with err's message attached verbatim.
func (m *Manager) failJob(ctx context.Context, state *runState, stage jobs.Status, err error) {
	if err == nil {
		err = errors.New("workflow failed without error detail")
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = "workflow failed"
	}
	m.setLastError(err)

	stageCtx := ctx
	if stage != "" {
		stageCtx = services.WithStage(ctx, string(stage))
	}
	logger := logging.WithContext(stageCtx, m.logger)
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("resolved_status", string(jobs.StatusFailed)),
		logging.String("error_message", message),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
		logging.Alert("stage_failure"),
		logging.Error(err),
	)

	if _, updateErr := m.store.Update(state.job.ID, jobs.StatusFailed, 0, jobs.LabelFailed, jobs.WithError(message)); updateErr != nil {
		logger.Error("failed to record job failure", logging.Error(updateErr))
	}
	m.publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"jobID":          state.job.ID,
		"title":          state.info.Title,
		"targetLanguage": state.job.TargetLanguage,
		"error":          message,
	})
}

// publish sends a notification; failures are logged and never affect the job.
func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	notifyCtx := context.WithoutCancel(ctx)
	if err := m.notifier.Publish(notifyCtx, event, payload); err != nil {
		logging.WithContext(ctx, m.logger).Debug("job notification failed",
			logging.String("notification_event", string(event)),
			logging.Error(err),
		)
	}
}
