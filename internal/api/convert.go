package api

import (
	"slices"
	"strings"
	"time"

	"narrator/internal/deps"
	"narrator/internal/jobs"
	"narrator/internal/language"
	"narrator/internal/media"
	"narrator/internal/pricing"
	"narrator/internal/workflow"
)

// FromJob converts a job record to its API representation.
func FromJob(job jobs.Job) JobResponse {
	return JobResponse{
		JobID:          job.ID,
		Status:         string(job.Status),
		ProgressPct:    job.ProgressPercent,
		CurrentStage:   job.Stage,
		Error:          optionalString(job.Error),
		Tier:           string(job.Tier),
		TargetLanguage: job.TargetLanguage,
		Title:          job.Title,
		CreatedAt:      FormatTime(job.CreatedAt),
		UpdatedAt:      FormatTime(job.UpdatedAt),
	}
}

// FromEvent converts a progress event to its SSE payload.
func FromEvent(event jobs.Event) ProgressEvent {
	return ProgressEvent{
		Status:       string(event.Status),
		ProgressPct:  event.ProgressPercent,
		CurrentStage: event.Stage,
		Error:        optionalString(event.Error),
	}
}

// FromMediaInfo converts source metadata to its API representation.
func FromMediaInfo(info media.Info) VideoInfo {
	return VideoInfo{
		Title:           info.Title,
		Channel:         info.Channel,
		DurationSeconds: info.DurationSeconds,
		ThumbnailURL:    info.ThumbnailURL,
	}
}

// FromTierQuotes converts pricing quotes into API DTOs.
func FromTierQuotes(quotes []pricing.TierQuote) []TierCost {
	out := make([]TierCost, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, TierCost{
			Tier:              string(q.Tier),
			DurationMinutes:   q.DurationMinutes,
			TranscriptionCost: q.TranscriptionCost,
			TranslationCost:   q.TranslationCost,
			TTSCost:           q.TTSCost,
			TotalCost:         q.TotalCost,
		})
	}
	return out
}

// FromLanguages converts supported languages into API DTOs.
func FromLanguages(langs []language.Language) []Language {
	out := make([]Language, 0, len(langs))
	for _, lang := range langs {
		out = append(out, Language{Code: lang.Code, Name: lang.Name})
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	runs := make([]RunInfo, 0, len(summary.ActiveRuns))
	for _, run := range summary.ActiveRuns {
		runs = append(runs, RunInfo{JobID: run.JobID, StartedAt: FormatTime(run.StartedAt)})
	}
	return WorkflowStatus{
		ActiveRuns: runs,
		JobCounts:  MergeJobCounts(summary.JobCounts),
		LastError:  summary.LastError,
	}
}

// MergeJobCounts produces a string-keyed representation of job counts.
// Every known status is present, including zero counts.
func MergeJobCounts(counts map[jobs.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for _, status := range jobs.AllStatuses() {
		out[string(status)] = counts[status]
	}
	return out
}

// FromDependencies converts binary availability checks into API DTOs,
// ordered by name.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Path:        s.Path,
			Detail:      s.Detail,
		})
	}
	slices.SortStableFunc(out, func(a, b DependencyStatus) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
