package api

import "narrator/internal/jobs"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SubmitRequest is the body accepted by POST /api/jobs.
type SubmitRequest struct {
	URL            string `json:"url"`
	Tier           string `json:"tier"`
	TargetLanguage string `json:"target_language"`
}

// AnalyzeRequest is the body accepted by POST /api/videos/analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// JobResponse describes a job snapshot.
type JobResponse struct {
	JobID          string  `json:"job_id"`
	Status         string  `json:"status"`
	ProgressPct    int     `json:"progress_pct"`
	CurrentStage   string  `json:"current_stage"`
	Error          *string `json:"error"`
	Tier           string  `json:"tier,omitempty"`
	TargetLanguage string  `json:"target_language,omitempty"`
	Title          string  `json:"title,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

// ProgressEvent is the data payload of an SSE progress frame.
type ProgressEvent struct {
	Status       string  `json:"status"`
	ProgressPct  int     `json:"progress_pct"`
	CurrentStage string  `json:"current_stage"`
	Error        *string `json:"error"`
}

// Terminal reports whether the event ends the job's stream.
func (e ProgressEvent) Terminal() bool {
	return jobs.Status(e.Status).IsTerminal()
}

// VideoInfo summarizes an analyzed source.
type VideoInfo struct {
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	DurationSeconds int    `json:"duration_seconds"`
	ThumbnailURL    string `json:"thumbnail_url"`
}

// TierCost is the estimated cost of one tier.
type TierCost struct {
	Tier              string  `json:"tier"`
	DurationMinutes   float64 `json:"duration_minutes"`
	TranscriptionCost float64 `json:"transcription_cost"`
	TranslationCost   float64 `json:"translation_cost"`
	TTSCost           float64 `json:"tts_cost"`
	TotalCost         float64 `json:"total_cost"`
}

// AnalyzeResponse pairs source metadata with per-tier quotes.
type AnalyzeResponse struct {
	Video VideoInfo  `json:"video"`
	Tiers []TierCost `json:"tiers"`
}

// Language is a supported translation target.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// RunInfo describes an active pipeline run.
type RunInfo struct {
	JobID     string `json:"job_id"`
	StartedAt string `json:"started_at"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	ActiveRuns []RunInfo      `json:"active_runs"`
	JobCounts  map[string]int `json:"job_counts"`
	LastError  string         `json:"last_error,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running             bool               `json:"running"`
	PID                 int                `json:"pid"`
	Bind                string             `json:"bind"`
	LockFilePath        string             `json:"lock_file_path"`
	TranscriptCachePath string             `json:"transcript_cache_path,omitempty"`
	Workflow            WorkflowStatus     `json:"workflow"`
	Dependencies        []DependencyStatus `json:"dependencies"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
