package jobs

import "time"

// Job is a snapshot of one audiobook request and its progress.
type Job struct {
	ID              string
	SourceRef       string
	Tier            Tier
	TargetLanguage  string
	Status          Status
	ProgressPercent int
	Stage           string
	Error           string
	ArtifactPath    string
	VoiceID         string
	Title           string
	DurationSeconds int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Event is a progress notification emitted for every job mutation.
type Event struct {
	JobID           string
	Seq             uint64
	Status          Status
	ProgressPercent int
	Stage           string
	Error           string
	At              time.Time
}

// IsTerminal reports whether the event closes the job's stream.
func (e Event) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// NewJob describes the inputs accepted by Store.Create.
type NewJob struct {
	SourceRef      string
	Tier           Tier
	TargetLanguage string
}

// UpdateOption mutates optional fields alongside a status update.
type UpdateOption func(*updateFields)

type updateFields struct {
	errorMessage string
	artifactPath *string
	voiceID      *string
	title        *string
	duration     *int
}

// WithError records the failure message carried by the event.
func WithError(message string) UpdateOption {
	return func(f *updateFields) { f.errorMessage = message }
}

// WithArtifact records the finished audiobook location.
func WithArtifact(path string) UpdateOption {
	return func(f *updateFields) { f.artifactPath = &path }
}

// WithVoiceID records the voice used for synthesis.
func WithVoiceID(id string) UpdateOption {
	return func(f *updateFields) { f.voiceID = &id }
}

// WithMetadata records the source title and duration once known.
func WithMetadata(title string, durationSeconds int) UpdateOption {
	return func(f *updateFields) {
		f.title = &title
		f.duration = &durationSeconds
	}
}
