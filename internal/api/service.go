package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"narrator/internal/jobs"
	"narrator/internal/language"
	"narrator/internal/media"
	"narrator/internal/pricing"
	"narrator/internal/services"
)

var (
	// ErrJobNotFound indicates the requested job id is unknown.
	ErrJobNotFound = errors.New("job not found")
	// ErrArtifactNotReady indicates the job has not produced its audiobook.
	ErrArtifactNotReady = errors.New("audio not ready")
)

// ValidationError reports a rejected submission field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match services.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return services.ErrValidation
}

// JobStore abstracts job persistence interactions needed by the facade.
type JobStore interface {
	Create(req jobs.NewJob) string
	Get(id string) (jobs.Job, bool)
	Stream(id string, idle time.Duration) (*jobs.Stream, error)
}

// Runner launches pipeline runs in the background.
type Runner interface {
	Start(jobID string) bool
}

// MetadataSource resolves source metadata for analysis.
type MetadataSource interface {
	Metadata(ctx context.Context, sourceRef string) (media.Info, error)
}

// Artifact locates a finished audiobook.
type Artifact struct {
	Path     string
	FileName string
	Size     int64
	ModTime  time.Time
}

// JobService exposes job operations returning API DTOs.
type JobService struct {
	store   JobStore
	runner  Runner
	source  MetadataSource
	pricing *pricing.Calculator
	idle    time.Duration
}

// NewJobService constructs a JobService. idle bounds how long a progress
// stream waits for the next event.
func NewJobService(store JobStore, runner Runner, source MetadataSource, calc *pricing.Calculator, idle time.Duration) *JobService {
	if idle <= 0 {
		idle = jobs.DefaultIdleTimeout
	}
	return &JobService{store: store, runner: runner, source: source, pricing: calc, idle: idle}
}

// SubmitJob validates the request, creates a PENDING job and starts its run.
func (s *JobService) SubmitJob(req SubmitRequest) (JobResponse, error) {
	sourceRef, err := validateSourceURL(req.URL)
	if err != nil {
		return JobResponse{}, err
	}
	tier, ok := jobs.ParseTier(req.Tier)
	if !ok {
		return JobResponse{}, &ValidationError{Field: "tier", Message: fmt.Sprintf("Invalid tier: %s", req.Tier)}
	}
	lang, ok := language.Lookup(req.TargetLanguage)
	if !ok {
		return JobResponse{}, &ValidationError{
			Field:   "target_language",
			Message: fmt.Sprintf("Unsupported language: %s", req.TargetLanguage),
		}
	}

	id := s.store.Create(jobs.NewJob{SourceRef: sourceRef, Tier: tier, TargetLanguage: lang.Code})
	job, _ := s.store.Get(id)
	if s.runner != nil {
		s.runner.Start(id)
	}
	return FromJob(job), nil
}

// GetJob returns the current snapshot of a job.
func (s *JobService) GetJob(id string) (JobResponse, error) {
	job, ok := s.store.Get(strings.TrimSpace(id))
	if !ok {
		return JobResponse{}, ErrJobNotFound
	}
	return FromJob(job), nil
}

// StreamJob opens an idle-bounded progress stream. The caller must Close it.
func (s *JobService) StreamJob(id string) (*jobs.Stream, error) {
	stream, err := s.store.Stream(strings.TrimSpace(id), s.idle)
	if errors.Is(err, jobs.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return stream, err
}

// FetchArtifact returns the audiobook of a COMPLETED job.
func (s *JobService) FetchArtifact(id string) (Artifact, error) {
	job, ok := s.store.Get(strings.TrimSpace(id))
	if !ok {
		return Artifact{}, ErrJobNotFound
	}
	if job.Status != jobs.StatusCompleted || job.ArtifactPath == "" {
		return Artifact{}, ErrArtifactNotReady
	}
	info, err := os.Stat(job.ArtifactPath)
	if err != nil || info.IsDir() {
		return Artifact{}, ErrArtifactNotReady
	}
	return Artifact{
		Path:     job.ArtifactPath,
		FileName: fmt.Sprintf("audiobook-%s.mp3", job.ID),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}

// Analyze fetches source metadata and quotes every tier.
func (s *JobService) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	sourceRef, err := validateSourceURL(req.URL)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	if s.source == nil {
		return AnalyzeResponse{}, services.Wrap(services.ErrConfiguration, "analyze", "metadata", "No metadata source configured", nil)
	}
	info, err := s.source.Metadata(ctx, sourceRef)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	resp := AnalyzeResponse{Video: FromMediaInfo(info)}
	if s.pricing != nil {
		resp.Tiers = FromTierQuotes(s.pricing.Quote(info.DurationSeconds))
	}
	return resp, nil
}

// Languages lists supported translation targets.
func (s *JobService) Languages() []Language {
	return FromLanguages(language.Supported())
}

func validateSourceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Field: "url", Message: "url is required"}
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", &ValidationError{Field: "url", Message: fmt.Sprintf("Invalid URL: %s", raw)}
	}
	return raw, nil
}
