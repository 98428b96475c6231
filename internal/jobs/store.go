package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"narrator/internal/logging"
)

var (
	// ErrNotFound indicates the job id is unknown.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidTransition indicates an update that would move a job backwards
	// or out of a terminal status.
	ErrInvalidTransition = errors.New("invalid job transition")
)

const idLength = 12

type record struct {
	mu   sync.Mutex
	job  Job
	seq  uint64
	subs atomic.Pointer[[]*Subscription]
}

func (r *record) event() Event {
	return Event{
		JobID:           r.job.ID,
		Seq:             r.seq,
		Status:          r.job.Status,
		ProgressPercent: r.job.ProgressPercent,
		Stage:           r.job.Stage,
		Error:           r.job.Error,
		At:              r.job.UpdatedAt,
	}
}

func (r *record) subscribers() []*Subscription {
	if p := r.subs.Load(); p != nil {
		return *p
	}
	return nil
}

// Store is the process-wide registry of jobs.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore constructs an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		records: make(map[string]*record),
		logger:  logger.With(logging.String(logging.FieldComponent, "jobs")),
		now:     time.Now,
	}
}

// Create registers a new PENDING job and returns its id.
func (s *Store) Create(req NewJob) string {
	now := s.now().UTC()
	s.mu.Lock()
	id := s.newIDLocked()
	rec := &record{job: Job{
		ID:             id,
		SourceRef:      strings.TrimSpace(req.SourceRef),
		Tier:           req.Tier,
		TargetLanguage: req.TargetLanguage,
		Status:         StatusPending,
		Stage:          LabelWaiting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}}
	s.records[id] = rec
	s.mu.Unlock()

	s.logger.Info("job created",
		logging.String(logging.FieldJobID, id),
		logging.String(logging.FieldEventType, "job_created"),
		logging.String("tier", string(req.Tier)),
		logging.String("target_language", req.TargetLanguage),
	)
	return id
}

func (s *Store) newIDLocked() string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
		if _, exists := s.records[id]; !exists {
			return id
		}
	}
}

func (s *Store) lookup(id string) *record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

// Get returns a snapshot of the job.
func (s *Store) Get(id string) (Job, bool) {
	rec := s.lookup(id)
	if rec == nil {
		return Job{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job, true
}

// List returns snapshots of every job, oldest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	jobs := make([]Job, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		jobs = append(jobs, rec.job)
		rec.mu.Unlock()
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return jobs
}

// Counts tallies jobs by status.
func (s *Store) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, job := range s.List() {
		counts[job.Status]++
	}
	return counts
}

// Update applies a status/progress change and publishes the resulting event
// to every subscriber of the job. Progress is clamped into the status range.
func (s *Store) Update(id string, status Status, percent int, stage string, opts ...UpdateOption) (Event, error) {
	rec := s.lookup(id)
	if rec == nil {
		return Event{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if _, ok := statusRank[status]; !ok {
		return Event{}, fmt.Errorf("update %s: unknown status %q: %w", id, status, ErrInvalidTransition)
	}

	var fields updateFields
	for _, opt := range opts {
		if opt != nil {
			opt(&fields)
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !canTransition(rec.job.Status, status) {
		return Event{}, fmt.Errorf("update %s: %s -> %s: %w", id, rec.job.Status, status, ErrInvalidTransition)
	}

	switch status {
	case StatusCompleted:
		stage = LabelComplete
	case StatusFailed:
		stage = LabelFailed
	}
	rec.job.Status = status
	rec.job.ProgressPercent = clampPercent(status, percent)
	rec.job.Stage = stage
	rec.job.Error = fields.errorMessage
	if fields.artifactPath != nil {
		rec.job.ArtifactPath = *fields.artifactPath
	}
	if fields.voiceID != nil {
		rec.job.VoiceID = *fields.voiceID
	}
	if fields.title != nil {
		rec.job.Title = *fields.title
	}
	if fields.duration != nil {
		rec.job.DurationSeconds = *fields.duration
	}
	rec.job.UpdatedAt = s.now().UTC()
	rec.seq++

	event := rec.event()
	for _, sub := range rec.subscribers() {
		sub.push(event)
	}
	if status.IsTerminal() {
		rec.subs.Store(nil)
	}
	return event, nil
}

// Subscribe registers an observer for the job. The current state is always
// the first event delivered; for a terminal job it is also the last.
func (s *Store) Subscribe(id string) (*Subscription, error) {
	rec := s.lookup(id)
	if rec == nil {
		return nil, fmt.Errorf("subscribe %s: %w", id, ErrNotFound)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	sub := newSubscription(id)
	sub.push(rec.event())
	if rec.job.Status.IsTerminal() {
		return sub, nil
	}
	current := rec.subscribers()
	next := make([]*Subscription, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, sub)
	rec.subs.Store(&next)
	return sub, nil
}

// Unsubscribe detaches the observer and closes its channel. It is idempotent
// and safe to call after the job has finished.
func (s *Store) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.stop()
	rec := s.lookup(sub.jobID)
	if rec == nil {
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	current := rec.subscribers()
	idx := slices.Index(current, sub)
	if idx < 0 {
		return
	}
	next := make([]*Subscription, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)
	rec.subs.Store(&next)
}

// SubscriberCount reports the number of live observers for a job.
func (s *Store) SubscriberCount(id string) int {
	rec := s.lookup(id)
	if rec == nil {
		return 0
	}
	return len(rec.subscribers())
}
