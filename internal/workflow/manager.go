package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"narrator/internal/config"
	"narrator/internal/jobs"
	"narrator/internal/logging"
	"narrator/internal/notifications"
	"narrator/internal/pricing"
	"narrator/internal/voice"
)

// Dependencies bundles the collaborators a Manager drives. Cache and
// Notifier are optional.
type Dependencies struct {
	Media        MediaSource
	Transcriber  Transcriber
	Cache        TranscriptCache
	Sampler      SampleExtractor
	Cloner       voice.Cloner
	Translator   Translator
	Synthesizer  Synthesizer
	Concatenator Concatenator
	Notifier     notifications.Service
}

// Manager runs jobs through the audiobook pipeline.
type Manager struct {
	cfg      *config.Config
	store    *jobs.Store
	logger   *slog.Logger
	deps     Dependencies
	voices   *voice.Manager
	pricing  *pricing.Calculator
	notifier notifications.Service
	sleep    func(context.Context, time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	runs    map[string]*runHandle
	closed  bool
	lastErr error
}

type runHandle struct {
	jobID   string
	started time.Time
	done    chan struct{}
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithSleeper replaces the backoff sleep used between synthesis attempts.
func WithSleeper(sleep func(context.Context, time.Duration) error) ManagerOption {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *jobs.Store, deps Dependencies, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		deps:     deps,
		voices:   voice.NewManager(deps.Cloner, logger),
		pricing:  pricing.NewCalculator(cfg),
		notifier: notifier,
		sleep:    sleepContext,
		ctx:      ctx,
		cancel:   cancel,
		runs:     make(map[string]*runHandle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Start launches a tracked background run for jobID. It returns false when
// the job is unknown, already has an active run, or the manager is shutting
// down.
func (m *Manager) Start(jobID string) bool {
	if _, ok := m.store.Get(jobID); !ok {
		m.logger.Debug("run requested for unknown job", logging.String(logging.FieldJobID, jobID))
		return false
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	if _, exists := m.runs[jobID]; exists {
		m.mu.Unlock()
		return false
	}
	handle := &runHandle{jobID: jobID, started: time.Now(), done: make(chan struct{})}
	m.runs[jobID] = handle
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.finishRun(handle)
		m.Run(m.ctx, jobID)
	}()
	return true
}

func (m *Manager) finishRun(handle *runHandle) {
	m.mu.Lock()
	if m.runs[handle.jobID] == handle {
		delete(m.runs, handle.jobID)
	}
	m.mu.Unlock()
	close(handle.done)
}

// Wait blocks until the tracked run for jobID finishes. It returns
// immediately when no run is active.
func (m *Manager) Wait(ctx context.Context, jobID string) error {
	m.mu.Lock()
	handle := m.runs[jobID]
	m.mu.Unlock()
	if handle == nil {
		return nil
	}
	select {
	case <-handle.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels active runs and waits for them to unwind.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errShutdown = errors.New("interrupted by daemon shutdown")
