package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"narrator/internal/api"
	"narrator/internal/config"
	"narrator/internal/deps"
	"narrator/internal/logging"
	"narrator/internal/notifications"
	"narrator/internal/preflight"
	"narrator/internal/workflow"
)

const shutdownTimeout = 30 * time.Second

// Daemon owns the HTTP API and the workflow manager and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	workflow *workflow.Manager
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running             bool
	PID                 int
	Bind                string
	Workflow            workflow.StatusSummary
	LockFilePath        string
	TranscriptCachePath string
	Dependencies        []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, wf *workflow.Manager, svc *api.JobService, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || wf == nil || svc == nil {
		return nil, errors.New("daemon requires config, workflow manager, and job service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg.API.Bind, svc, d.apiStatus, logger)
	return d, nil
}

// Start acquires the daemon lock and begins serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(d.cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another narrator daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("narrator daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

// Stop stops the HTTP API, interrupts active runs and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.workflow.Shutdown(ctx); err != nil {
		logging.WarnWithContext(d.logger, "workflow shutdown incomplete", "daemon_shutdown_timeout",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "active runs did not finish within the shutdown window"),
		)
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("narrator daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Address returns the address the API listens on, or "" before Start.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:             d.running.Load(),
		PID:                 os.Getpid(),
		Bind:                d.api.address(),
		Workflow:            d.workflow.Status(),
		LockFilePath:        d.lockPath,
		TranscriptCachePath: d.cfg.TranscriptCachePath(),
		Dependencies:        preflight.CheckSystemDeps(ctx, d.cfg),
	}
}

func (d *Daemon) apiStatus(ctx context.Context) api.DaemonStatus {
	status := d.Status(ctx)
	return api.DaemonStatus{
		Running:             status.Running,
		PID:                 status.PID,
		Bind:                status.Bind,
		LockFilePath:        status.LockFilePath,
		TranscriptCachePath: status.TranscriptCachePath,
		Workflow:            api.FromStatusSummary(status.Workflow),
		Dependencies:        api.FromDependencies(status.Dependencies),
	}
}

// SendTestNotification publishes a test event through every configured
// notifier.
func SendTestNotification(ctx context.Context, cfg *config.Config) (bool, string, error) {
	if cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" && strings.TrimSpace(cfg.Notifications.AMQPURL) == "" {
		return false, "no notification target configured", nil
	}
	notifier := notifications.NewService(cfg)
	defer notifications.Close(notifier)
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
