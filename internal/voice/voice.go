// Package voice scopes cloned voices to the lifetime of a single job.
//
// Acquire clones a voice from an audio sample and returns a Lease. Release
// deletes the remote voice at most once, swallowing and logging failures so
// cleanup never changes a job's outcome.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"narrator/internal/logging"
)

// NamePrefix prefixes every cloned voice so orphans are recognisable.
const NamePrefix = "narrator-"

const defaultReleaseTimeout = 30 * time.Second

// Cloner creates and deletes voices on the synthesis provider.
type Cloner interface {
	Clone(ctx context.Context, samplePath, name string) (string, error)
	Delete(ctx context.Context, voiceID string) error
}

// Name returns the provider-side voice name used for a job.
func Name(jobID string) string {
	return NamePrefix + strings.TrimSpace(jobID)
}

// Manager hands out leases for cloned voices.
type Manager struct {
	cloner         Cloner
	logger         *slog.Logger
	releaseTimeout time.Duration
}

// NewManager constructs a Manager around cloner.
func NewManager(cloner Cloner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cloner:         cloner,
		logger:         logging.NewComponentLogger(logger, "voice"),
		releaseTimeout: defaultReleaseTimeout,
	}
}

// Acquire clones a voice from samplePath. The returned lease must be released.
func (m *Manager) Acquire(ctx context.Context, samplePath, name string) (*Lease, error) {
	if m == nil || m.cloner == nil {
		return nil, errors.New("voice cloner unavailable")
	}
	id, err := m.cloner.Clone(ctx, samplePath, name)
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("clone %s: provider returned empty voice id", name)
	}
	logging.WithContext(ctx, m.logger).Info("voice cloned",
		logging.String(logging.FieldEventType, "voice_cloned"),
		logging.String("voice_id", id),
		logging.String("voice_name", name),
	)
	return &Lease{manager: m, id: id, name: name}, nil
}

// Lease is a cloned voice owned by one job.
type Lease struct {
	manager *Manager
	id      string
	name    string
	once    sync.Once
}

// ID returns the provider voice id.
func (l *Lease) ID() string {
	if l == nil {
		return ""
	}
	return l.id
}

// Release deletes the voice. Only the first call reaches the provider; the
// delete runs even if ctx is already cancelled.
func (l *Lease) Release(ctx context.Context) {
	if l == nil || l.manager == nil {
		return
	}
	l.once.Do(func() {
		m := l.manager
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.releaseTimeout)
		defer cancel()
		logger := logging.WithContext(ctx, m.logger)
		if err := m.cloner.Delete(releaseCtx, l.id); err != nil {
			logging.WarnWithContext(logger, "voice release failed", "voice_release_failed",
				logging.String("voice_id", l.id),
				logging.String("voice_name", l.name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the voice manually from the provider dashboard"),
				logging.String(logging.FieldImpact, "cloned voice remains allocated"),
			)
			return
		}
		logger.Info("voice released",
			logging.String(logging.FieldEventType, "voice_released"),
			logging.String("voice_id", l.id),
		)
	})
}
