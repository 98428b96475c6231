package workflow

import (
	"slices"
	"strings"
	"time"

	"narrator/internal/jobs"
)

// RunInfo describes an active pipeline run.
type RunInfo struct {
	JobID     string
	StartedAt time.Time
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	ActiveRuns []RunInfo
	JobCounts  map[jobs.Status]int
	LastError  string
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	runs := make([]RunInfo, 0, len(m.runs))
	for _, handle := range m.runs {
		runs = append(runs, RunInfo{JobID: handle.jobID, StartedAt: handle.started})
	}
	lastErr := m.lastErr
	m.mu.Unlock()

	slices.SortFunc(runs, func(a, b RunInfo) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.JobID, b.JobID)
	})
	summary := StatusSummary{ActiveRuns: runs, JobCounts: m.store.Counts()}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}
