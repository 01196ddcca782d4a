package store

import (
	"errors"
	"sync"
	"time"

	"github.com/umerkhan-dev/weather-etl/internal/pipeline"
)

var (
	// ErrNotFound is returned when no run matches the request.
	ErrNotFound = errors.New("no run found")
)

// RunHistory is a concurrency-safe in-memory record of finished pipeline
// runs, retained by count and age. It feeds the ops API; nothing in the
// pipeline reads it back.
type RunHistory struct {
	mu sync.RWMutex

	runs []pipeline.RunReport

	// retention configuration
	maxHistory int           // max number of retained runs (0 = unlimited)
	maxAge     time.Duration // max age of retained runs (0 = unlimited)
}

// NewRunHistory creates a RunHistory with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewRunHistory(maxHistory int, maxAge time.Duration) *RunHistory {
	return &RunHistory{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Record appends a finished run and enforces retention.
func (h *RunHistory) Record(report pipeline.RunReport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append(h.runs, report)

	// Enforce retention by count.
	if h.maxHistory > 0 && len(h.runs) > h.maxHistory {
		over := len(h.runs) - h.maxHistory
		h.runs = h.runs[over:]
	}

	// Enforce retention by age.
	if h.maxAge > 0 {
		cutoff := time.Now().Add(-h.maxAge)
		i := 0
		for ; i < len(h.runs); i++ {
			if !h.runs[i].FinishedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(h.runs) {
			h.runs = h.runs[i:]
		}
	}
}

// Latest returns the most recent run.
func (h *RunHistory) Latest() (pipeline.RunReport, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.runs) == 0 {
		return pipeline.RunReport{}, ErrNotFound
	}
	return h.runs[len(h.runs)-1], nil
}

// Recent returns up to n runs, newest first.
func (h *RunHistory) Recent(n int) []pipeline.RunReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.runs) {
		n = len(h.runs)
	}

	out := make([]pipeline.RunReport, 0, n)
	for i := len(h.runs) - 1; i >= len(h.runs)-n; i-- {
		out = append(out, h.runs[i])
	}
	return out
}

// Get returns the run with the given id.
func (h *RunHistory) Get(id string) (pipeline.RunReport, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.runs) - 1; i >= 0; i-- {
		if h.runs[i].ID == id {
			return h.runs[i], nil
		}
	}
	return pipeline.RunReport{}, ErrNotFound
}
