package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umerkhan-dev/weather-etl/internal/pipeline"
)

func report(id string, finished time.Time) pipeline.RunReport {
	return pipeline.RunReport{
		ID:         id,
		City:       "Karachi",
		FinishedAt: finished,
		Status:     pipeline.StatusCompleted,
	}
}

func TestRunHistoryLatestAndGet(t *testing.T) {
	h := NewRunHistory(0, 0)

	_, err := h.Latest()
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now()
	h.Record(report("run-1", now))
	h.Record(report("run-2", now.Add(time.Minute)))

	latest, err := h.Latest()
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.ID)

	got, err := h.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)

	_, err = h.Get("run-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunHistoryRecentNewestFirst(t *testing.T) {
	h := NewRunHistory(0, 0)
	now := time.Now()
	for i := 0; i < 5; i++ {
		h.Record(report(fmt.Sprintf("run-%d", i), now.Add(time.Duration(i)*time.Minute)))
	}

	recent := h.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "run-4", recent[0].ID)
	assert.Equal(t, "run-3", recent[1].ID)
	assert.Equal(t, "run-2", recent[2].ID)

	// Asking for more than recorded returns everything.
	assert.Len(t, h.Recent(50), 5)
}

func TestRunHistoryRetentionByCount(t *testing.T) {
	h := NewRunHistory(2, 0)
	now := time.Now()
	h.Record(report("run-1", now))
	h.Record(report("run-2", now))
	h.Record(report("run-3", now))

	assert.Len(t, h.Recent(10), 2)
	_, err := h.Get("run-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunHistoryRetentionByAge(t *testing.T) {
	h := NewRunHistory(0, time.Hour)
	now := time.Now()
	h.Record(report("old", now.Add(-2*time.Hour)))
	h.Record(report("fresh", now))

	recent := h.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].ID)
}
