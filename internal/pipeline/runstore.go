package pipeline

import "sync"

// Handoff keys used between stages of a scheduled run.
const (
	KeyRawMeasurements = "raw_weather_data"
	KeyEnvelope        = "weather_envelope"
	KeyArtifactPath    = "artifact_path"
)

// RunStore is the run-scoped key/value handoff between pipeline stages.
// Each run gets a fresh store; nothing survives the run.
type RunStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewRunStore creates an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{values: make(map[string]any)}
}

// Put stores a value under key, replacing any previous value.
func (s *RunStore) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the value stored under key, if any.
func (s *RunStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}
