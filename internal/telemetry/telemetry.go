package telemetry

import (
	"sync"
	"time"
)

// slot holds one metric's reading behind its own lock so writers of
// different metrics never contend.
type slot struct {
	mu      sync.RWMutex
	reading Reading
}

// Store is the process-wide set of latest readings, one slot per metric.
// Each metric has exactly one writer, its sampling task; any number of
// goroutines may read.
type Store struct {
	slots [metricCount]slot
	now   func() time.Time
}

// NewStore returns a store with every metric present and invalid.
func NewStore() *Store {
	s := &Store{now: time.Now}
	for _, m := range Metrics() {
		s.slots[m].reading = Reading{Metric: m}
	}
	return s
}

// Write publishes a new valid value for metric. Unknown metrics are ignored.
func (s *Store) Write(metric Metric, value float64) {
	if !metric.Valid() {
		return
	}

	r := Reading{
		Metric:    metric,
		Value:     value,
		Valid:     true,
		UpdatedAt: s.now(),
	}

	sl := &s.slots[metric]
	sl.mu.Lock()
	sl.reading = r
	sl.mu.Unlock()
}

// Read returns the current reading for metric. A never-written metric
// comes back with Valid false and a zero value.
func (s *Store) Read(metric Metric) Reading {
	if !metric.Valid() {
		return Reading{Metric: metric}
	}

	sl := &s.slots[metric]
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.reading
}

// ReadAll returns one reading per metric in reporting order. Every reading
// is internally consistent; readings of different metrics may differ in age.
func (s *Store) ReadAll() []Reading {
	out := make([]Reading, 0, metricCount)
	for _, m := range Metrics() {
		out = append(out, s.Read(m))
	}
	return out
}
