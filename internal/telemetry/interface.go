package telemetry

import (
	"fmt"
	"time"
)

// Metric identifies one of the physical quantities tracked by the node.
type Metric int

const (
	Temperature Metric = iota
	Distance
	PH
	DissolvedOxygen

	metricCount
)

var fieldNames = [metricCount]string{
	Temperature:     "temperature",
	Distance:        "distance",
	PH:              "ph",
	DissolvedOxygen: "dissolved_oxygen",
}

// Metrics returns every known metric in reporting order.
func Metrics() []Metric {
	return []Metric{Temperature, Distance, PH, DissolvedOxygen}
}

// Valid reports whether m belongs to the known metric set.
func (m Metric) Valid() bool {
	return m >= 0 && m < metricCount
}

// Field returns the stable wire name of the metric.
func (m Metric) Field() string {
	if !m.Valid() {
		return fmt.Sprintf("metric_%d", int(m))
	}
	return fieldNames[m]
}

// String implements the Stringer interface
func (m Metric) String() string {
	return m.Field()
}

// ParseMetric maps a wire field name back to its Metric.
func ParseMetric(name string) (Metric, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Metric(i), true
		}
	}
	return 0, false
}

// Reading is the latest known value of one metric. Valid stays false until
// the first successful sample and the last good value is kept afterwards.
type Reading struct {
	Metric    Metric
	Value     float64
	Valid     bool
	UpdatedAt time.Time
}

// Age returns how long ago the reading was written, or zero if it never was.
func (r Reading) Age(now time.Time) time.Duration {
	if !r.Valid {
		return 0
	}
	return now.Sub(r.UpdatedAt)
}
