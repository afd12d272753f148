package metrics

import (
	"time"

	"codeberg.org/mutker/eelnode/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// storeCollector reads the reading store on every scrape.
type storeCollector struct {
	store *telemetry.Store
	now   func() time.Time

	value *prometheus.Desc
	valid *prometheus.Desc
	age   *prometheus.Desc
}

var _ prometheus.Collector = (*storeCollector)(nil)

func newStoreCollector(store *telemetry.Store, now func() time.Time) *storeCollector {
	labels := []string{"metric"}
	return &storeCollector{
		store: store,
		now:   now,
		value: prometheus.NewDesc(
			namespace+"_reading",
			"Latest published value of each metric.",
			labels, nil,
		),
		valid: prometheus.NewDesc(
			namespace+"_reading_valid",
			"Whether the metric has been sampled successfully at least once.",
			labels, nil,
		),
		age: prometheus.NewDesc(
			namespace+"_reading_age_seconds",
			"Seconds since the metric was last published.",
			labels, nil,
		),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.value
	ch <- c.valid
	ch <- c.age
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	now := c.now()

	for _, r := range c.store.ReadAll() {
		name := r.Metric.Field()

		ch <- prometheus.MustNewConstMetric(c.value, prometheus.GaugeValue, r.Value, name)
		ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, boolToFloat(r.Valid), name)

		// Age is meaningless until the first write.
		if r.Valid {
			ch <- prometheus.MustNewConstMetric(c.age, prometheus.GaugeValue, r.Age(now).Seconds(), name)
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
