package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/eelnode/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreStartsInvalid(t *testing.T) {
	store := telemetry.NewStore()

	for _, m := range telemetry.Metrics() {
		r := store.Read(m)
		assert.Equal(t, m, r.Metric)
		assert.False(t, r.Valid, "metric %s should start invalid", m)
		assert.Zero(t, r.Value)
		assert.True(t, r.UpdatedAt.IsZero())
	}
}

func TestWriteThenRead(t *testing.T) {
	store := telemetry.NewStore()
	before := time.Now()

	store.Write(telemetry.PH, 9)

	r := store.Read(telemetry.PH)
	assert.Equal(t, telemetry.Reading{Metric: telemetry.PH, Value: 9, Valid: true, UpdatedAt: r.UpdatedAt}, r)
	assert.False(t, r.UpdatedAt.Before(before))

	// other metrics are untouched
	assert.False(t, store.Read(telemetry.Temperature).Valid)
}

func TestLastWriteWins(t *testing.T) {
	store := telemetry.NewStore()

	store.Write(telemetry.Distance, 12.5)
	store.Write(telemetry.Distance, 0)

	r := store.Read(telemetry.Distance)
	assert.True(t, r.Valid)
	assert.Zero(t, r.Value)
}

func TestReadAllOrder(t *testing.T) {
	store := telemetry.NewStore()
	store.Write(telemetry.DissolvedOxygen, 8)
	store.Write(telemetry.Temperature, 24.5)

	all := store.ReadAll()
	require.Len(t, all, len(telemetry.Metrics()))

	for i, m := range telemetry.Metrics() {
		assert.Equal(t, m, all[i].Metric)
	}
	assert.Equal(t, 24.5, all[0].Value)
	assert.True(t, all[0].Valid)
	assert.False(t, all[1].Valid)
	assert.False(t, all[2].Valid)
	assert.Equal(t, 8.0, all[3].Value)
}

func TestUnknownMetric(t *testing.T) {
	store := telemetry.NewStore()
	bogus := telemetry.Metric(42)

	assert.NotPanics(t, func() { store.Write(bogus, 1) })

	r := store.Read(bogus)
	assert.Equal(t, bogus, r.Metric)
	assert.False(t, r.Valid)
	assert.Len(t, store.ReadAll(), 4)
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	store := telemetry.NewStore()
	const writes = 2000

	var wg sync.WaitGroup
	for _, m := range telemetry.Metrics() {
		wg.Add(1)
		go func(m telemetry.Metric) {
			defer wg.Done()
			for i := 1; i <= writes; i++ {
				store.Write(m, float64(i))
			}
		}(m)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < writes; i++ {
			for idx, r := range store.ReadAll() {
				assert.Equal(t, telemetry.Metrics()[idx], r.Metric)
				if r.Valid {
					assert.GreaterOrEqual(t, r.Value, 1.0)
				}
			}
		}
	}()

	wg.Wait()
	<-done

	for _, m := range telemetry.Metrics() {
		assert.Equal(t, float64(writes), store.Read(m).Value)
	}
}

func TestMetricNames(t *testing.T) {
	tests := []struct {
		metric telemetry.Metric
		field  string
	}{
		{telemetry.Temperature, "temperature"},
		{telemetry.Distance, "distance"},
		{telemetry.PH, "ph"},
		{telemetry.DissolvedOxygen, "dissolved_oxygen"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.field, tt.metric.Field())
			assert.Equal(t, tt.field, tt.metric.String())

			got, ok := telemetry.ParseMetric(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.metric, got)
		})
	}

	_, ok := telemetry.ParseMetric("salinity")
	assert.False(t, ok)
	assert.Equal(t, "metric_7", telemetry.Metric(7).Field())
}

func TestReadingAge(t *testing.T) {
	now := time.Now()
	r := telemetry.Reading{Valid: true, UpdatedAt: now.Add(-3 * time.Second)}
	assert.Equal(t, 3*time.Second, r.Age(now))
	assert.Zero(t, telemetry.Reading{}.Age(now))
}
