package sensor

import (
	"context"
	"math/rand"
	"sync"

	"codeberg.org/mutker/eelnode/internal/errors"
)

// SimulatedConfig shapes a simulated sensor.
type SimulatedConfig struct {
	Base        float64 // starting value
	Min, Max    float64 // value is clamped to this range
	Step        float64 // largest change per sample
	FailureRate float64 // probability in [0,1] that a sample fails
	Seed        int64
}

// Simulated produces a bounded random walk, standing in for hardware
// during development.
type Simulated struct {
	cfg SimulatedConfig

	mu    sync.Mutex
	rng   *rand.Rand
	value float64
}

var _ Sensor = (*Simulated)(nil)

// NewSimulated creates a random-walk sensor.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.Max < cfg.Min {
		cfg.Min, cfg.Max = cfg.Max, cfg.Min
	}
	return &Simulated{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		value: clamp(cfg.Base, cfg.Min, cfg.Max),
	}
}

func (s *Simulated) Sample(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate {
		return 0, errors.New().WithData(ErrNoReading, "simulated failure")
	}

	s.value = clamp(s.value+(s.rng.Float64()*2-1)*s.cfg.Step, s.cfg.Min, s.cfg.Max)
	return s.value, nil
}

// SimulatedADC returns raw counts drawn uniformly from [Min, Max].
type SimulatedADC struct {
	Min, Max int

	mu  sync.Mutex
	rng *rand.Rand
}

var _ ADCChannel = (*SimulatedADC)(nil)

// NewSimulatedADC creates a channel producing counts in [lo, hi].
func NewSimulatedADC(lo, hi int, seed int64) *SimulatedADC {
	if hi < lo {
		lo, hi = hi, lo
	}
	return &SimulatedADC{Min: lo, Max: hi, rng: rand.New(rand.NewSource(seed))}
}

func (a *SimulatedADC) RawValue() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Min + a.rng.Intn(a.Max-a.Min+1), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
