package metrics

import (
	"context"
	"net/http"

	"codeberg.org/mutker/eelnode/internal/dispatcher"
	"codeberg.org/mutker/eelnode/internal/sampler"
)

// Service exposes node readings and activity counters to Prometheus.
// It doubles as the observer for sampling tasks and the dispatcher.
type Service interface {
	sampler.Observer
	dispatcher.Observer

	// Handler serves the scrape endpoint.
	Handler() http.Handler
	// Serve runs the scrape endpoint until ctx is done.
	Serve(ctx context.Context) error
	IsEnabled() bool
}
