// Package metrics holds the Prometheus collectors shared by the catalog
// client, the caches and the deck service. The web server exposes them at
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogRequests counts catalog API calls by endpoint and outcome.
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcgdeck_catalog_requests_total",
			Help: "Catalog API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// CatalogRequestDuration observes catalog API latency.
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tcgdeck_catalog_request_duration_seconds",
			Help:    "Catalog API request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tcgdeck_circuit_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CacheHits counts cache hits by cache name ("search", "sets").
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcgdeck_cache_hits_total",
			Help: "Cache hits by cache",
		},
		[]string{"cache"},
	)

	// CacheMisses counts cache misses by cache name.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcgdeck_cache_misses_total",
			Help: "Cache misses by cache",
		},
		[]string{"cache"},
	)

	// SearchesSuperseded counts search responses dropped because a newer
	// search was started before they completed.
	SearchesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tcgdeck_searches_superseded_total",
			Help: "Search responses dropped in favor of a newer request",
		},
	)

	// DeckMutations counts deck changes by operation and result.
	DeckMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcgdeck_deck_mutations_total",
			Help: "Deck mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	// ImportDiagnostics counts skipped import lines by kind.
	ImportDiagnostics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcgdeck_import_diagnostics_total",
			Help: "Deck list lines skipped during import, by kind",
		},
		[]string{"kind"},
	)
)
