// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A rebuild is a batch job, so metrics are collected in a private registry
// and pushed once at the end of the run instead of being exposed on a scrape
// endpoint. All Prometheus-specific dependencies stay in this package.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	entityCounter  *prometheus.CounterVec // catalog_entity_total
	rowCounter     *prometheus.CounterVec // catalog_rows_total
	entityDuration *prometheus.SummaryVec // catalog_entity_duration_seconds
}

// NewBackend constructs a Pushgateway backend. jobName is the Pushgateway
// "job" grouping; gatewayURL is the base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "catalog_rebuild"
	}

	reg := prometheus.NewRegistry()

	entityCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_entity_total",
			Help: "Entity loads executed, partitioned by entity and status.",
		},
		[]string{"entity", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rows_total",
			Help: "Rows inserted per entity and status.",
		},
		[]string{"entity", "status"},
	)
	entityDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "catalog_entity_duration_seconds",
			Help:       "Duration of entity loads in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"entity", "status"},
	)

	for _, c := range []prometheus.Collector{entityCounter, rowCounter, entityDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		entityCounter:  entityCounter,
		rowCounter:     rowCounter,
		entityDuration: entityDuration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	entity := labels["entity"]
	status := labels["status"]
	switch name {
	case "catalog_entity_total":
		b.entityCounter.WithLabelValues(entity, status).Add(delta)
	case "catalog_rows_total":
		b.rowCounter.WithLabelValues(entity, status).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "catalog_entity_duration_seconds" {
		return
	}
	b.entityDuration.WithLabelValues(labels["entity"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
