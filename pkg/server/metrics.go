package server

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the OTel instruments of the distribution endpoint.
type metrics struct {
	computations metric.Int64Counter
	duration     metric.Float64Histogram
	peaks        metric.Int64Histogram
	errors       metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter("isodist/server")

	var (
		m   metrics
		err error
	)

	m.computations, err = meter.Int64Counter("isodist.distributions.total",
		metric.WithDescription("Total number of isotope distributions computed"),
		metric.WithUnit("{distribution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating computations counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram("isodist.distribution.duration",
		metric.WithDescription("Duration of isotope distribution computations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	m.peaks, err = meter.Int64Histogram("isodist.distribution.peaks",
		metric.WithDescription("Number of peaks per computed distribution"),
		metric.WithUnit("{peak}"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000),
	)
	if err != nil {
		return nil, fmt.Errorf("creating peaks histogram: %w", err)
	}

	m.errors, err = meter.Int64Counter("isodist.errors.total",
		metric.WithDescription("Total number of failed distribution requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error counter: %w", err)
	}

	return &m, nil
}
