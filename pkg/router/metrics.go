package router

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("perfroute/router")

var (
	runsTotal   metric.Int64Counter
	passesTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		runsTotal, metricsErr = meter.Int64Counter(
			"router_runs_total",
			metric.WithDescription("Number of routing runs"),
		)
		if metricsErr != nil {
			return
		}
		passesTotal, metricsErr = meter.Int64Counter(
			"router_passes_total",
			metric.WithDescription("Negotiated-congestion passes executed"),
		)
	})
	return metricsErr
}

func routeRuns(ctx context.Context, passes int) {
	if initMetrics() != nil {
		return
	}
	runsTotal.Add(ctx, 1)
	passesTotal.Add(ctx, int64(passes))
}
