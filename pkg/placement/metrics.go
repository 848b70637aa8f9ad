package placement

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("perfroute/placement")

var (
	runsTotal  metric.Int64Counter
	stepsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		runsTotal, metricsErr = meter.Int64Counter(
			"placement_runs_total",
			metric.WithDescription("Number of placement optimizations"),
		)
		if metricsErr != nil {
			return
		}
		stepsTotal, metricsErr = meter.Int64Counter(
			"placement_anneal_steps_total",
			metric.WithDescription("Annealing steps executed"),
		)
	})
	return metricsErr
}

func optimizeRuns(ctx context.Context) {
	if initMetrics() != nil {
		return
	}
	runsTotal.Add(ctx, 1)
}

func annealSteps(n int) {
	if initMetrics() != nil {
		return
	}
	stepsTotal.Add(context.Background(), int64(n))
}
