package routing

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter. Both are no-ops until the host installs providers.
var (
	tracer = otel.Tracer("ruta-op.routing")
	meter  = otel.Meter("ruta-op.routing")
)

var (
	queryLatency  metric.Float64Histogram
	queryTotal    metric.Int64Counter
	fallbackTotal metric.Int64Counter
	indexBuild    metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		queryLatency, err = meter.Float64Histogram(
			"routing_query_duration_seconds",
			metric.WithDescription("Duration of shortest-path queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryTotal, err = meter.Int64Counter(
			"routing_query_total",
			metric.WithDescription("Total number of shortest-path queries"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fallbackTotal, err = meter.Int64Counter(
			"routing_fallback_total",
			metric.WithDescription("Queries served by the sparse backend"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexBuild, err = meter.Float64Histogram(
			"routing_index_build_duration_seconds",
			metric.WithDescription("Duration of dense index builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordQueryMetrics(res PathResult, fellBack bool) {
	if err := initMetrics(); err != nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("algorithm", res.Algorithm.String()),
		attribute.String("backend", res.Backend.String()),
		attribute.String("status", res.Status.String()),
	)
	queryLatency.Record(ctx, res.Elapsed.Seconds(), attrs)
	queryTotal.Add(ctx, 1, attrs)
	if fellBack {
		fallbackTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("algorithm", res.Algorithm.String())))
	}
}

func recordIndexBuild(duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	indexBuild.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(attribute.Bool("success", success)))
}

func startIndexSpan(nodes, edges int) (context.Context, trace.Span) {
	return tracer.Start(context.Background(), "PathFinder.SetGraph",
		trace.WithAttributes(
			attribute.Int("graph.node_count", nodes),
			attribute.Int("graph.edge_count", edges),
		),
	)
}
