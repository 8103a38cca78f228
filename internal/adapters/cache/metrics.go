package cache

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type cacheMetricsCollection struct {
	lookups   metric.Int64Counter
	bulkCalls metric.Int64Counter
	bulkKeys  metric.Int64Histogram
	discarded metric.Int64Counter
}

var metrics cacheMetricsCollection

func init() {
	const name = "quotelight/cache"
	meter := otel.Meter(name)

	lookups, err := meter.Int64Counter(
		"cache/lookups",
		metric.WithDescription("Cache lookups by result (hit, miss, joined)"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create lookups metric: %w", err))
	}

	bulkCalls, err := meter.Int64Counter(
		"cache/bulk_resolver_calls",
		metric.WithDescription("Number of bulk resolver invocations"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create bulk calls metric: %w", err))
	}

	bulkKeys, err := meter.Int64Histogram(
		"cache/bulk_resolver_keys",
		metric.WithDescription("Number of keys passed to each bulk resolver invocation"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create bulk keys metric: %w", err))
	}

	discarded, err := meter.Int64Counter(
		"cache/discarded_results",
		metric.WithDescription("Results dropped because the key was invalidated while in flight"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create discarded metric: %w", err))
	}

	metrics = cacheMetricsCollection{
		lookups:   lookups,
		bulkCalls: bulkCalls,
		bulkKeys:  bulkKeys,
		discarded: discarded,
	}
}

func lookupAttributes(cacheName string, result string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("cache", cacheName),
		attribute.String("result", result),
	)
}

func cacheAttributes(cacheName string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("cache", cacheName))
}
