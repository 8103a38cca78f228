package auth

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type authMetricsCollection struct {
	acquisitions metric.Int64Counter
	resets       metric.Int64Counter
	retries      metric.Int64Counter
}

var metrics authMetricsCollection

func init() {
	const name = "quotelight/auth"
	meter := otel.Meter(name)

	acquisitions, err := meter.Int64Counter(
		"auth/acquisitions",
		metric.WithDescription("Credential acquisitions, by result"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create acquisitions metric: %w", err))
	}

	resets, err := meter.Int64Counter(
		"auth/resets",
		metric.WithDescription("Credentials discarded, by reason"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create resets metric: %w", err))
	}

	retries, err := meter.Int64Counter(
		"auth/retries",
		metric.WithDescription("Authenticated calls retried after the credential was rejected"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create retries metric: %w", err))
	}

	metrics = authMetricsCollection{
		acquisitions: acquisitions,
		resets:       resets,
		retries:      retries,
	}
}
