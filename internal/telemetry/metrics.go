package telemetry

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics holds the metric instruments of the login and guard paths.
type AuthMetrics struct {
	LoginCounter metric.Int64Counter // Login attempts by flow and outcome
	AuthzCounter metric.Int64Counter // Guard decisions by procedure and result
}

// NewAuthMetrics creates the instruments from the global meter provider.
func NewAuthMetrics() (*AuthMetrics, error) {
	meter := otel.Meter("rmcsapi/iam")

	logins, err := meter.Int64Counter(
		"rmcs.login.count",
		metric.WithDescription("Login attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	decisions, err := meter.Int64Counter(
		"rmcs.authz.decision.count",
		metric.WithDescription("Authorization guard decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{LoginCounter: logins, AuthzCounter: decisions}, nil
}

var (
	authMetricsOnce sync.Once
	authMetrics     *AuthMetrics
)

func defaultAuthMetrics() *AuthMetrics {
	authMetricsOnce.Do(func() {
		m, err := NewAuthMetrics()
		if err != nil {
			log.Printf("telemetry: auth metrics disabled: %v", err)
			return
		}
		authMetrics = m
	})
	return authMetrics
}

// RecordLogin counts one login attempt of the given flow.
func RecordLogin(ctx context.Context, flow string, err error) {
	m := defaultAuthMetrics()
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.LoginCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrLoginFlow, flow),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordAuthorization counts one guard decision.
func RecordAuthorization(ctx context.Context, procedure string, allowed bool) {
	m := defaultAuthMetrics()
	if m == nil {
		return
	}
	m.AuthzCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrProcedure, procedure),
		attribute.Bool(AttrAllowed, allowed),
	))
}
