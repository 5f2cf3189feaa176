package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span for a service operation.
//
//	ctx, span := telemetry.StartSpan(ctx, "rmcsapi/services/iam", "iam.api_login",
//	    attribute.String(telemetry.AttrApiID, apiID),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span with optional attributes.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Common attribute keys. Never attach passwords, keys or tokens.
const (
	AttrApiID      = "rmcs.api.id"
	AttrUserID     = "rmcs.user.id"
	AttrLoginFlow  = "rmcs.login.flow"
	AttrLoginState = "rmcs.login.state"
	AttrOutcome    = "rmcs.outcome"

	AttrProcedure = "rpc.procedure"
	AttrAllowed   = "authz.allowed"
)
