package httpapi

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("office-pools/internal/interfaces/httpapi")

// startSpan opens "httpapi.Handler.<op>" under the otelhttp request span. Health checks are
// filtered out of tracing, carry no parent and get the non-recording span from ctx.
func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return apiTracer.Start(ctx, "httpapi.Handler."+op)
}

// markSpanFailed flags the active span for responses the server is responsible for.
func markSpanFailed(ctx context.Context, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, http.StatusText(status))
}
