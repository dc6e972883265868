package httpapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan_WithoutParentIsNonRecording(t *testing.T) {
	ctx := context.Background()

	got, span := startSpan(ctx, "GetPool")
	defer span.End()

	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
	assert.False(t, span.IsRecording())
}

func TestStartSpan_StaysInParentTrace(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	got, span := startSpan(ctx, "ClaimCell")
	defer span.End()

	assert.Equal(t, parent.TraceID(), trace.SpanContextFromContext(got).TraceID())
}

func TestMarkSpanFailed_IgnoresClientErrors(t *testing.T) {
	assert.NotPanics(t, func() {
		markSpanFailed(context.Background(), 400, errors.New("bad input"))
		markSpanFailed(context.Background(), 503, nil)
	})
}
