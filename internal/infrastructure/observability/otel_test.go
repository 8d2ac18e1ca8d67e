package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"media-server/internal/infrastructure/observability"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestStartSpanEmitsThroughGlobalProvider(t *testing.T) {
	recorder := installRecorder(t)

	_, span := observability.StartSpan(context.Background(), "media.create",
		attribute.String("media.mime_type", "image/png"))
	observability.EndSpan(span, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "media.create", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("media.mime_type", "image/png"))
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestEndSpanRecordsError(t *testing.T) {
	recorder := installRecorder(t)

	_, span := observability.StartSpan(context.Background(), "media.get")
	observability.EndSpan(span, errors.New("record missing"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "record missing", ended[0].Status().Description)

	var exceptionEvents int
	for _, event := range ended[0].Events() {
		if event.Name == "exception" {
			exceptionEvents++
		}
	}
	assert.Equal(t, 1, exceptionEvents)
}
