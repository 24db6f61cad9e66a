package tracing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/revenue/metrics"),
		attribute.String("stripe.secret_key", "sk_live"),
		attribute.String("customer.email", "ana@example.com"),
	)

	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorKeepsOuterMessage(t *testing.T) {
	err := fmt.Errorf("list invoices: %w", errors.New("card_declined for ana@example.com"))

	assert.EqualError(t, SafeError(err), "list invoices")
	assert.NoError(t, SafeError(nil))
}

func TestStartSourceSpanRecordsFailure(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSourceSpan(context.Background(), "stripe")
	EndSpan(span, errors.New("timeout"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "fetch stripe", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(2))
	assert.Equal(t, 0.25, clampRatio(0.25))
}
