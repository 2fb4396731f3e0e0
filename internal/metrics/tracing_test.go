package metrics

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace/noop"
)

// Not parallel: installs the global provider.
func TestInitTracing_ExportsOnShutdown(t *testing.T) {
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	var buf bytes.Buffer
	shutdown, err := InitTracing("folio-test", "1.2.3", &buf)
	require.NoError(t, err)

	ctx, span := otel.Tracer("test").Start(context.Background(), "unit-of-work")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	require.Contains(t, carrier["traceparent"], span.SpanContext().TraceID().String())

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	require.Contains(t, out, `"Name":"unit-of-work"`)
	require.Contains(t, out, "folio-test")
	require.Contains(t, out, "1.2.3")
}
