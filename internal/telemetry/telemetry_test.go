package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNoop(t *testing.T) {
	p := NewNoop()
	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())

	_, span := p.Tracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	counter, err := p.Meter().Int64Counter("noop_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		// nothing listens on the default endpoint, so flush errors are expected
		_ = p.Shutdown(context.Background())
	})

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())
}
