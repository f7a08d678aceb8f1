package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-lot-billing/internal/api"
	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/server"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := server.NewServer(server.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func fastRetry() Option {
	return WithRetry(3, time.Millisecond)
}

func TestClientLifecycle(t *testing.T) {
	ts := newAPI(t)
	c := New(ts.URL, fastRetry())
	ctx := context.Background()

	lot, err := c.CreateLot(ctx, 2, "weekend")
	require.NoError(t, err)
	assert.Equal(t, 2, lot.Capacity)
	assert.Equal(t, "weekend", lot.PricingPolicy)

	ticket, err := c.Park(ctx, "truck", "TR 42")
	require.NoError(t, err)
	assert.Equal(t, "TR 42", ticket.Plate)
	assert.Equal(t, parking.Truck, ticket.Category)
	assert.Equal(t, 1, ticket.SlotNumber)

	found, err := c.Find(ctx, "TR 42")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, found.ID)

	avail, err := c.Available(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, avail.Available)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Occupied)

	quote, err := c.Quote(ctx, "TR 42")
	require.NoError(t, err)
	assert.Equal(t, 1, quote.DurationHours)

	summary, err := c.Leave(ctx, "TR 42")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DurationHours)
	assert.InDelta(t, 12.0, summary.Fee, 1e-9)
	assert.Equal(t, 2, summary.AvailableAfter)

	receipt, err := c.Receipt(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.TicketID, receipt.TicketID)
}

func TestClientMapsDomainErrors(t *testing.T) {
	ts := newAPI(t)
	c := New(ts.URL, fastRetry())
	ctx := context.Background()

	_, err := c.Park(ctx, "car", "A")
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, api.CodeLotNotCreated, apiErr.Code)

	_, err = c.CreateLot(ctx, 1, "peak")
	require.NoError(t, err)

	_, err = c.Park(ctx, "car", "A")
	require.NoError(t, err)

	_, err = c.Park(ctx, "car", "B")
	assert.ErrorIs(t, err, parking.ErrCapacityExceeded)

	_, err = c.Park(ctx, "car", "A")
	assert.ErrorIs(t, err, parking.ErrCapacityExceeded)

	_, err = c.Leave(ctx, "B")
	assert.ErrorIs(t, err, parking.ErrNotParked)

	_, err = c.Park(ctx, "boat", "C")
	assert.ErrorIs(t, err, parking.ErrInvalidCategory)

	_, err = c.CreateLot(ctx, 0, "peak")
	assert.ErrorIs(t, err, parking.ErrInvalidCapacity)
}

func TestClientDoesNotRetryDomainErrors(t *testing.T) {
	backend := server.NewServer(server.Options{})
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		backend.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL, fastRetry())
	_, err := c.CreateLot(context.Background(), 1, "offpeak")
	require.NoError(t, err)

	_, err = c.Leave(context.Background(), "GHOST")
	assert.ErrorIs(t, err, parking.ErrNotParked)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientRetriesUnavailable(t *testing.T) {
	backend := server.NewServer(server.Options{})
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		backend.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL, fastRetry())
	lot, err := c.CreateLot(context.Background(), 4, "offpeak")
	require.NoError(t, err)
	assert.Equal(t, 4, lot.Capacity)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientGivesUpOnTransportErrors(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(url, fastRetry())
	_, err := c.Available(context.Background())
	require.Error(t, err)
	_, isAPI := IsAPIError(err)
	assert.False(t, isAPI)
}

func TestClientStopsOnCanceledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(ts.URL, WithRetry(5, time.Second))
	_, err := c.Available(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestClientUsesProvidedHTTPClient(t *testing.T) {
	ts := newAPI(t)
	transport := &countingTransport{}

	c := New(ts.URL, fastRetry(), WithHTTPClient(&http.Client{Transport: transport, Timeout: time.Second}))
	_, err := c.CreateLot(context.Background(), 2, "peak")
	require.NoError(t, err)

	avail, err := c.Available(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, avail.Available)
	assert.Equal(t, int32(2), transport.calls.Load())
}
