package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillableHours(t *testing.T) {
	testCases := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{name: "zero", elapsed: 0, want: 1},
		{name: "negative", elapsed: -2 * time.Hour, want: 1},
		{name: "20 minutes", elapsed: 20 * time.Minute, want: 1},
		{name: "29 minutes", elapsed: 29 * time.Minute, want: 1},
		{name: "89 minutes", elapsed: 89 * time.Minute, want: 1},
		{name: "90 minutes ties to even", elapsed: 90 * time.Minute, want: 2},
		{name: "150 minutes ties to even", elapsed: 150 * time.Minute, want: 2},
		{name: "210 minutes ties to even", elapsed: 210 * time.Minute, want: 4},
		{name: "2h31m", elapsed: 2*time.Hour + 31*time.Minute, want: 3},
		{name: "3 hours", elapsed: 3 * time.Hour, want: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BillableHours(tc.elapsed))
		})
	}
}

func TestTicketClose(t *testing.T) {
	entry := time.Date(2024, time.March, 9, 8, 0, 0, 0, time.UTC)
	vehicle, err := NewVehicle(Car, "ABC-123")
	require.NoError(t, err)

	ticket := NewTicket(vehicle, 4, entry)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, TicketOpen, ticket.Status())
	assert.Nil(t, ticket.ExitTime)
	assert.Zero(t, ticket.DurationHours)
	assert.Zero(t, ticket.Fee)

	exit := entry.Add(3 * time.Hour)
	require.NoError(t, ticket.Close(Peak, exit))

	assert.Equal(t, TicketClosed, ticket.Status())
	require.NotNil(t, ticket.ExitTime)
	assert.Equal(t, exit, *ticket.ExitTime)
	assert.Equal(t, 3, ticket.DurationHours)
	assert.InDelta(t, 31.5, ticket.Fee, 1e-9)
	assert.Equal(t, Peak, ticket.Policy)
}

func TestTicketCloseTwiceFails(t *testing.T) {
	entry := time.Date(2024, time.March, 9, 8, 0, 0, 0, time.UTC)
	vehicle, err := NewVehicle(Bike, "BK-9")
	require.NoError(t, err)

	ticket := NewTicket(vehicle, 1, entry)
	require.NoError(t, ticket.Close(OffPeak, entry.Add(time.Hour)))

	err = ticket.Close(Peak, entry.Add(5*time.Hour))
	assert.ErrorIs(t, err, ErrTicketClosed)
	assert.Equal(t, 1, ticket.DurationHours)
	assert.InDelta(t, 3.0, ticket.Fee, 1e-9)
	assert.Equal(t, OffPeak, ticket.Policy)
}

func TestTicketCloseInvalidPolicy(t *testing.T) {
	vehicle, err := NewVehicle(Car, "ABC-123")
	require.NoError(t, err)

	ticket := NewTicket(vehicle, 1, time.Now())
	assert.ErrorIs(t, ticket.Close(PricingPolicy(7), time.Now()), ErrInvalidPricingPolicy)
	assert.False(t, ticket.IsClosed())
}

func TestTicketCloseSubHourStay(t *testing.T) {
	entry := time.Date(2024, time.March, 9, 8, 0, 0, 0, time.UTC)
	vehicle, err := NewVehicle(Car, "ABC-123")
	require.NoError(t, err)

	ticket := NewTicket(vehicle, 1, entry)
	require.NoError(t, ticket.Close(OffPeak, entry.Add(20*time.Minute)))
	assert.Equal(t, 1, ticket.DurationHours)
	assert.InDelta(t, 7.0, ticket.Fee, 1e-9)
}
