package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFee(t *testing.T) {
	testCases := []struct {
		name   string
		policy PricingPolicy
		hours  int
		rate   float64
		want   float64
	}{
		{name: "car 3h off-peak", policy: OffPeak, hours: 3, rate: Car.Rate(), want: 21.0},
		{name: "car 3h peak", policy: Peak, hours: 3, rate: Car.Rate(), want: 31.5},
		{name: "car 3h weekend", policy: Weekend, hours: 3, rate: Car.Rate(), want: 25.2},
		{name: "bike 1h peak", policy: Peak, hours: 1, rate: Bike.Rate(), want: 4.5},
		{name: "truck 5h weekend", policy: Weekend, hours: 5, rate: Truck.Rate(), want: 60.0},
		{name: "zero rate", policy: Peak, hours: 4, rate: 0, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.policy.CalculateFee(tc.hours, tc.rate), 1e-9)
		})
	}
}

func TestParsePricingPolicy(t *testing.T) {
	testCases := []struct {
		input string
		want  PricingPolicy
	}{
		{"peak", Peak},
		{"PEAK", Peak},
		{"1", Peak},
		{"offpeak", OffPeak},
		{"off-peak", OffPeak},
		{"Off_Peak", OffPeak},
		{"2", OffPeak},
		{"weekend", Weekend},
		{"3", Weekend},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParsePricingPolicy(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "4", "holiday"} {
		_, err := ParsePricingPolicy(bad)
		assert.ErrorIs(t, err, ErrInvalidPricingPolicy, bad)
	}
}

func TestPricingPolicyMultiplier(t *testing.T) {
	assert.Equal(t, 1.5, Peak.Multiplier())
	assert.Equal(t, 1.0, OffPeak.Multiplier())
	assert.Equal(t, 1.2, Weekend.Multiplier())
	assert.False(t, PricingPolicy(0).Valid())
	assert.Equal(t, "weekend", Weekend.String())
}
