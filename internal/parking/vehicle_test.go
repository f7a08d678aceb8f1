package parking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleCategoryRate(t *testing.T) {
	testCases := []struct {
		category VehicleCategory
		want     float64
	}{
		{Car, 7},
		{Bike, 3},
		{Truck, 10},
		{VehicleCategory(0), 0},
		{VehicleCategory(42), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.category.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.category.Rate())
		})
	}
}

func TestParseVehicleCategory(t *testing.T) {
	testCases := []struct {
		input   string
		want    VehicleCategory
		wantErr bool
	}{
		{input: "car", want: Car},
		{input: "Bike", want: Bike},
		{input: " TRUCK ", want: Truck},
		{input: "bus", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseVehicleCategory(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewVehicle(t *testing.T) {
	v, err := NewVehicle(Truck, "TRK-001")
	require.NoError(t, err)
	assert.Equal(t, "TRK-001", v.Plate)
	assert.Equal(t, Truck, v.Category)
	assert.Equal(t, 10.0, v.Rate())

	_, err = NewVehicle(VehicleCategory(9), "X1")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = NewVehicle(Car, "   ")
	assert.ErrorIs(t, err, ErrInvalidPlate)
}

func TestVehicleCategoryJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Category VehicleCategory `json:"category"`
	}{Bike})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"bike"}`, string(out))

	var in struct {
		Category VehicleCategory `json:"category"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"category":"Truck"}`), &in))
	assert.Equal(t, Truck, in.Category)

	err = json.Unmarshal([]byte(`{"category":"tank"}`), &in)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
