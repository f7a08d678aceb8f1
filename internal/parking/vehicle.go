package parking

import (
	"fmt"
	"strings"
)

// VehicleCategory is the closed set of vehicle kinds the lot accepts.
type VehicleCategory int

const (
	Car VehicleCategory = iota + 1
	Bike
	Truck
)

var hourlyRates = map[VehicleCategory]float64{
	Car:   7,
	Bike:  3,
	Truck: 10,
}

var categoryNames = map[VehicleCategory]string{
	Car:   "car",
	Bike:  "bike",
	Truck: "truck",
}

// Rate returns the hourly rate for the category, or 0 for an unknown one.
func (c VehicleCategory) Rate() float64 {
	return hourlyRates[c]
}

func (c VehicleCategory) Valid() bool {
	_, ok := hourlyRates[c]
	return ok
}

func (c VehicleCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

func (c VehicleCategory) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *VehicleCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicleCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseVehicleCategory accepts "car", "bike" or "truck" in any case.
func ParseVehicleCategory(s string) (VehicleCategory, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

type Vehicle struct {
	Plate    string
	Category VehicleCategory
}

func NewVehicle(category VehicleCategory, plate string) (*Vehicle, error) {
	v := &Vehicle{Plate: plate, Category: category}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vehicle) Rate() float64 {
	return v.Category.Rate()
}

func (v *Vehicle) validate() error {
	if !v.Category.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, v.Category)
	}
	if strings.TrimSpace(v.Plate) == "" {
		return ErrInvalidPlate
	}
	return nil
}
