package parking

import (
	"fmt"
	"strings"
)

// PricingPolicy selects the multiplier applied to every fee a lot charges.
type PricingPolicy int

const (
	Peak PricingPolicy = iota + 1
	OffPeak
	Weekend
)

var policyMultipliers = map[PricingPolicy]float64{
	Peak:    1.5,
	OffPeak: 1.0,
	Weekend: 1.2,
}

var policyNames = map[PricingPolicy]string{
	Peak:    "peak",
	OffPeak: "offpeak",
	Weekend: "weekend",
}

var policyAliases = map[string]PricingPolicy{
	"peak":     Peak,
	"1":        Peak,
	"offpeak":  OffPeak,
	"off-peak": OffPeak,
	"off_peak": OffPeak,
	"2":        OffPeak,
	"weekend":  Weekend,
	"3":        Weekend,
}

func (p PricingPolicy) Multiplier() float64 {
	return policyMultipliers[p]
}

func (p PricingPolicy) Valid() bool {
	_, ok := policyMultipliers[p]
	return ok
}

func (p PricingPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// CalculateFee returns hours × rate × multiplier. No rounding is applied.
func (p PricingPolicy) CalculateFee(hours int, rate float64) float64 {
	return float64(hours) * rate * p.Multiplier()
}

func (p PricingPolicy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPricingPolicy, int(p))
	}
	return []byte(p.String()), nil
}

func (p *PricingPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParsePricingPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePricingPolicy accepts policy names and the menu numbers 1, 2 and 3.
func ParsePricingPolicy(s string) (PricingPolicy, error) {
	if p, ok := policyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPricingPolicy, s)
}
