package parking

import "errors"

var (
	ErrCapacityExceeded     = errors.New("parking lot is full")
	ErrAlreadyParked        = errors.New("vehicle is already parked")
	ErrNotParked            = errors.New("vehicle is not parked")
	ErrInvalidCategory      = errors.New("invalid vehicle category")
	ErrInvalidPlate         = errors.New("invalid license plate")
	ErrInvalidPricingPolicy = errors.New("invalid pricing policy")
	ErrInvalidCapacity      = errors.New("capacity must be greater than zero")
	ErrTicketClosed         = errors.New("ticket is already closed")
)

// Stable machine-readable codes, used as metric labels and in API responses.
const (
	CodeCapacityExceeded     = "capacity_exceeded"
	CodeAlreadyParked        = "already_parked"
	CodeNotParked            = "not_parked"
	CodeInvalidCategory      = "invalid_category"
	CodeInvalidPlate         = "invalid_plate"
	CodeInvalidPricingPolicy = "invalid_pricing_policy"
	CodeInvalidCapacity      = "invalid_capacity"
	CodeTicketClosed         = "ticket_closed"
	CodeInternal             = "internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrCapacityExceeded, CodeCapacityExceeded},
	{ErrAlreadyParked, CodeAlreadyParked},
	{ErrNotParked, CodeNotParked},
	{ErrInvalidCategory, CodeInvalidCategory},
	{ErrInvalidPlate, CodeInvalidPlate},
	{ErrInvalidPricingPolicy, CodeInvalidPricingPolicy},
	{ErrInvalidCapacity, CodeInvalidCapacity},
	{ErrTicketClosed, CodeTicketClosed},
}

// ErrorCode returns the code for a domain error, or CodeInternal.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// ErrorForCode is the inverse of ErrorCode. It returns nil for unknown codes.
func ErrorForCode(code string) error {
	for _, ec := range errorCodes {
		if ec.code == code {
			return ec.err
		}
	}
	return nil
}
