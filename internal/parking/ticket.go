package parking

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket records one stay. Exit, duration, fee and policy are set together
// by Close and never change afterwards.
type Ticket struct {
	ID            string          `json:"id"`
	Plate         string          `json:"plate"`
	Category      VehicleCategory `json:"category"`
	SlotNumber    int             `json:"slot_number"`
	EntryTime     time.Time       `json:"entry_time"`
	ExitTime      *time.Time      `json:"exit_time,omitempty"`
	DurationHours int             `json:"duration_hours,omitempty"`
	Fee           float64         `json:"fee,omitempty"`
	Policy        PricingPolicy   `json:"-"`
}

func NewTicket(vehicle *Vehicle, slotNumber int, entry time.Time) *Ticket {
	return &Ticket{
		ID:         uuid.NewString(),
		Plate:      vehicle.Plate,
		Category:   vehicle.Category,
		SlotNumber: slotNumber,
		EntryTime:  entry,
	}
}

func (t *Ticket) Status() TicketStatus {
	if t.ExitTime != nil {
		return TicketClosed
	}
	return TicketOpen
}

func (t *Ticket) IsClosed() bool {
	return t.ExitTime != nil
}

// Close finalizes the ticket at exit under the given policy.
func (t *Ticket) Close(policy PricingPolicy, exit time.Time) error {
	if t.IsClosed() {
		return ErrTicketClosed
	}
	if !policy.Valid() {
		return ErrInvalidPricingPolicy
	}
	hours, fee := t.bill(policy, exit)
	t.ExitTime = &exit
	t.DurationHours = hours
	t.Fee = fee
	t.Policy = policy
	return nil
}

func (t *Ticket) bill(policy PricingPolicy, exit time.Time) (int, float64) {
	hours := BillableHours(exit.Sub(t.EntryTime))
	return hours, policy.CalculateFee(hours, t.Category.Rate())
}

// BillableHours rounds elapsed time to the nearest hour, ties to even,
// with a minimum of one hour.
func BillableHours(elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	hours := int(math.RoundToEven(elapsed.Hours()))
	if hours < 1 {
		return 1
	}
	return hours
}
