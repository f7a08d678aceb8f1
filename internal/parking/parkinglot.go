package parking

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// BillingSummary is what a caller receives when a vehicle leaves.
type BillingSummary struct {
	TicketID       string    `json:"ticket_id"`
	Plate          string    `json:"plate"`
	Category       string    `json:"category"`
	Policy         string    `json:"pricing_policy"`
	SlotNumber     int       `json:"slot_number"`
	EntryTime      time.Time `json:"entry_time"`
	ExitTime       time.Time `json:"exit_time"`
	DurationHours  int       `json:"duration_hours"`
	Fee            float64   `json:"fee"`
	AvailableAfter int       `json:"available_after"`
}

// MaxCapacity bounds the number of spaces a single lot may hold.
const MaxCapacity = 10000

type Option func(*ParkingLot)

func WithClock(c Clock) Option {
	return func(pl *ParkingLot) {
		if c != nil {
			pl.clock = c
		}
	}
}

// ParkingLot tracks open tickets for a single facility. All methods are
// safe for concurrent use; every check and mutation happens under mu.
type ParkingLot struct {
	mu        sync.Mutex
	capacity  int
	available int
	policy    PricingPolicy
	clock     Clock
	slots     []*Slot
	active    map[string]*Ticket
}

func NewParkingLot(capacity int, policy PricingPolicy, opts ...Option) (*ParkingLot, error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPricingPolicy, policy)
	}

	slots := make([]*Slot, capacity)
	for i := 0; i < capacity; i++ {
		slots[i] = NewSlot(i + 1)
	}

	pl := &ParkingLot{
		capacity:  capacity,
		available: capacity,
		policy:    policy,
		clock:     SystemClock{},
		slots:     slots,
		active:    make(map[string]*Ticket, capacity),
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl, nil
}

// Admit opens a ticket for the vehicle in the lowest free slot.
func (pl *ParkingLot) Admit(vehicle *Vehicle) (*Ticket, error) {
	if vehicle == nil {
		return nil, ErrInvalidPlate
	}
	if err := vehicle.validate(); err != nil {
		return nil, err
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if pl.available == 0 {
		return nil, ErrCapacityExceeded
	}
	if _, ok := pl.active[vehicle.Plate]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyParked, vehicle.Plate)
	}

	slot := pl.freeSlot()
	if slot == nil {
		// available and slots disagree; refuse rather than corrupt state
		return nil, ErrCapacityExceeded
	}

	ticket := NewTicket(vehicle, slot.Number, pl.clock.Now())
	slot.Occupy(ticket)
	pl.active[vehicle.Plate] = ticket
	pl.available--

	copied := *ticket
	return &copied, nil
}

// Release closes the plate's ticket under the lot's policy and frees its slot.
func (pl *ParkingLot) Release(plate string) (*BillingSummary, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	ticket, ok := pl.active[plate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotParked, plate)
	}
	if err := ticket.Close(pl.policy, pl.clock.Now()); err != nil {
		return nil, err
	}

	delete(pl.active, plate)
	pl.slots[ticket.SlotNumber-1].Vacate()
	pl.available++

	return pl.summarize(ticket, *ticket.ExitTime, pl.available), nil
}

// Quote reports what Release would charge right now without changing state.
func (pl *ParkingLot) Quote(plate string) (*BillingSummary, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	ticket, ok := pl.active[plate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotParked, plate)
	}

	preview := *ticket
	now := pl.clock.Now()
	if err := preview.Close(pl.policy, now); err != nil {
		return nil, err
	}
	return pl.summarize(&preview, now, pl.available+1), nil
}

func (pl *ParkingLot) AvailableCount() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.available
}

func (pl *ParkingLot) Capacity() int {
	return pl.capacity
}

func (pl *ParkingLot) Policy() PricingPolicy {
	return pl.policy
}

// Lookup returns a copy of the open ticket for plate.
func (pl *ParkingLot) Lookup(plate string) (*Ticket, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	ticket, ok := pl.active[plate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotParked, plate)
	}
	copied := *ticket
	return &copied, nil
}

// ActiveTickets returns copies of all open tickets ordered by slot number.
func (pl *ParkingLot) ActiveTickets() []Ticket {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	tickets := make([]Ticket, 0, len(pl.active))
	for _, t := range pl.active {
		tickets = append(tickets, *t)
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].SlotNumber < tickets[j].SlotNumber
	})
	return tickets
}

func (pl *ParkingLot) freeSlot() *Slot {
	for _, slot := range pl.slots {
		if !slot.IsOccupied() {
			return slot
		}
	}
	return nil
}

func (pl *ParkingLot) summarize(t *Ticket, exit time.Time, availableAfter int) *BillingSummary {
	return &BillingSummary{
		TicketID:       t.ID,
		Plate:          t.Plate,
		Category:       t.Category.String(),
		Policy:         t.Policy.String(),
		SlotNumber:     t.SlotNumber,
		EntryTime:      t.EntryTime,
		ExitTime:       exit,
		DurationHours:  t.DurationHours,
		Fee:            t.Fee,
		AvailableAfter: availableAfter,
	}
}
