package parking

import (
	"context"
	"time"
)

const (
	EventTicketOpened = "ticket.opened"
	EventTicketClosed = "ticket.closed"
	EventAdmitRefused = "admission.refused"
)

// TicketEvent describes a change to the lot for downstream subscribers.
type TicketEvent struct {
	Type          string    `json:"type"`
	TicketID      string    `json:"ticket_id,omitempty"`
	Plate         string    `json:"plate"`
	Category      string    `json:"category,omitempty"`
	SlotNumber    int       `json:"slot_number,omitempty"`
	DurationHours int       `json:"duration_hours,omitempty"`
	Fee           float64   `json:"fee,omitempty"`
	Available     int       `json:"available"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event TicketEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, TicketEvent) error { return nil }
