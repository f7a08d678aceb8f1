package events

import (
	"context"
	"sync"

	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
)

// AuditLog keeps the most recent ticket events and logs each one.
type AuditLog struct {
	mu     sync.RWMutex
	limit  int
	events []parking.TicketEvent
	notify chan struct{}
}

func NewAuditLog(limit int) *AuditLog {
	if limit <= 0 {
		limit = 1000
	}
	return &AuditLog{limit: limit, notify: make(chan struct{}, 1)}
}

func (a *AuditLog) Handle(ctx context.Context, event parking.TicketEvent) error {
	logging.WithContext(ctx).WithFields(map[string]interface{}{
		"event_type": event.Type,
		"plate":      event.Plate,
		"ticket_id":  event.TicketID,
		"available":  event.Available,
	}).Info("ticket event")

	a.mu.Lock()
	a.events = append(a.events, event)
	if len(a.events) > a.limit {
		a.events = a.events[len(a.events)-a.limit:]
	}
	a.mu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (a *AuditLog) Events() []parking.TicketEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]parking.TicketEvent, len(a.events))
	copy(out, a.events)
	return out
}

// Updated is signalled after each recorded event.
func (a *AuditLog) Updated() <-chan struct{} {
	return a.notify
}
