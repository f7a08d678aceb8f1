package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotOccupyAndVacate(t *testing.T) {
	slot := NewSlot(1)
	assert.Equal(t, 1, slot.Number)
	assert.False(t, slot.IsOccupied())

	ticket := NewTicket(&Vehicle{Plate: "KA01HH1234", Category: Car}, 1, time.Now())
	slot.Occupy(ticket)
	assert.True(t, slot.IsOccupied())
	assert.Same(t, ticket, slot.Ticket)

	vacated := slot.Vacate()
	assert.Same(t, ticket, vacated)
	assert.False(t, slot.IsOccupied())
	assert.Nil(t, slot.Ticket)
}
