package parking

type Slot struct {
	Number int
	Ticket *Ticket
}

func NewSlot(number int) *Slot {
	return &Slot{Number: number}
}

func (s *Slot) IsOccupied() bool {
	return s.Ticket != nil
}

func (s *Slot) Occupy(ticket *Ticket) {
	s.Ticket = ticket
}

func (s *Slot) Vacate() *Ticket {
	ticket := s.Ticket
	s.Ticket = nil
	return ticket
}
