package server

import (
	"time"

	"github.com/patrickmn/go-cache"

	"parking-lot-billing/internal/parking"
)

// ReceiptStore keeps billing summaries of closed tickets for a limited time
// so they can be fetched again by ticket ID.
type ReceiptStore struct {
	cache *cache.Cache
}

func NewReceiptStore(ttl time.Duration) *ReceiptStore {
	return &ReceiptStore{cache: cache.New(ttl, ttl*2)}
}

func (s *ReceiptStore) Put(summary *parking.BillingSummary) {
	s.cache.Set(summary.TicketID, *summary, cache.DefaultExpiration)
}

func (s *ReceiptStore) Get(ticketID string) (*parking.BillingSummary, bool) {
	v, ok := s.cache.Get(ticketID)
	if !ok {
		return nil, false
	}
	summary := v.(parking.BillingSummary)
	return &summary, true
}

func (s *ReceiptStore) Count() int {
	return s.cache.ItemCount()
}
