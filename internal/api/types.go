// Package api holds the JSON shapes exchanged between the HTTP server and
// its clients.
package api

import (
	"encoding/json"
	"time"
)

// Codes for failures that do not come from the parking package.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeLotNotCreated   = "lot_not_created"
	CodeReceiptNotFound = "receipt_not_found"
	CodeRateLimited     = "rate_limited"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Response is the envelope around every API reply.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type ParkingLotCreateRequest struct {
	Capacity      int    `json:"capacity"`
	PricingPolicy string `json:"pricing_policy"`
}

type ParkingLotResponse struct {
	Capacity      int    `json:"capacity"`
	PricingPolicy string `json:"pricing_policy"`
}

type ParkVehicleRequest struct {
	Plate    string `json:"plate"`
	Category string `json:"category"`
}

type LeaveRequest struct {
	Plate string `json:"plate"`
}

type AvailableResponse struct {
	Available int `json:"available"`
	Capacity  int `json:"capacity"`
}

type SlotStatus struct {
	SlotNumber int        `json:"slot_number"`
	Occupied   bool       `json:"occupied"`
	Plate      string     `json:"plate,omitempty"`
	Category   string     `json:"category,omitempty"`
	TicketID   string     `json:"ticket_id,omitempty"`
	EntryTime  *time.Time `json:"entry_time,omitempty"`
}

type StatusResponse struct {
	Capacity      int          `json:"capacity"`
	Occupied      int          `json:"occupied"`
	Available     int          `json:"available"`
	PricingPolicy string       `json:"pricing_policy"`
	Slots         []SlotStatus `json:"slots"`
}
