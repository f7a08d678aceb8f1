package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"parking-lot-billing/internal/api"
	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/telemetry"
)

type Handler struct {
	mu          sync.RWMutex
	lot         *parking.InstrumentedParkingLot
	serviceName string
	telemetry   *telemetry.Provider
	publisher   parking.EventPublisher
	clock       parking.Clock
	receipts    *ReceiptStore
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		serviceName: opts.ServiceName,
		telemetry:   opts.Telemetry,
		publisher:   opts.Publisher,
		clock:       opts.Clock,
		receipts:    NewReceiptStore(opts.ReceiptTTL),
	}
}

func (h *Handler) current() *parking.InstrumentedParkingLot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lot
}

// Install replaces the active lot. Open tickets of the previous lot are dropped.
// Requests that fetched the previous lot before the swap finish against it;
// the retired lot no longer reports to the occupancy gauge.
func (h *Handler) Install(ctx context.Context, capacity int, policy parking.PricingPolicy) (*parking.InstrumentedParkingLot, error) {
	base, err := parking.NewParkingLot(capacity, policy, parking.WithClock(h.clock))
	if err != nil {
		return nil, err
	}
	lot, err := parking.NewInstrumentedParkingLot(base, h.telemetry, h.publisher)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	previous := h.lot
	h.lot = lot
	h.mu.Unlock()

	if previous != nil {
		previous.Retire(ctx)
	}
	return lot, nil
}

// requireLot writes an error and returns nil when no lot has been created.
func (h *Handler) requireLot(w http.ResponseWriter, r *http.Request) *parking.InstrumentedParkingLot {
	lot := h.current()
	if lot == nil {
		WriteError(r.Context(), w, http.StatusBadRequest, api.CodeLotNotCreated, "Parking lot not created. Create parking lot first")
	}
	return lot
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(r.Context(), w, http.StatusBadRequest, api.CodeInvalidRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(r.Context(), w, http.StatusOK, "healthy", api.HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
	})
}

func (h *Handler) CreateParkingLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req api.ParkingLotCreateRequest
	if !decode(w, r, &req) {
		return
	}

	if req.PricingPolicy == "" {
		req.PricingPolicy = parking.OffPeak.String()
	}
	policy, err := parking.ParsePricingPolicy(req.PricingPolicy)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	lot, err := h.Install(ctx, req.Capacity, policy)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	logging.WithContext(ctx).WithField("capacity", lot.Capacity()).WithField("pricing_policy", policy.String()).Info("parking lot created")
	WriteSuccess(ctx, w, http.StatusCreated, "Parking lot created successfully", api.ParkingLotResponse{
		Capacity:      lot.Capacity(),
		PricingPolicy: policy.String(),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.requireLot(w, r)
	if lot == nil {
		return
	}

	var req api.ParkVehicleRequest
	if !decode(w, r, &req) {
		return
	}

	category, err := parking.ParseVehicleCategory(req.Category)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	vehicle, err := parking.NewVehicle(category, strings.TrimSpace(req.Plate))
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	ticket, err := lot.Admit(ctx, vehicle)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusCreated, "Vehicle parked successfully", ticket)
}

func (h *Handler) LeaveLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.requireLot(w, r)
	if lot == nil {
		return
	}

	var req api.LeaveRequest
	if !decode(w, r, &req) {
		return
	}
	plate := strings.TrimSpace(req.Plate)
	if plate == "" {
		WriteDomainError(ctx, w, parking.ErrInvalidPlate)
		return
	}

	summary, err := lot.Release(ctx, plate)
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}
	h.receipts.Put(summary)

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle released", summary)
}

func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.requireLot(w, r)
	if lot == nil {
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Availability retrieved", api.AvailableResponse{
		Available: lot.AvailableCount(ctx),
		Capacity:  lot.Capacity(),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.requireLot(w, r)
	if lot == nil {
		return
	}

	tickets := lot.ActiveTickets(ctx)
	capacity := lot.Capacity()

	slots := make([]api.SlotStatus, capacity)
	for i := range slots {
		slots[i] = api.SlotStatus{SlotNumber: i + 1}
	}
	for i := range tickets {
		t := tickets[i]
		slots[t.SlotNumber-1] = api.SlotStatus{
			SlotNumber: t.SlotNumber,
			Occupied:   true,
			Plate:      t.Plate,
			Category:   t.Category.String(),
			TicketID:   t.ID,
			EntryTime:  &t.EntryTime,
		}
	}

	WriteSuccess(ctx, w, http.StatusOK, "Status retrieved successfully", api.StatusResponse{
		Capacity:      capacity,
		Occupied:      len(tickets),
		Available:     capacity - len(tickets),
		PricingPolicy: lot.Policy().String(),
		Slots:         slots,
	})
}

func (h *Handler) FindByPlate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.requireLot(w, r)
	if lot == nil {
		return
	}

	ticket, err := lot.Lookup(ctx, chi.URLParam(r, "plate"))
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle found", ticket)
}

func (h *Handler) QuoteByPlate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.requireLot(w, r)
	if lot == nil {
		return
	}

	summary, err := lot.Quote(ctx, chi.URLParam(r, "plate"))
	if err != nil {
		WriteDomainError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Current charges", summary)
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, ok := h.receipts.Get(chi.URLParam(r, "ticketID"))
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, api.CodeReceiptNotFound, "Receipt not found")
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Receipt found", summary)
}
