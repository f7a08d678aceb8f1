package parking

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/telemetry"
)

// InstrumentedParkingLot wraps a ParkingLot with spans, metrics, logs and
// ticket events. The embedded lot stays the single source of truth.
type InstrumentedParkingLot struct {
	*ParkingLot
	telemetry *telemetry.Provider
	publisher EventPublisher

	admitOperations   metric.Int64Counter
	releaseOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
	revenue           metric.Float64Counter

	// gaugeMu guards the occupancy this lot has added to the shared gauge.
	gaugeMu  sync.Mutex
	occupied int64
	retired  bool
}

func NewInstrumentedParkingLot(lot *ParkingLot, tp *telemetry.Provider, publisher EventPublisher) (*InstrumentedParkingLot, error) {
	if tp == nil {
		tp = telemetry.NewNoop()
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	meter := tp.Meter()

	admitOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of admission attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	releaseOperations, err := meter.Int64Counter("leaving_operations_total",
		metric.WithDescription("Total number of release attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Fees billed on release"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge.Add(context.Background(), int64(lot.Capacity()))
	occupied := int64(lot.Capacity() - lot.AvailableCount())
	if occupied > 0 {
		occupancyGauge.Add(context.Background(), occupied)
	}

	return &InstrumentedParkingLot{
		occupied:          occupied,
		ParkingLot:        lot,
		telemetry:         tp,
		publisher:         publisher,
		admitOperations:   admitOperations,
		releaseOperations: releaseOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
		revenue:           revenue,
	}, nil
}

func (ipl *InstrumentedParkingLot) Admit(ctx context.Context, vehicle *Vehicle) (*Ticket, error) {
	var plate, category string
	if vehicle != nil {
		plate, category = vehicle.Plate, vehicle.Category.String()
	}

	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.admit",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
			attribute.String("vehicle.category", category),
		))
	defer span.End()

	start := time.Now()
	ticket, err := ipl.ParkingLot.Admit(vehicle)
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "admit"),
		attribute.String("vehicle_category", category),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels,
			attribute.String("status", "failed"),
			attribute.String("reason", ErrorCode(err)),
		)
		logging.WithContext(ctx).WithError(err).WithField("plate", plate).Warn("admission refused")
		ipl.publish(ctx, TicketEvent{
			Type:      EventAdmitRefused,
			Plate:     plate,
			Category:  category,
			Available: ipl.ParkingLot.AvailableCount(),
			Reason:    ErrorCode(err),
		})
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.String("ticket.id", ticket.ID),
			attribute.Int("allocated_slot_number", ticket.SlotNumber),
		)
		span.AddEvent("ticket_opened")
		ipl.addOccupancy(ctx, 1)

		available := ipl.ParkingLot.AvailableCount()
		logging.WithContext(ctx).WithFields(map[string]interface{}{
			"plate":     plate,
			"ticket_id": ticket.ID,
			"slot":      ticket.SlotNumber,
			"available": available,
		}).Info("vehicle admitted")
		ipl.publish(ctx, TicketEvent{
			Type:       EventTicketOpened,
			TicketID:   ticket.ID,
			Plate:      plate,
			Category:   category,
			SlotNumber: ticket.SlotNumber,
			Available:  available,
			OccurredAt: ticket.EntryTime,
		})
	}

	ipl.admitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, err
}

func (ipl *InstrumentedParkingLot) Release(ctx context.Context, plate string) (*BillingSummary, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.release",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	start := time.Now()
	summary, err := ipl.ParkingLot.Release(plate)
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "release"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels,
			attribute.String("status", "failed"),
			attribute.String("reason", ErrorCode(err)),
		)
		logging.WithContext(ctx).WithError(err).WithField("plate", plate).Warn("release refused")
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("vehicle_category", summary.Category),
		)
		span.SetAttributes(
			attribute.String("ticket.id", summary.TicketID),
			attribute.Int("billing.duration_hours", summary.DurationHours),
			attribute.Float64("billing.fee", summary.Fee),
		)
		span.AddEvent("ticket_closed")
		ipl.addOccupancy(ctx, -1)
		ipl.revenue.Add(ctx, summary.Fee, metric.WithAttributes(
			attribute.String("vehicle_category", summary.Category),
			attribute.String("pricing_policy", summary.Policy),
		))

		logging.WithContext(ctx).WithFields(map[string]interface{}{
			"plate":          plate,
			"ticket_id":      summary.TicketID,
			"duration_hours": summary.DurationHours,
			"fee":            summary.Fee,
			"available":      summary.AvailableAfter,
		}).Info("vehicle released")
		ipl.publish(ctx, TicketEvent{
			Type:          EventTicketClosed,
			TicketID:      summary.TicketID,
			Plate:         plate,
			Category:      summary.Category,
			SlotNumber:    summary.SlotNumber,
			DurationHours: summary.DurationHours,
			Fee:           summary.Fee,
			Available:     summary.AvailableAfter,
			OccurredAt:    summary.ExitTime,
		})
	}

	ipl.releaseOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return summary, err
}

func (ipl *InstrumentedParkingLot) Quote(ctx context.Context, plate string) (*BillingSummary, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.quote",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	start := time.Now()
	summary, err := ipl.ParkingLot.Quote(plate)
	ipl.recordRead(ctx, span, "quote", start, err)
	return summary, err
}

func (ipl *InstrumentedParkingLot) Lookup(ctx context.Context, plate string) (*Ticket, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.lookup",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	start := time.Now()
	ticket, err := ipl.ParkingLot.Lookup(plate)
	if err == nil {
		span.SetAttributes(attribute.Int("found_slot_number", ticket.SlotNumber))
	}
	ipl.recordRead(ctx, span, "lookup", start, err)
	return ticket, err
}

func (ipl *InstrumentedParkingLot) ActiveTickets(ctx context.Context) []Ticket {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.active_tickets")
	defer span.End()

	start := time.Now()
	tickets := ipl.ParkingLot.ActiveTickets()
	span.SetAttributes(
		attribute.Int("occupied_slots_count", len(tickets)),
		attribute.Int("total_capacity", ipl.Capacity()),
	)
	ipl.recordRead(ctx, span, "active_tickets", start, nil)
	return tickets
}

func (ipl *InstrumentedParkingLot) AvailableCount(ctx context.Context) int {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.available_count")
	defer span.End()

	available := ipl.ParkingLot.AvailableCount()
	span.SetAttributes(attribute.Int("available", available))
	return available
}

func (ipl *InstrumentedParkingLot) recordRead(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	labels := []attribute.KeyValue{attribute.String("operation", op)}
	switch {
	case errors.Is(err, ErrNotParked):
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	default:
		labels = append(labels, attribute.String("status", "success"))
	}
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))
}

func (ipl *InstrumentedParkingLot) publish(ctx context.Context, event TicketEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = ipl.clock.Now()
	}
	if err := ipl.publisher.Publish(ctx, event); err != nil {
		logging.WithContext(ctx).WithError(err).WithField("event_type", event.Type).Error("failed to publish ticket event")
	}
}

func (ipl *InstrumentedParkingLot) addOccupancy(ctx context.Context, delta int64) {
	ipl.gaugeMu.Lock()
	defer ipl.gaugeMu.Unlock()
	if ipl.retired {
		return
	}
	ipl.occupied += delta
	ipl.occupancyGauge.Add(ctx, delta)
}

// Retire withdraws this lot's contribution to the slot and occupancy
// gauges. Call it when the lot is replaced. Operations still running on a
// retired lot no longer touch the gauges, and repeated calls are no-ops.
func (ipl *InstrumentedParkingLot) Retire(ctx context.Context) {
	ipl.gaugeMu.Lock()
	defer ipl.gaugeMu.Unlock()
	if ipl.retired {
		return
	}
	ipl.retired = true
	ipl.totalSlotsGauge.Add(ctx, -int64(ipl.Capacity()))
	if ipl.occupied != 0 {
		ipl.occupancyGauge.Add(ctx, -ipl.occupied)
	}
	ipl.occupied = 0
}
