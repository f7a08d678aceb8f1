package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/telemetry"
)

const usage = `Commands:
  create_parking_lot <capacity> [peak|offpeak|weekend]
  park <car|bike|truck> <plate>
  leave <plate>
  find <plate>
  quote <plate>
  available
  status
  help
  exit`

// Shell is a line-oriented front end to a parking lot.
type Shell struct {
	lot       *parking.InstrumentedParkingLot
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *telemetry.Provider
	publisher parking.EventPublisher
	clock     parking.Clock
}

type Option func(*Shell)

func WithPublisher(p parking.EventPublisher) Option {
	return func(s *Shell) { s.publisher = p }
}

func WithClock(c parking.Clock) Option {
	return func(s *Shell) { s.clock = c }
}

func WithTelemetry(tp *telemetry.Provider) Option {
	return func(s *Shell) { s.telemetry = tp }
}

func New(in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: telemetry.NewNoop(),
		clock:     parking.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Install creates the lot the shell operates on.
func (s *Shell) Install(capacity int, policy parking.PricingPolicy) error {
	base, err := parking.NewParkingLot(capacity, policy, parking.WithClock(s.clock))
	if err != nil {
		return err
	}
	lot, err := parking.NewInstrumentedParkingLot(base, s.telemetry, s.publisher)
	if err != nil {
		return err
	}
	if s.lot != nil {
		s.lot.Retire(context.Background())
	}
	s.lot = lot
	return nil
}

// Run reads commands until input ends, "exit" is entered or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	for s.scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		done := s.processCommand(cmdCtx, input)
		cmdSpan.End()

		if done {
			return nil
		}
	}
	return s.scanner.Err()
}

func (s *Shell) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))
	logging.WithContext(ctx).WithField("command", command).Debug("shell command")

	switch command {
	case "create_parking_lot":
		s.handleCreateParkingLot(parts)
	case "park":
		s.handlePark(ctx, parts)
	case "leave":
		s.handleLeave(ctx, parts)
	case "find", "slot_number_for_registration_number":
		s.handleFind(ctx, parts)
	case "quote":
		s.handleQuote(ctx, parts)
	case "available":
		s.handleAvailable(ctx)
	case "status":
		s.handleStatus(ctx)
	case "help":
		s.println(usage)
	case "exit", "quit":
		s.println("Goodbye")
		return true
	default:
		s.printf("Unknown command: %s\n", command)
	}
	return false
}

func (s *Shell) handleCreateParkingLot(parts []string) {
	if len(parts) < 2 || len(parts) > 3 {
		s.println("Usage: create_parking_lot <capacity> [peak|offpeak|weekend]")
		return
	}

	capacity, err := strconv.Atoi(parts[1])
	if err != nil || capacity <= 0 || capacity > parking.MaxCapacity {
		s.println("Invalid capacity")
		return
	}

	policy := parking.OffPeak
	if len(parts) == 3 {
		if policy, err = parking.ParsePricingPolicy(parts[2]); err != nil {
			s.printf("Invalid pricing policy: %s (use peak, offpeak or weekend)\n", parts[2])
			return
		}
	}

	if err := s.Install(capacity, policy); err != nil {
		s.printf("Error: %s\n", err)
		return
	}
	s.printf("Created a parking lot with %d spaces (%s pricing)\n", capacity, policy)
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	if !s.ready() {
		return
	}
	if len(parts) != 3 {
		s.println("Usage: park <car|bike|truck> <plate>")
		return
	}

	category, err := parking.ParseVehicleCategory(parts[1])
	if err != nil {
		s.printf("Invalid vehicle category: %s (use car, bike or truck)\n", parts[1])
		return
	}
	vehicle, err := parking.NewVehicle(category, parts[2])
	if err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	ticket, err := s.lot.Admit(ctx, vehicle)
	switch {
	case errors.Is(err, parking.ErrCapacityExceeded):
		s.println("Sorry, parking lot is full")
	case errors.Is(err, parking.ErrAlreadyParked):
		s.printf("Vehicle %s is already parked\n", vehicle.Plate)
	case err != nil:
		s.printf("Error: %s\n", err)
	default:
		s.printf("Allocated space number: %d (ticket %s)\n", ticket.SlotNumber, ticket.ID)
	}
}

func (s *Shell) handleLeave(ctx context.Context, parts []string) {
	if !s.ready() {
		return
	}
	if len(parts) != 2 {
		s.println("Usage: leave <plate>")
		return
	}

	summary, err := s.lot.Release(ctx, parts[1])
	if err != nil {
		s.printError(parts[1], err)
		return
	}
	s.printBill("Bill", summary)
}

func (s *Shell) handleQuote(ctx context.Context, parts []string) {
	if !s.ready() {
		return
	}
	if len(parts) != 2 {
		s.println("Usage: quote <plate>")
		return
	}

	summary, err := s.lot.Quote(ctx, parts[1])
	if err != nil {
		s.printError(parts[1], err)
		return
	}
	s.printBill("Charges so far", summary)
}

func (s *Shell) handleFind(ctx context.Context, parts []string) {
	if !s.ready() {
		return
	}
	if len(parts) != 2 {
		s.println("Usage: find <plate>")
		return
	}

	ticket, err := s.lot.Lookup(ctx, parts[1])
	if err != nil {
		s.println("Not found")
		return
	}
	s.printf("%d\n", ticket.SlotNumber)
}

func (s *Shell) handleAvailable(ctx context.Context) {
	if !s.ready() {
		return
	}
	s.printf("Available spaces: %d of %d\n", s.lot.AvailableCount(ctx), s.lot.Capacity())
}

func (s *Shell) handleStatus(ctx context.Context) {
	if !s.ready() {
		return
	}

	tickets := s.lot.ActiveTickets(ctx)
	if len(tickets) == 0 {
		s.println("Parking lot is empty")
		return
	}

	s.println("Space\tPlate\tCategory\tSince")
	for _, t := range tickets {
		s.printf("%d\t%s\t%s\t%s\n", t.SlotNumber, t.Plate, t.Category, t.EntryTime.Format("2006-01-02 15:04"))
	}
}

func (s *Shell) ready() bool {
	if s.lot == nil {
		s.println("Parking lot not created")
		return false
	}
	return true
}

func (s *Shell) printError(plate string, err error) {
	if errors.Is(err, parking.ErrNotParked) {
		s.printf("Vehicle %s is not parked here\n", plate)
		return
	}
	s.printf("Error: %s\n", err)
}

func (s *Shell) printBill(title string, b *parking.BillingSummary) {
	s.printf("%s for %s (%s): %d hour(s) at %s pricing, fee %.2f. Spaces available: %d\n",
		title, b.Plate, b.Category, b.DurationHours, b.Policy, b.Fee, b.AvailableAfter)
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
