package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"parking-lot-billing/internal/client"
	"parking-lot-billing/internal/parking"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usageText = `usage: parkctl [-addr URL] [-timeout D] <command> [args]

commands:
  create <capacity> [policy]   create or replace the lot
  park <category> <plate>      admit a vehicle
  leave <plate>                release a vehicle and print the bill
  quote <plate>                print current charges without releasing
  find <plate>                 show an open ticket
  available                    print free spaces
  status                       list occupied spaces
  receipt <ticket_id>          fetch the bill of a closed ticket
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("parkctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOr("PARKCTL_ADDR", "http://localhost:8080"), "API base URL")
	timeout := fs.Duration("timeout", 10*time.Second, "Overall timeout per command")
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := client.New(*addr, client.WithHTTPClient(&http.Client{Timeout: *timeout}))
	cmd, params := rest[0], rest[1:]

	need := func(n int) bool {
		if len(params) != n {
			fs.Usage()
			return false
		}
		return true
	}

	var err error
	switch cmd {
	case "create":
		if len(params) < 1 || len(params) > 2 {
			fs.Usage()
			return exitUsage
		}
		capacity, convErr := strconv.Atoi(params[0])
		if convErr != nil {
			fmt.Fprintf(stderr, "invalid capacity %q\n", params[0])
			return exitUsage
		}
		policy := ""
		if len(params) == 2 {
			policy = params[1]
		}
		lot, e := c.CreateLot(ctx, capacity, policy)
		if err = e; err == nil {
			fmt.Fprintf(stdout, "created lot: %d spaces, %s pricing\n", lot.Capacity, lot.PricingPolicy)
		}
	case "park":
		if !need(2) {
			return exitUsage
		}
		ticket, e := c.Park(ctx, params[0], params[1])
		if err = e; err == nil {
			fmt.Fprintf(stdout, "ticket %s: %s in space %d\n", ticket.ID, ticket.Plate, ticket.SlotNumber)
		}
	case "leave", "quote":
		if !need(1) {
			return exitUsage
		}
		var summary *parking.BillingSummary
		if cmd == "leave" {
			summary, err = c.Leave(ctx, params[0])
		} else {
			summary, err = c.Quote(ctx, params[0])
		}
		if err == nil {
			printBill(stdout, summary)
		}
	case "find":
		if !need(1) {
			return exitUsage
		}
		ticket, e := c.Find(ctx, params[0])
		if err = e; err == nil {
			fmt.Fprintf(stdout, "%s (%s) in space %d since %s, ticket %s\n",
				ticket.Plate, ticket.Category, ticket.SlotNumber, ticket.EntryTime.Format(time.RFC3339), ticket.ID)
		}
	case "available":
		if !need(0) {
			return exitUsage
		}
		avail, e := c.Available(ctx)
		if err = e; err == nil {
			fmt.Fprintf(stdout, "%d of %d spaces available\n", avail.Available, avail.Capacity)
		}
	case "status":
		if !need(0) {
			return exitUsage
		}
		status, e := c.Status(ctx)
		if err = e; err == nil {
			fmt.Fprintf(stdout, "%d/%d occupied, %s pricing\n", status.Occupied, status.Capacity, status.PricingPolicy)
			for _, slot := range status.Slots {
				if slot.Occupied {
					fmt.Fprintf(stdout, "%d\t%s\t%s\n", slot.SlotNumber, slot.Plate, slot.Category)
				}
			}
		}
	case "receipt":
		if !need(1) {
			return exitUsage
		}
		summary, e := c.Receipt(ctx, params[0])
		if err = e; err == nil {
			printBill(stdout, summary)
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", describe(err))
		return exitError
	}
	return exitOK
}

func printBill(w io.Writer, b *parking.BillingSummary) {
	fmt.Fprintf(w, "%s (%s): %d hour(s), %s pricing, fee %.2f, %d spaces available, ticket %s\n",
		b.Plate, b.Category, b.DurationHours, b.Policy, b.Fee, b.AvailableAfter, b.TicketID)
}

func describe(err error) string {
	switch {
	case errors.Is(err, parking.ErrCapacityExceeded):
		return "the lot is full"
	case errors.Is(err, parking.ErrAlreadyParked):
		return "that vehicle is already parked"
	case errors.Is(err, parking.ErrNotParked):
		return "that vehicle is not parked"
	case errors.Is(err, parking.ErrInvalidCategory):
		return "unknown vehicle category (use car, bike or truck)"
	}
	return err.Error()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
