package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"parking-lot-billing/internal/config"
	"parking-lot-billing/internal/events"
	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/server"
	"parking-lot-billing/internal/shell"
	"parking-lot-billing/internal/telemetry"
)

var (
	mode        = flag.String("mode", "cli", "Mode to run: cli, server, or both")
	port        = flag.Int("port", 0, "Port for HTTP server (overrides config)")
	configPath  = flag.String("config", config.DefaultPath, "Path to YAML config file")
	noTelemetry = flag.Bool("no-telemetry", false, "Disable OTLP export")
)

type app struct {
	cfg       *config.Config
	policy    parking.PricingPolicy
	telemetry *telemetry.Provider
	bus       *events.Bus
}

func main() {
	flag.Parse()
	log := logging.Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format, logOutput(*mode)); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	logging.SetServiceName(cfg.Telemetry.ServiceName)

	policy, err := cfg.Policy()
	if err != nil {
		log.Fatalf("Invalid pricing policy: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tp := telemetry.NewNoop()
	if cfg.Telemetry.Enabled && !*noTelemetry {
		tp, err = telemetry.New(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
	}
	defer shutdownTelemetry(tp)

	bus := events.NewBus(events.NewLoggerAdapter(log))
	defer bus.Close()

	audit := events.NewAuditLog(0)
	if err := bus.Subscribe(ctx, audit.Handle); err != nil {
		log.Fatalf("Failed to subscribe audit log: %v", err)
	}

	a := &app{cfg: cfg, policy: policy, telemetry: tp, bus: bus}

	switch *mode {
	case "cli":
		a.runCLI(ctx)
	case "server":
		a.runServer(ctx)
	case "both":
		a.runBoth(ctx, cancel)
	default:
		log.Fatalf("Invalid mode: %s. Must be cli, server, or both", *mode)
	}
}

// logOutput sends logs to stderr whenever the shell owns stdout.
func logOutput(mode string) io.Writer {
	if mode == "server" {
		return os.Stdout
	}
	return os.Stderr
}

func (a *app) newShell() (*shell.Shell, error) {
	sh := shell.New(os.Stdin, os.Stdout,
		shell.WithTelemetry(a.telemetry),
		shell.WithPublisher(a.bus),
	)
	if err := sh.Install(a.cfg.Lot.Capacity, a.policy); err != nil {
		return nil, err
	}
	return sh, nil
}

func (a *app) newServer(ctx context.Context) (*server.Server, error) {
	srv := server.NewServer(server.Options{
		Port:        a.cfg.Server.Port,
		ServiceName: a.cfg.Telemetry.ServiceName,
		Telemetry:   a.telemetry,
		Publisher:   a.bus,
		RateLimit:   rate.Limit(a.cfg.Server.RateLimitPerSec),
		RateBurst:   a.cfg.Server.RateLimitBurst,
		ReceiptTTL:  a.cfg.Server.ReceiptTTL,
	})
	if err := srv.Install(ctx, a.cfg.Lot.Capacity, a.policy); err != nil {
		return nil, err
	}
	return srv, nil
}

func (a *app) runCLI(ctx context.Context) {
	sh, err := a.newShell()
	if err != nil {
		logging.Errorf(ctx, "Failed to create parking lot: %v", err)
		return
	}
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Errorf(ctx, "Shell error: %v", err)
	}
}

func (a *app) runServer(ctx context.Context) {
	srv, err := a.newServer(ctx)
	if err != nil {
		logging.Errorf(ctx, "Failed to create server: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		stopServer(srv)
	}()

	logging.Infof(ctx, "Starting server mode on port %d", a.cfg.Server.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Errorf(ctx, "Server error: %v", err)
	}
}

func (a *app) runBoth(ctx context.Context, cancel context.CancelFunc) {
	srv, err := a.newServer(ctx)
	if err != nil {
		logging.Errorf(ctx, "Failed to create server: %v", err)
		return
	}
	sh, err := a.newShell()
	if err != nil {
		logging.Errorf(ctx, "Failed to create parking lot: %v", err)
		return
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan error, 1)
	go func() {
		cliDone <- sh.Run(ctx)
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf(ctx, "Server error: %v", err)
		}
	case <-cliDone:
		logging.Info(ctx, "CLI exited")
	case <-ctx.Done():
		logging.Info(ctx, "Received shutdown signal")
	}

	cancel()
	stopServer(srv)
}

func stopServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf(shutdownCtx, "Server shutdown error: %v", err)
	}
}

func shutdownTelemetry(tp *telemetry.Provider) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		logging.Errorf(shutdownCtx, "Error shutting down telemetry: %v", err)
	}
}
