package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/telemetry"
)

// DefaultPath is read when no -config flag is given. It may be absent.
const DefaultPath = "config.yaml"

type Config struct {
	Lot       LotConfig       `yaml:"lot"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type LotConfig struct {
	Capacity      int    `yaml:"capacity"`
	PricingPolicy string `yaml:"pricing_policy"`
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	RateLimitPerSec   float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst    int           `yaml:"rate_limit_burst"`
	ReceiptTTLSeconds int           `yaml:"receipt_ttl_seconds"`
	ReceiptTTL        time.Duration `yaml:"-"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Lot: LotConfig{
			Capacity:      300,
			PricingPolicy: parking.OffPeak.String(),
		},
		Server: ServerConfig{
			Port:              8080,
			RateLimitPerSec:   10,
			RateLimitBurst:    20,
			ReceiptTTLSeconds: 24 * 60 * 60,
		},
		Telemetry: TelemetryConfig{
			Enabled:      true,
			ServiceName:  telemetry.DefaultServiceName,
			OTLPEndpoint: telemetry.DefaultOTLPEndpoint,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path,
// a .env file in the working directory and finally the process environment.
// A missing file is only an error when path is not DefaultPath.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	if err := cfg.readFile(path); err != nil {
		if !(errors.Is(err, fs.ErrNotExist) && path == DefaultPath) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.Server.ReceiptTTL = time.Duration(cfg.Server.ReceiptTTLSeconds) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Lot.Capacity, err = envOrInt("PARKING_CAPACITY", c.Lot.Capacity); err != nil {
		return err
	}
	c.Lot.PricingPolicy = envOr("PARKING_PRICING_POLICY", c.Lot.PricingPolicy)

	if c.Server.Port, err = envOrInt("APP_PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Server.RateLimitPerSec, err = envOrFloat("RATE_LIMIT_PER_SEC", c.Server.RateLimitPerSec); err != nil {
		return err
	}
	if c.Server.RateLimitBurst, err = envOrInt("RATE_LIMIT_BURST", c.Server.RateLimitBurst); err != nil {
		return err
	}
	if c.Server.ReceiptTTLSeconds, err = envOrInt("RECEIPT_TTL_SECONDS", c.Server.ReceiptTTLSeconds); err != nil {
		return err
	}

	if c.Telemetry.Enabled, err = envOrBool("OTEL_ENABLED", c.Telemetry.Enabled); err != nil {
		return err
	}
	c.Telemetry.ServiceName = envOr("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)
	c.Telemetry.OTLPEndpoint = envOr("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)

	c.Log.Level = envOr("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("LOG_FORMAT", c.Log.Format)
	return nil
}

func (c *Config) Validate() error {
	if c.Lot.Capacity <= 0 || c.Lot.Capacity > parking.MaxCapacity {
		return fmt.Errorf("lot.capacity: %w", parking.ErrInvalidCapacity)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("lot.pricing_policy: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Server.RateLimitPerSec < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("server rate limit must not be negative")
	}
	if c.Server.RateLimitPerSec > 0 && c.Server.RateLimitBurst < 1 {
		return errors.New("server.rate_limit_burst must be at least 1 when rate limiting is enabled")
	}
	if c.Server.ReceiptTTLSeconds <= 0 {
		return errors.New("server.receipt_ttl_seconds must be positive")
	}
	return nil
}

func (c *Config) Policy() (parking.PricingPolicy, error) {
	return parking.ParsePricingPolicy(c.Lot.PricingPolicy)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envOrFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envOrBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
