package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-lot-billing/internal/parking"
)

// chdir moves into an empty directory so no stray .env or config.yaml leaks in.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Lot.Capacity)
	assert.Equal(t, "offpeak", cfg.Lot.PricingPolicy)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Server.ReceiptTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Telemetry.Enabled)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, parking.OffPeak, policy)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := chdir(t)
	path := writeFile(t, dir, "lot.yaml", `
lot:
  capacity: 50
  pricing_policy: weekend
server:
  port: 9090
  receipt_ttl_seconds: 60
log:
  level: debug
`)

	t.Setenv("PARKING_CAPACITY", "75")
	t.Setenv("RATE_LIMIT_PER_SEC", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.Lot.Capacity)
	assert.Equal(t, "weekend", cfg.Lot.PricingPolicy)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Server.RateLimitPerSec)
	assert.Equal(t, time.Minute, cfg.Server.ReceiptTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	writeFile(t, dir, ".env", "PARKING_PRICING_POLICY=peak\nAPP_PORT=7000\n")
	t.Cleanup(func() {
		os.Unsetenv("PARKING_PRICING_POLICY")
		os.Unsetenv("APP_PORT")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "peak", cfg.Lot.PricingPolicy)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		env     map[string]string
		missing bool
		wantIs  error
	}{
		{name: "explicit file missing", missing: true},
		{name: "zero capacity", yaml: "lot:\n  capacity: 0\n", wantIs: parking.ErrInvalidCapacity},
		{name: "bad policy", env: map[string]string{"PARKING_PRICING_POLICY": "holiday"}, wantIs: parking.ErrInvalidPricingPolicy},
		{name: "bad int env", env: map[string]string{"APP_PORT": "eighty"}},
		{name: "unknown yaml field", yaml: "lot:\n  levels: 3\n"},
		{name: "port out of range", yaml: "server:\n  port: 70000\n"},
		{name: "capacity above maximum", yaml: "lot:\n  capacity: 10001\n", wantIs: parking.ErrInvalidCapacity},
		{name: "zero burst with rate limit", env: map[string]string{"RATE_LIMIT_BURST": "0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := chdir(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(dir, "absent.yaml")
			if !tc.missing {
				path = writeFile(t, dir, "lot.yaml", tc.yaml+"\n")
			}

			_, err := Load(path)
			require.Error(t, err)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
		})
	}
}
