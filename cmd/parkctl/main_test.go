package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-lot-billing/internal/server"
)

func runCmd(t *testing.T, addr string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-addr", addr}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParkctl(t *testing.T) {
	ts := httptest.NewServer(server.NewServer(server.Options{}).Handler())
	t.Cleanup(ts.Close)

	code, out, _ := runCmd(t, ts.URL, "create", "1", "peak")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "created lot: 1 spaces, peak pricing\n", out)

	code, out, _ = runCmd(t, ts.URL, "park", "car", "ZX-1")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "ZX-1 in space 1")

	code, _, errOut := runCmd(t, ts.URL, "park", "bike", "ZX-2")
	assert.Equal(t, exitError, code)
	assert.Equal(t, "error: the lot is full\n", errOut)

	code, out, _ = runCmd(t, ts.URL, "available")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "0 of 1 spaces available\n", out)

	code, out, _ = runCmd(t, ts.URL, "status")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "1/1 occupied, peak pricing")
	assert.Contains(t, out, "1\tZX-1\tcar")

	code, out, _ = runCmd(t, ts.URL, "leave", "ZX-1")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "ZX-1 (car): 1 hour(s), peak pricing, fee 10.50, 1 spaces available")

	ticketID := out[strings.LastIndex(out, "ticket ")+len("ticket ") : len(out)-1]
	code, out, _ = runCmd(t, ts.URL, "receipt", ticketID)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "fee 10.50")

	code, _, errOut = runCmd(t, ts.URL, "leave", "ZX-1")
	assert.Equal(t, exitError, code)
	assert.Equal(t, "error: that vehicle is not parked\n", errOut)
}

func TestParkctlUsage(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"fly"}},
		{name: "missing plate", args: []string{"park", "car"}},
		{name: "bad capacity", args: []string{"create", "lots"}},
		{name: "bad flag", args: []string{"-nope"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tc.args, &stdout, &stderr)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout.String())
		})
	}
}
