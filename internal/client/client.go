package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"parking-lot-billing/internal/api"
	"parking-lot-billing/internal/parking"
)

const basePath = "/api/parking-lot"

// APIError is a failed response from the server. It unwraps to the
// matching parking sentinel, so errors.Is(err, parking.ErrNotParked) works
// on the client side.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

func (e *APIError) Unwrap() error {
	return parking.ErrorForCode(e.Code)
}

type Client struct {
	baseURL         string
	httpClient      *http.Client
	maxTries        uint
	initialInterval time.Duration
	maxInterval     time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how many attempts a call makes and the first backoff wait.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		c.initialInterval = initial
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		maxTries:        3,
		initialInterval: 200 * time.Millisecond,
		maxInterval:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateLot(ctx context.Context, capacity int, policy string) (*api.ParkingLotResponse, error) {
	var out api.ParkingLotResponse
	err := c.do(ctx, http.MethodPost, basePath, api.ParkingLotCreateRequest{
		Capacity:      capacity,
		PricingPolicy: policy,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Park admits a vehicle. A retried request whose first attempt reached the
// server fails with parking.ErrAlreadyParked.
func (c *Client) Park(ctx context.Context, category, plate string) (*parking.Ticket, error) {
	var out parking.Ticket
	err := c.do(ctx, http.MethodPost, basePath+"/park", api.ParkVehicleRequest{
		Plate:    plate,
		Category: category,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leave(ctx context.Context, plate string) (*parking.BillingSummary, error) {
	var out parking.BillingSummary
	if err := c.do(ctx, http.MethodPost, basePath+"/leave", api.LeaveRequest{Plate: plate}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Available(ctx context.Context) (*api.AvailableResponse, error) {
	var out api.AvailableResponse
	if err := c.do(ctx, http.MethodGet, basePath+"/available", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.do(ctx, http.MethodGet, basePath+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Find(ctx context.Context, plate string) (*parking.Ticket, error) {
	var out parking.Ticket
	if err := c.do(ctx, http.MethodGet, basePath+"/find/"+url.PathEscape(plate), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Quote(ctx context.Context, plate string) (*parking.BillingSummary, error) {
	var out parking.BillingSummary
	if err := c.do(ctx, http.MethodGet, basePath+"/quote/"+url.PathEscape(plate), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Receipt(ctx context.Context, ticketID string) (*parking.BillingSummary, error) {
	var out parking.BillingSummary
	if err := c.do(ctx, http.MethodGet, basePath+"/receipts/"+url.PathEscape(ticketID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one API call, retrying transport failures and gateway errors.
// Any answer from the API itself is final.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval

	resp, err := backoff.Retry(ctx, func() (*api.Response, error) {
		return c.attempt(ctx, method, path, payload)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return err
	}

	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (*api.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, backoff.Permanent(ctxErr)
		}
		return nil, err
	}
	defer res.Body.Close()

	if retryableStatus(res.StatusCode) {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("%s %s: %s", method, path, res.Status)
	}

	var decoded api.Response
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode %s %s: %w", method, path, err))
	}

	if res.StatusCode >= http.StatusBadRequest || !decoded.Success {
		return nil, backoff.Permanent(&APIError{
			Status:  res.StatusCode,
			Code:    decoded.Code,
			Message: decoded.Error,
		})
	}
	return &decoded, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsAPIError reports whether err came from the API rather than the transport.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
