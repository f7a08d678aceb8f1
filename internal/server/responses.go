package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"parking-lot-billing/internal/api"
	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
)

var errorStatus = map[string]int{
	parking.CodeCapacityExceeded:     http.StatusConflict,
	parking.CodeAlreadyParked:        http.StatusConflict,
	parking.CodeNotParked:            http.StatusNotFound,
	parking.CodeInvalidCategory:      http.StatusBadRequest,
	parking.CodeInvalidPlate:         http.StatusBadRequest,
	parking.CodeInvalidPricingPolicy: http.StatusBadRequest,
	parking.CodeInvalidCapacity:      http.StatusBadRequest,
	parking.CodeTicketClosed:         http.StatusConflict,
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *api.Meta {
	meta := &api.Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		logging.WithContext(ctx).WithError(err).Error("failed to encode response")
		WriteError(ctx, w, http.StatusInternalServerError, parking.CodeInternal, "Internal server error")
		return
	}
	WriteJSON(w, status, api.Response{
		Success: true,
		Message: message,
		Data:    raw,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, api.Response{
		Success: false,
		Error:   message,
		Code:    code,
		Meta:    extractMeta(ctx),
	})
}

// WriteDomainError maps a parking error to its status and code.
func WriteDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	code := parking.ErrorCode(err)
	status, ok := errorStatus[code]
	if !ok {
		logging.WithContext(ctx).WithError(err).Error("unexpected error")
		WriteError(ctx, w, http.StatusInternalServerError, parking.CodeInternal, "Internal server error")
		return
	}
	WriteError(ctx, w, status, code, err.Error())
}
