package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// orderPlacer is the slice of the orchestrator the order endpoint drives.
type orderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
}

// OrderHandler serves order submission and the audit trail.
type OrderHandler struct {
	orch   orderPlacer
	audit  domain.OrderAuditStore // optional
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler. audit may be nil; the listing
// endpoint then reports the trail as unavailable.
func NewOrderHandler(orch orderPlacer, audit domain.OrderAuditStore, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orch:   orch,
		audit:  audit,
		logger: logger.With(slog.String("handler", "order")),
	}
}

// placeOrderRequest is the wire form of an order submission. Price travels
// as a string to avoid float rounding on the way in.
type placeOrderRequest struct {
	Asset          string `json:"asset"`
	Direction      string `json:"direction"`
	Price          string `json:"price"`
	TimeWindowSecs int64  `json:"time_window_secs"`
	Cloid          string `json:"cloid,omitempty"`
}

// PlaceOrder submits one order attempt. A venue rejection comes back as 200
// with success=false: the attempt itself worked, the venue said no.
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body placeOrderRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price: "+body.Price)
		return
	}

	req := domain.OrderRequest{
		Asset:      body.Asset,
		Direction:  domain.Direction(body.Direction),
		Price:      price,
		TimeWindow: time.Duration(body.TimeWindowSecs) * time.Second,
		Cloid:      body.Cloid,
	}

	result, err := h.orch.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListRecent returns the most recent order attempts from the audit trail.
// GET /api/orders
func (h *OrderHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusNotImplemented, "order audit trail not configured")
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	attempts, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit listing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "audit listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attempts": attempts,
		"count":    len(attempts),
	})
}
