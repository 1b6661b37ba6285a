package handler

import (
	"net/http"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// positionSource is the slice of the poller the position endpoint reads.
type positionSource interface {
	Positions() []domain.Position
	Running() bool
}

// PositionHandler serves the live position snapshot.
type PositionHandler struct {
	poller positionSource
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(poller positionSource) *PositionHandler {
	return &PositionHandler{poller: poller}
}

// ListPositions returns the poller's current snapshot. The list is the
// poller's last full replace, not a live venue query.
// GET /api/positions
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions := h.poller.Positions()
	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"positions": positions,
		"count":     len(positions),
		"polling":   h.poller.Running(),
	})
}
