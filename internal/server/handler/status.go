package handler

import (
	"net/http"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/orchestrator"
)

// stateSource is the slice of the orchestrator the status endpoint reads.
type stateSource interface {
	State() orchestrator.State
	CanPlaceOrder() bool
}

// StatusHandler serves the live orchestration snapshot.
type StatusHandler struct {
	orch stateSource
	mode string
}

// NewStatusHandler creates a StatusHandler reporting the given run mode.
func NewStatusHandler(orch stateSource, mode string) *StatusHandler {
	return &StatusHandler{orch: orch, mode: mode}
}

// GetStatus responds with the recomputed orchestration state and the
// composite submission-allowed flag.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":            h.mode,
		"state":           h.orch.State(),
		"can_place_order": h.orch.CanPlaceOrder(),
	})
}
