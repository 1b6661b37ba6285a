package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// walletController is the slice of the orchestrator the wallet endpoints
// drive.
type walletController interface {
	ConnectWallet(ctx context.Context) (domain.WalletInfo, error)
	DisconnectWallet()
	ClearErrors()
}

// WalletHandler serves wallet session management.
type WalletHandler struct {
	orch   walletController
	logger *slog.Logger
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(orch walletController, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		orch:   orch,
		logger: logger.With(slog.String("handler", "wallet")),
	}
}

// Connect drives the wallet session through the provider connection and
// returns the resulting wallet info.
// POST /api/wallet/connect
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	info, err := h.orch.ConnectWallet(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Disconnect tears the wallet session down. Idempotent; always 204.
// POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.orch.DisconnectWallet()
	w.WriteHeader(http.StatusNoContent)
}

// ClearErrors resets the recorded wallet and order errors so the submission
// gate can reopen.
// POST /api/errors/clear
func (h *WalletHandler) ClearErrors(w http.ResponseWriter, r *http.Request) {
	h.orch.ClearErrors()
	w.WriteHeader(http.StatusNoContent)
}
