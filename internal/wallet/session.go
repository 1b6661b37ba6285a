// Package wallet owns the wallet session lifecycle: connecting through a
// WalletProvider, holding the resulting snapshot, and gating signing
// operations on connection state.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// Session wraps a WalletProvider into a stable WalletInfo snapshot with an
// explicit lifecycle. It is created on mount and disposed on teardown rather
// than living as an ambient singleton.
type Session struct {
	provider domain.WalletProvider
	logger   *slog.Logger

	mu   sync.RWMutex
	info domain.WalletInfo
}

// NewSession creates a Session for the given provider. provider may be nil,
// in which case Connect fails with domain.ErrProviderUnavailable.
func NewSession(provider domain.WalletProvider, logger *slog.Logger) *Session {
	return &Session{
		provider: provider,
		logger:   logger.With(slog.String("component", "wallet_session")),
		info:     domain.DisconnectedWallet(),
	}
}

// Connect requests a connection through the provider and stores the
// resulting snapshot as current session state. User rejection surfaces as
// domain.ErrConnectionRejected; every other provider failure wraps
// domain.ErrConnectionFailed with the provider's message.
func (s *Session) Connect(ctx context.Context) (domain.WalletInfo, error) {
	if s.provider == nil {
		return domain.DisconnectedWallet(), domain.ErrProviderUnavailable
	}

	info, err := s.provider.Connect(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrConnectionRejected) || errors.Is(err, domain.ErrProviderUnavailable) {
			return domain.DisconnectedWallet(), err
		}
		return domain.DisconnectedWallet(), fmt.Errorf("%w: %s", domain.ErrConnectionFailed, err.Error())
	}

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "wallet connected",
		slog.String("address", info.Address),
		slog.Int64("chain_id", info.ChainID),
	)

	return info, nil
}

// Disconnect clears session state unconditionally. It never fails and is
// idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	wasConnected := s.info.IsConnected
	s.info = domain.DisconnectedWallet()
	s.mu.Unlock()

	if wasConnected {
		s.logger.Info("wallet disconnected")
	}
}

// Info returns the current snapshot. It never fails; before the first
// successful Connect it returns the disconnected sentinel.
func (s *Session) Info() domain.WalletInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// SignMessage signs a personal message through the provider. Requires a
// connected session.
func (s *Session) SignMessage(ctx context.Context, message []byte) (string, error) {
	if !s.Info().IsConnected {
		return "", domain.ErrNotConnected
	}
	sig, err := s.provider.SignMessage(ctx, message)
	if err != nil {
		return "", fmt.Errorf("wallet: sign message: %w", err)
	}
	return sig, nil
}

// SignTypedData signs an EIP-712 payload through the provider. Requires a
// connected session.
func (s *Session) SignTypedData(ctx context.Context, dom domain.TypedDataDomain, types map[string][]domain.TypedDataField, value map[string]any) (string, error) {
	if !s.Info().IsConnected {
		return "", domain.ErrNotConnected
	}
	sig, err := s.provider.SignTypedData(ctx, dom, types, value)
	if err != nil {
		return "", fmt.Errorf("wallet: sign typed data: %w", err)
	}
	return sig, nil
}
