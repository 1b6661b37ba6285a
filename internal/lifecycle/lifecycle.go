// Package lifecycle wires wallet-provider notifications to orchestration
// resets and guarantees deterministic teardown of timers and subscriptions.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/orchestrator"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/poller"
)

// Manager subscribes to provider account- and chain-change events for the
// lifetime of a session. Both event kinds invalidate the wallet address and
// signature domain assumptions baked into any in-flight order, so both get
// the same treatment: a hard reset, not an incremental reconciliation.
type Manager struct {
	provider domain.WalletProvider
	orch     *orchestrator.Orchestrator
	poller   *poller.Poller
	onReset  func() // host re-initialization hook, may be nil
	logger   *slog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Manager. onReset is invoked after every hard reset so the
// host can re-initialize from scratch; it may be nil.
func New(provider domain.WalletProvider, orch *orchestrator.Orchestrator, p *poller.Poller, onReset func(), logger *slog.Logger) *Manager {
	return &Manager{
		provider: provider,
		orch:     orch,
		poller:   p,
		onReset:  onReset,
		logger:   logger.With(slog.String("component", "lifecycle")),
	}
}

// Start acquires the provider event subscription and begins dispatching.
// The subscription is scoped to an internal context cancelled by Close, so
// it is released on every exit path.
func (m *Manager) Start(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)

	events, err := m.provider.SubscribeEvents(subCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("lifecycle: subscribe provider events: %w", err)
	}

	m.cancel = cancel
	m.done = make(chan struct{})

	go m.dispatch(subCtx, events)
	return nil
}

// dispatch consumes provider events until the subscription channel closes.
func (m *Manager) dispatch(ctx context.Context, events <-chan domain.WalletEvent) {
	defer close(m.done)

	for ev := range events {
		m.logger.InfoContext(ctx, "wallet session invalidated",
			slog.String("event", string(ev.Type)),
		)
		m.reset(ctx)
	}
}

// reset discards all orchestration state, prunes terminal positions, and
// hands control back to the host for re-initialization.
func (m *Manager) reset(ctx context.Context) {
	m.orch.Reset()

	if err := m.poller.ClearCompleted(ctx); err != nil {
		m.logger.WarnContext(ctx, "clear completed positions failed",
			slog.String("error", err.Error()),
		)
	}

	if m.onReset != nil {
		m.onReset()
	}
}

// Close tears the manager down: it cancels the event subscription and stops
// the poller. Safe to call from multiple paths; the teardown runs exactly
// once, and subsequent calls are no-ops.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
		m.poller.Stop()
		m.logger.Info("lifecycle closed")
	})
}
