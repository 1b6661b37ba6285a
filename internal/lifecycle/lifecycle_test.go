package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/orchestrator"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/poller"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/wallet"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventProvider is a WalletProvider whose events are pushed by the test.
type eventProvider struct {
	mu     sync.Mutex
	events chan domain.WalletEvent
}

func newEventProvider() *eventProvider {
	return &eventProvider{events: make(chan domain.WalletEvent, 4)}
}

func (p *eventProvider) Connect(ctx context.Context) (domain.WalletInfo, error) {
	return domain.WalletInfo{Address: "0xabc", IsConnected: true, ChainID: 42161}, nil
}

func (p *eventProvider) Accounts(ctx context.Context) ([]string, error) {
	return []string{"0xabc"}, nil
}

func (p *eventProvider) SignMessage(ctx context.Context, message []byte) (string, error) {
	return "0xsig", nil
}

func (p *eventProvider) SignTypedData(ctx context.Context, dom domain.TypedDataDomain, types map[string][]domain.TypedDataField, value map[string]any) (string, error) {
	return "0xsig", nil
}

func (p *eventProvider) SubscribeEvents(ctx context.Context) (<-chan domain.WalletEvent, error) {
	out := make(chan domain.WalletEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-p.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (p *eventProvider) emit(ev domain.WalletEvent) {
	p.events <- ev
}

type nopStore struct {
	mu      sync.Mutex
	cleared int
}

func (s *nopStore) ActivePositions(ctx context.Context) ([]domain.Position, error) {
	return nil, nil
}

func (s *nopStore) ClearCompletedPositions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return nil
}

func (s *nopStore) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

type nopGateway struct{}

func (nopGateway) PlacePredictionOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	return domain.OrderResult{Success: true, OrderID: "1", Cloid: req.Cloid}, nil
}

type harness struct {
	provider *eventProvider
	store    *nopStore
	orch     *orchestrator.Orchestrator
	poller   *poller.Poller
	manager  *Manager
	resets   *int32mu
}

type int32mu struct {
	mu sync.Mutex
	n  int
}

func (c *int32mu) inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *int32mu) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := discardLogger()

	provider := newEventProvider()
	store := &nopStore{}
	session := wallet.NewSession(provider, logger)
	p := poller.New(store, nil, nil, time.Hour, logger)
	orch := orchestrator.New(session, nopGateway{}, p, nil, nil, 0, logger)

	resets := &int32mu{}
	mgr := New(provider, orch, p, resets.inc, logger)
	t.Cleanup(mgr.Close)

	return &harness{provider: provider, store: store, orch: orch, poller: p, manager: mgr, resets: resets}
}

func TestAccountChangeTriggersHardReset(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.ConnectWallet(context.Background())
	require.NoError(t, err)
	require.True(t, h.orch.State().Wallet.IsConnected)

	require.NoError(t, h.manager.Start(context.Background()))

	h.provider.emit(domain.WalletEvent{Type: domain.WalletEventAccountsChanged, Accounts: []string{"0xother"}})

	require.Eventually(t, func() bool { return h.resets.get() == 1 }, time.Second, time.Millisecond)
	require.False(t, h.orch.State().Wallet.IsConnected, "a provider event invalidates the session")
	require.Equal(t, 1, h.store.clearCount(), "terminal positions are pruned on reset")
}

func TestChainChangeGetsSameTreatment(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.ConnectWallet(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.manager.Start(context.Background()))

	h.provider.emit(domain.WalletEvent{Type: domain.WalletEventChainChanged, ChainID: 1})

	require.Eventually(t, func() bool { return h.resets.get() == 1 }, time.Second, time.Millisecond)
	require.False(t, h.orch.State().Wallet.IsConnected)
}

func TestCloseTearsDownExactlyOnce(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.manager.Start(context.Background()))

	h.poller.Start(context.Background())
	require.True(t, h.poller.Running())

	h.manager.Close()
	require.False(t, h.poller.Running(), "close stops the poller")

	// Second close must not block or panic.
	h.manager.Close()

	// Events emitted after close are ignored; the dispatch loop is gone.
	h.provider.emit(domain.WalletEvent{Type: domain.WalletEventAccountsChanged})
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, h.resets.get())
}
