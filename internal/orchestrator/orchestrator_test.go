package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/poller"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/wallet"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	info domain.WalletInfo
	err  error
}

func (f *fakeProvider) Connect(ctx context.Context) (domain.WalletInfo, error) {
	if f.err != nil {
		return domain.DisconnectedWallet(), f.err
	}
	return f.info, nil
}

func (f *fakeProvider) Accounts(ctx context.Context) ([]string, error) {
	return []string{f.info.Address}, nil
}

func (f *fakeProvider) SignMessage(ctx context.Context, message []byte) (string, error) {
	return "0xsig", nil
}

func (f *fakeProvider) SignTypedData(ctx context.Context, dom domain.TypedDataDomain, types map[string][]domain.TypedDataField, value map[string]any) (string, error) {
	return "0xsig", nil
}

func (f *fakeProvider) SubscribeEvents(ctx context.Context) (<-chan domain.WalletEvent, error) {
	ch := make(chan domain.WalletEvent)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type fakeGateway struct {
	mu     sync.Mutex
	calls  int
	lastIn domain.OrderRequest
	result domain.OrderResult
	err    error
}

func (f *fakeGateway) PlacePredictionOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastIn = req
	if f.err != nil {
		return domain.OrderResult{}, f.err
	}
	res := f.result
	res.Cloid = req.Cloid
	return res, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGateway) lastRequest() domain.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastIn
}

type fakeStore struct {
	mu        sync.Mutex
	positions []domain.Position
}

func (f *fakeStore) ActivePositions(ctx context.Context) ([]domain.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Position, len(f.positions))
	copy(out, f.positions)
	return out, nil
}

func (f *fakeStore) ClearCompletedPositions(ctx context.Context) error { return nil }

type fakeAudit struct {
	mu       sync.Mutex
	attempts []domain.OrderAttempt
}

func (f *fakeAudit) Insert(ctx context.Context, attempt domain.OrderAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeAudit) ListRecent(ctx context.Context, limit int) ([]domain.OrderAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderAttempt(nil), f.attempts...), nil
}

func (f *fakeAudit) recorded() []domain.OrderAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderAttempt(nil), f.attempts...)
}

type fakeBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messages == nil {
		f.messages = make(map[string][][]byte)
	}
	f.messages[channel] = append(f.messages[channel], payload)
	return nil
}

func (f *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeBus) published(channel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[channel])
}

type fixture struct {
	orch    *Orchestrator
	session *wallet.Session
	poller  *poller.Poller
	gateway *fakeGateway
	store   *fakeStore
	audit   *fakeAudit
	bus     *fakeBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := discardLogger()

	provider := &fakeProvider{info: domain.WalletInfo{
		Address:     "0xabc",
		IsConnected: true,
		ChainID:     42161,
	}}
	session := wallet.NewSession(provider, logger)
	store := &fakeStore{}
	gw := &fakeGateway{result: domain.OrderResult{Success: true, OrderID: "1"}}
	audit := &fakeAudit{}
	bus := &fakeBus{}

	p := poller.New(store, nil, nil, 5*time.Millisecond, logger)
	t.Cleanup(p.Stop)

	orch := New(session, gw, p, audit, bus, time.Millisecond, logger)
	return &fixture{orch: orch, session: session, poller: p, gateway: gw, store: store, audit: audit, bus: bus}
}

func (fx *fixture) connect(t *testing.T) {
	t.Helper()
	_, err := fx.orch.ConnectWallet(context.Background())
	require.NoError(t, err)
}

func TestPlaceOrderRequiresConnection(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset:     "BTC",
		Direction: domain.DirectionUp,
		Price:     decimal.NewFromInt(100),
	})

	require.ErrorIs(t, err, domain.ErrNotConnected)
	require.False(t, result.Success)
	require.Zero(t, fx.gateway.callCount(), "gateway must not be reached without a wallet")
	require.NotEmpty(t, fx.orch.State().OrderError)
}

func TestPlaceOrderValidatesBeforeSubmission(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t)

	_, err := fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset:     "",
		Direction: domain.DirectionUp,
		Price:     decimal.NewFromInt(100),
	})

	require.ErrorIs(t, err, domain.ErrInvalidOrder)
	require.Zero(t, fx.gateway.callCount())
}

func TestPlaceOrderRefusedWhilePositionActive(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t)

	fx.store.mu.Lock()
	fx.store.positions = []domain.Position{{ID: "p1", Asset: "BTC", Status: domain.PositionStatusOpen}}
	fx.store.mu.Unlock()

	fx.poller.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(fx.poller.Positions()) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset:     "ETH",
		Direction: domain.DirectionDown,
		Price:     decimal.NewFromInt(3000),
	})

	require.ErrorIs(t, err, domain.ErrPositionActive)
	require.Zero(t, fx.gateway.callCount())
}

func TestPlaceOrderGatewayFailure(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t)
	fx.gateway.err = errors.New("connection refused")

	result, err := fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset:     "BTC",
		Direction: domain.DirectionUp,
		Price:     decimal.NewFromInt(100),
	})

	require.Error(t, err)
	require.False(t, result.Success)

	st := fx.orch.State()
	require.Contains(t, st.OrderError, "connection refused")
	require.False(t, st.PlacingOrder, "placing flag must clear on failure")
}

func TestPlaceOrderVenueRejection(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t)
	fx.gateway.result = domain.OrderResult{Success: false, Message: "insufficient margin"}

	result, err := fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset:     "BTC",
		Direction: domain.DirectionUp,
		Price:     decimal.NewFromInt(100),
	})

	// A rejection is a completed attempt, not a transport error.
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "insufficient margin", result.Message)
	require.Equal(t, "insufficient margin", fx.orch.State().OrderError)
}

func TestPlaceOrderSuccess(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t)

	// Leave a stale error behind to prove success clears it.
	fx.gateway.err = errors.New("transient")
	_, _ = fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset: "BTC", Direction: domain.DirectionUp, Price: decimal.NewFromInt(100),
	})
	fx.gateway.err = nil
	fx.orch.ClearErrors()

	result, err := fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset:      "BTC",
		Direction:  domain.DirectionUp,
		Price:      decimal.NewFromInt(100),
		TimeWindow: time.Minute,
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.Cloid, "a client order id is assigned when the caller omits one")
	require.Equal(t, result.Cloid, fx.gateway.lastRequest().Cloid)

	st := fx.orch.State()
	require.Empty(t, st.OrderError)
	require.False(t, st.PlacingOrder)

	attempts := fx.audit.recorded()
	require.Len(t, attempts, 2) // failed attempt plus success
	require.True(t, attempts[1].Success)
	require.Equal(t, "0xabc", attempts[1].Wallet)
	require.Equal(t, 2, fx.bus.published("orders"))
}

func TestCanPlaceOrderGate(t *testing.T) {
	fx := newFixture(t)

	require.False(t, fx.orch.CanPlaceOrder(), "disconnected wallet closes the gate")

	fx.connect(t)
	require.True(t, fx.orch.CanPlaceOrder())

	fx.gateway.err = errors.New("boom")
	_, _ = fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset: "BTC", Direction: domain.DirectionUp, Price: decimal.NewFromInt(100),
	})
	require.False(t, fx.orch.CanPlaceOrder(), "recorded error closes the gate")

	fx.orch.ClearErrors()
	require.True(t, fx.orch.CanPlaceOrder())
}

func TestResetReturnsToBaseline(t *testing.T) {
	fx := newFixture(t)
	fx.connect(t)

	fx.gateway.err = errors.New("boom")
	_, _ = fx.orch.PlaceOrder(context.Background(), domain.OrderRequest{
		Asset: "BTC", Direction: domain.DirectionUp, Price: decimal.NewFromInt(100),
	})

	fx.orch.Reset()

	st := fx.orch.State()
	require.False(t, st.Wallet.IsConnected)
	require.Empty(t, st.WalletError)
	require.Empty(t, st.OrderError)
	require.False(t, st.Connecting)
	require.False(t, st.PlacingOrder)
}

func TestConnectWalletRecordsFailure(t *testing.T) {
	logger := discardLogger()
	provider := &fakeProvider{err: domain.ErrConnectionRejected}
	session := wallet.NewSession(provider, logger)
	p := poller.New(&fakeStore{}, nil, nil, time.Second, logger)
	orch := New(session, &fakeGateway{}, p, nil, nil, 0, logger)

	_, err := orch.ConnectWallet(context.Background())
	require.ErrorIs(t, err, domain.ErrConnectionRejected)

	st := orch.State()
	require.NotEmpty(t, st.WalletError)
	require.False(t, st.Connecting)
}
