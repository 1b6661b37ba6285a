package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/crypto"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// Well-known test vector key; never holds funds.
const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testSigner(t *testing.T) *crypto.Signer {
	t.Helper()
	s, err := crypto.NewSigner(testKey, 42161)
	require.NoError(t, err)
	return s
}

type stubBalances struct {
	balance decimal.Decimal
	err     error
}

func (s *stubBalances) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	return s.balance, s.err
}

func TestLocalProviderConnect(t *testing.T) {
	signer := testSigner(t)
	p := NewLocalProvider(signer, &stubBalances{balance: decimal.NewFromInt(250)}, discardLogger())

	info, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, info.IsConnected)
	require.Equal(t, signer.Address().Hex(), info.Address)
	require.EqualValues(t, 42161, info.ChainID)
	require.NotNil(t, info.Balance)
	require.True(t, info.Balance.Equal(decimal.NewFromInt(250)))
}

func TestLocalProviderBalanceFailureIsNotFatal(t *testing.T) {
	p := NewLocalProvider(testSigner(t), &stubBalances{err: errors.New("info endpoint down")}, discardLogger())

	info, err := p.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, info.IsConnected)
	require.Nil(t, info.Balance)
}

func TestSubscribeEventsScopedToContext(t *testing.T) {
	p := NewLocalProvider(testSigner(t), nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	events, err := p.SubscribeEvents(ctx)
	require.NoError(t, err)

	p.SwitchChain(1)
	select {
	case ev := <-events:
		require.Equal(t, domain.WalletEventChainChanged, ev.Type)
		require.EqualValues(t, 1, ev.ChainID)
	case <-time.After(time.Second):
		t.Fatal("expected a chainChanged event")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-events:
			return !open
		default:
			return false
		}
	}, time.Second, time.Millisecond, "cancelling the context must close the subscription")

	// A post-cancel emit must not reach (or panic on) the closed channel.
	p.SwitchChain(2)
}

func TestReloadKeyEmitsAccountsChanged(t *testing.T) {
	p := NewLocalProvider(testSigner(t), nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := p.SubscribeEvents(ctx)
	require.NoError(t, err)

	next, err := crypto.NewSigner("8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f", 42161)
	require.NoError(t, err)
	p.ReloadKey(next)

	select {
	case ev := <-events:
		require.Equal(t, domain.WalletEventAccountsChanged, ev.Type)
		require.Equal(t, []string{next.Address().Hex()}, ev.Accounts)
	case <-time.After(time.Second):
		t.Fatal("expected an accountsChanged event")
	}
}
