package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

type recordedAlert struct {
	title   string
	message string
}

type fakeSender struct {
	name string
	err  error
	sent []recordedAlert
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	f.sent = append(f.sent, recordedAlert{title: title, message: message})
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func upOrder() domain.OrderRequest {
	return domain.OrderRequest{
		Asset:      "BTC",
		Direction:  domain.DirectionUp,
		Price:      decimal.NewFromInt(65000),
		TimeWindow: time.Minute,
	}
}

func TestOrderOutcomeFilled(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := New([]Sender{s}, nil, discardLogger())

	n.OrderOutcome(context.Background(), upOrder(), domain.OrderResult{
		Success:   true,
		Filled:    true,
		OrderID:   "42",
		FillPrice: decimal.NewFromInt(64990),
	})

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Order filled", s.sent[0].title)
	assert.Contains(t, s.sent[0].message, "BTC")
	assert.Contains(t, s.sent[0].message, "64990")
	assert.Contains(t, s.sent[0].message, "oid 42")
}

func TestOrderOutcomeResting(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := New([]Sender{s}, nil, discardLogger())

	n.OrderOutcome(context.Background(), upOrder(), domain.OrderResult{Success: true, OrderID: "7"})

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Order resting", s.sent[0].title)
}

func TestOrderOutcomeRejected(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := New([]Sender{s}, nil, discardLogger())

	n.OrderOutcome(context.Background(), upOrder(), domain.OrderResult{
		Success: false,
		Message: "insufficient margin",
	})

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Order rejected", s.sent[0].title)
	assert.Contains(t, s.sent[0].message, "insufficient margin")
}

func TestOrderError(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := New([]Sender{s}, nil, discardLogger())

	n.OrderError(context.Background(), upOrder(), errors.New("gateway timeout"))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Order failed", s.sent[0].title)
	assert.Contains(t, s.sent[0].message, "gateway timeout")
}

func TestWalletReset(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := New([]Sender{s}, nil, discardLogger())

	n.WalletReset(context.Background(), "account changed")

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Wallet session reset", s.sent[0].title)
	assert.Equal(t, "account changed", s.sent[0].message)
}

func TestEventFilter(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := New([]Sender{s}, []string{EventOrderFailed}, discardLogger())

	// Filled is filtered out, the failure goes through.
	n.OrderOutcome(context.Background(), upOrder(), domain.OrderResult{Success: true, Filled: true})
	n.OrderError(context.Background(), upOrder(), errors.New("boom"))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Order failed", s.sent[0].title)
}

func TestFailingSenderDoesNotBlockOthers(t *testing.T) {
	broken := &fakeSender{name: "broken", err: errors.New("webhook 500")}
	healthy := &fakeSender{name: "healthy"}
	n := New([]Sender{broken, healthy}, nil, discardLogger())

	n.WalletReset(context.Background(), "chain changed")

	assert.Len(t, broken.sent, 1)
	assert.Len(t, healthy.sent, 1)
}
