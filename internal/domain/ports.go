package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// WalletProvider is the external wallet/signing capability. Connect and the
// signing calls are the interactive surface; SubscribeEvents delivers
// account- and chain-change notifications on a channel that is closed when
// the subscription context is cancelled, so a handler can never leak across
// a reconnect cycle.
type WalletProvider interface {
	Connect(ctx context.Context) (WalletInfo, error)
	Accounts(ctx context.Context) ([]string, error)
	SignMessage(ctx context.Context, message []byte) (string, error)
	SignTypedData(ctx context.Context, domain TypedDataDomain, types map[string][]TypedDataField, value map[string]any) (string, error)
	SubscribeEvents(ctx context.Context) (<-chan WalletEvent, error)
}

// OrderGateway submits prediction orders to the execution venue. A single
// attempt, no internal retry.
type OrderGateway interface {
	PlacePredictionOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// PositionStore is the venue-side source of truth for open positions.
type PositionStore interface {
	ActivePositions(ctx context.Context) ([]Position, error)
	// ClearCompletedPositions prunes entries that reached a terminal status.
	// Advisory housekeeping: the next full poll replace drops them anyway.
	ClearCompletedPositions(ctx context.Context) error
}

// BalanceSource reads the withdrawable balance for an address.
type BalanceSource interface {
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
}

// SignalBus is a lightweight pub/sub fabric for orchestration events. The
// returned subscription channel is closed when ctx is cancelled.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// PositionCache mirrors the poller's latest snapshot so other processes can
// read it without hitting the venue.
type PositionCache interface {
	SetPositions(ctx context.Context, positions []Position) error
	GetPositions(ctx context.Context) ([]Position, error)
}

// RateLimiter gates request rates per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// OrderAuditStore persists the append-only submission audit trail.
type OrderAuditStore interface {
	Insert(ctx context.Context, attempt OrderAttempt) error
	ListRecent(ctx context.Context, limit int) ([]OrderAttempt, error)
}

// SettledPositionStore persists positions after they leave the active set.
type SettledPositionStore interface {
	Insert(ctx context.Context, pos Position) error
	ListBefore(ctx context.Context, before time.Time) ([]Position, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// BlobWriter uploads objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver exports settled-position history to cold storage.
type Archiver interface {
	ArchiveSettled(ctx context.Context, before time.Time) (int64, error)
}
