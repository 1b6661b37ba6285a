// Package notify pushes trading alerts to operator channels. Alerts are
// fanned out to every configured sender and filtered by event kind so an
// operator can subscribe to fills only, failures only, or everything.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// Event kinds emitted by the trading loop.
const (
	EventOrderFilled  = "order_filled"
	EventOrderResting = "order_resting"
	EventOrderFailed  = "order_failed"
	EventWalletReset  = "wallet_reset"
)

// Sender delivers a single alert over one channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans alerts out to its senders. Events holds the allowed event
// kinds; an empty set allows everything. A failing sender never blocks
// delivery to the rest.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// New creates a Notifier delivering to senders, forwarding only the listed
// event kinds (all kinds when the list is empty).
func New(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// OrderOutcome reports the result of an order attempt. Filled and resting
// outcomes map to their own event kinds so operators can mute resting noise.
func (n *Notifier) OrderOutcome(ctx context.Context, req domain.OrderRequest, result domain.OrderResult) {
	switch {
	case !result.Success:
		n.notify(ctx, EventOrderFailed,
			"Order rejected",
			fmt.Sprintf("%s %s @ %s: %s", req.Asset, req.Direction, req.Price, result.Message))
	case result.Filled:
		n.notify(ctx, EventOrderFilled,
			"Order filled",
			fmt.Sprintf("%s %s filled @ %s (oid %s)", req.Asset, req.Direction, result.FillPrice, result.OrderID))
	default:
		n.notify(ctx, EventOrderResting,
			"Order resting",
			fmt.Sprintf("%s %s resting @ %s (oid %s)", req.Asset, req.Direction, req.Price, result.OrderID))
	}
}

// OrderError reports an order attempt that never reached the venue or failed
// in transport.
func (n *Notifier) OrderError(ctx context.Context, req domain.OrderRequest, err error) {
	n.notify(ctx, EventOrderFailed,
		"Order failed",
		fmt.Sprintf("%s %s @ %s: %v", req.Asset, req.Direction, req.Price, err))
}

// WalletReset reports a session teardown caused by a provider event.
func (n *Notifier) WalletReset(ctx context.Context, reason string) {
	n.notify(ctx, EventWalletReset, "Wallet session reset", reason)
}

// notify applies the event filter and dispatches. Delivery failures are
// logged, never surfaced: alerting is a side channel and must not perturb
// the trading path.
func (n *Notifier) notify(ctx context.Context, event, title, message string) {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "alert sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
}
