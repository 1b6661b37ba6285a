// Package orchestrator ties the wallet session, the order gateway, and the
// position poller into the order-placement state machine. It is the single
// point where failures are translated into observable state fields: no error
// escapes as an uncaught failure and none is silently swallowed.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/notify"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/poller"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/wallet"
)

// ordersChannel is the signal-bus channel carrying submission outcomes.
const ordersChannel = "orders"

// State is the derived orchestration snapshot. Nothing in it is
// independently authoritative: every field is an observation of the async
// operations currently in flight, recomputed on each read.
type State struct {
	Connecting      bool              `json:"connecting"`
	PlacingOrder    bool              `json:"placing_order"`
	WalletError     string            `json:"wallet_error,omitempty"`
	OrderError      string            `json:"order_error,omitempty"`
	Wallet          domain.WalletInfo `json:"wallet"`
	ActivePositions []domain.Position `json:"active_positions"`
}

// Orchestrator is the order-placement state machine. Submission is gated by
// single-flight semantics on OPEN POSITIONS, not on the call itself: two
// near-simultaneous PlaceOrder calls with zero open positions can both reach
// the gateway, and the venue arbitrates. That race is accepted behavior.
type Orchestrator struct {
	session      *wallet.Session
	gateway      domain.OrderGateway
	poller       *poller.Poller
	audit        domain.OrderAuditStore // optional
	bus          domain.SignalBus       // optional
	notifier     *notify.Notifier       // optional
	refreshDelay time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	connecting bool
	placing    bool
	walletErr  string
	orderErr   string
}

// New creates an Orchestrator. audit and bus may be nil; they are telemetry
// side channels whose failures never affect orchestration results.
func New(
	session *wallet.Session,
	gateway domain.OrderGateway,
	p *poller.Poller,
	audit domain.OrderAuditStore,
	bus domain.SignalBus,
	refreshDelay time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		session:      session,
		gateway:      gateway,
		poller:       p,
		audit:        audit,
		bus:          bus,
		refreshDelay: refreshDelay,
		logger:       logger.With(slog.String("component", "orchestrator")),
	}
}

// SetNotifier attaches an operator alert channel. Optional; alerts follow
// the same never-perturb rule as the other side channels.
func (o *Orchestrator) SetNotifier(n *notify.Notifier) {
	o.notifier = n
}

// State recomputes the full orchestration snapshot. The active-positions
// list is read live from the poller, never from a cached copy.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	st := State{
		Connecting:   o.connecting,
		PlacingOrder: o.placing,
		WalletError:  o.walletErr,
		OrderError:   o.orderErr,
	}
	o.mu.Unlock()

	st.Wallet = o.session.Info()
	st.ActivePositions = o.poller.Positions()
	return st
}

// CanPlaceOrder recomputes the composite submission-allowed predicate. It
// must not cache: the answer depends on the live poller output.
func (o *Orchestrator) CanPlaceOrder() bool {
	st := o.State()
	return st.Wallet.IsConnected &&
		!st.PlacingOrder &&
		len(st.ActivePositions) == 0 &&
		st.WalletError == "" &&
		st.OrderError == ""
}

// ConnectWallet clears any prior wallet error and drives the session through
// the provider connection. A failure is recorded as the wallet error field
// and also returned for the caller's immediate use.
func (o *Orchestrator) ConnectWallet(ctx context.Context) (domain.WalletInfo, error) {
	o.mu.Lock()
	o.connecting = true
	o.walletErr = ""
	o.mu.Unlock()

	info, err := o.session.Connect(ctx)

	o.mu.Lock()
	o.connecting = false
	if err != nil {
		o.walletErr = err.Error()
	}
	o.mu.Unlock()

	if err != nil {
		o.logger.WarnContext(ctx, "wallet connect failed", slog.String("error", err.Error()))
		return domain.DisconnectedWallet(), err
	}
	return info, nil
}

// DisconnectWallet tears the session down. Idempotent.
func (o *Orchestrator) DisconnectWallet() {
	o.session.Disconnect()
}

// ClearErrors resets the wallet and order error fields, e.g. after the
// caller has surfaced and dismissed them.
func (o *Orchestrator) ClearErrors() {
	o.mu.Lock()
	o.walletErr = ""
	o.orderErr = ""
	o.mu.Unlock()
}

// Reset discards the entire orchestration state and returns to the safe
// baseline: session disconnected, no flags set, no errors recorded. Used by
// the lifecycle manager when the underlying wallet session is invalidated.
func (o *Orchestrator) Reset() {
	o.session.Disconnect()
	o.mu.Lock()
	o.connecting = false
	o.placing = false
	o.walletErr = ""
	o.orderErr = ""
	o.mu.Unlock()
	o.logger.Info("orchestration state reset")
}

// PlaceOrder runs one submission attempt:
//
//  1. fail fast when the wallet is not connected,
//  2. fail fast on structural validation,
//  3. fail fast when any position is still active (the core business gate),
//  4. mark placing, clear the prior order error, submit to the gateway,
//  5. a venue rejection is recorded verbatim as the order error, no retry,
//  6. a success schedules a delayed poller refresh to cover the
//     gateway-to-store propagation lag,
//  7. the placing flag is always cleared on the way out, so no failure mode
//     can leave the gate permanently closed.
func (o *Orchestrator) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	walletInfo := o.session.Info()
	if !walletInfo.IsConnected {
		return o.failOrder(ctx, req, domain.ErrNotConnected)
	}

	if err := ValidateOrder(req); err != nil {
		return o.failOrder(ctx, req, err)
	}

	if len(o.poller.Positions()) > 0 {
		return o.failOrder(ctx, req, domain.ErrPositionActive)
	}

	if req.Cloid == "" {
		req.Cloid = uuid.NewString()
	}

	o.mu.Lock()
	o.placing = true
	o.orderErr = ""
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.placing = false
		o.mu.Unlock()
	}()

	submittedAt := time.Now().UTC()
	result, err := o.gateway.PlacePredictionOrder(ctx, req)
	if err != nil {
		o.recordOutcome(ctx, req, walletInfo.Address, result, submittedAt, err.Error())
		if o.notifier != nil {
			o.notifier.OrderError(ctx, req, err)
		}
		o.mu.Lock()
		o.orderErr = err.Error()
		o.mu.Unlock()
		o.logger.ErrorContext(ctx, "order submission failed",
			slog.String("cloid", req.Cloid),
			slog.String("error", err.Error()),
		)
		return domain.OrderResult{Success: false, Cloid: req.Cloid, Message: err.Error()}, err
	}

	if !result.Success {
		o.recordOutcome(ctx, req, walletInfo.Address, result, submittedAt, result.Message)
		if o.notifier != nil {
			o.notifier.OrderOutcome(ctx, req, result)
		}
		o.mu.Lock()
		o.orderErr = result.Message
		o.mu.Unlock()
		o.logger.WarnContext(ctx, "order rejected by venue",
			slog.String("cloid", req.Cloid),
			slog.String("reason", result.Message),
		)
		return result, nil
	}

	o.recordOutcome(ctx, req, walletInfo.Address, result, submittedAt, "")
	if o.notifier != nil {
		o.notifier.OrderOutcome(ctx, req, result)
	}
	o.mu.Lock()
	o.orderErr = ""
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "order placed",
		slog.String("cloid", req.Cloid),
		slog.String("order_id", result.OrderID),
		slog.Bool("filled", result.Filled),
	)

	// The venue needs a moment to reflect the fill in its position store, so
	// the refresh is delayed rather than synchronous.
	o.poller.RefreshAfter(o.refreshDelay)

	return result, nil
}

// failOrder records a pre-submission failure in the order error field and
// returns it. Every failure path sets a corresponding state field before
// returning control.
func (o *Orchestrator) failOrder(ctx context.Context, req domain.OrderRequest, err error) (domain.OrderResult, error) {
	o.mu.Lock()
	o.orderErr = err.Error()
	o.mu.Unlock()

	o.logger.WarnContext(ctx, "order refused",
		slog.String("asset", req.Asset),
		slog.String("direction", string(req.Direction)),
		slog.String("reason", err.Error()),
	)
	return domain.OrderResult{Success: false, Cloid: req.Cloid, Message: err.Error()}, err
}

// recordOutcome writes the audit row and publishes the submission event.
// Side-channel failures are logged and never surfaced to the caller.
func (o *Orchestrator) recordOutcome(ctx context.Context, req domain.OrderRequest, walletAddr string, result domain.OrderResult, submittedAt time.Time, errMsg string) {
	if o.audit != nil {
		attempt := domain.OrderAttempt{
			Cloid:       req.Cloid,
			Wallet:      walletAddr,
			Asset:       req.Asset,
			Direction:   req.Direction,
			Price:       req.Price,
			TimeWindow:  req.TimeWindow,
			Success:     result.Success,
			OrderID:     result.OrderID,
			Filled:      result.Filled,
			FillPrice:   result.FillPrice,
			Error:       errMsg,
			SubmittedAt: submittedAt,
			SettledAt:   time.Now().UTC(),
		}
		if err := o.audit.Insert(ctx, attempt); err != nil {
			o.logger.WarnContext(ctx, "order audit insert failed",
				slog.String("cloid", req.Cloid),
				slog.String("error", err.Error()),
			)
		}
	}

	if o.bus != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":     "order_settled",
			"cloid":     req.Cloid,
			"asset":     req.Asset,
			"direction": string(req.Direction),
			"success":   result.Success,
			"order_id":  result.OrderID,
			"filled":    result.Filled,
			"error":     errMsg,
		})
		if err := o.bus.Publish(ctx, ordersChannel, evt); err != nil {
			o.logger.WarnContext(ctx, "order event publish failed",
				slog.String("cloid", req.Cloid),
				slog.String("error", err.Error()),
			)
		}
	}
}
