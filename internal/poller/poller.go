// Package poller runs the recurring position refresh task. It owns the only
// writer of the cached active-positions list: each tick fully replaces the
// published snapshot with the venue's current answer, so stale entries never
// survive a tick that did not return them.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// positionsChannel is the signal-bus channel carrying refreshed snapshots.
const positionsChannel = "positions"

// Poller is a cancellable background task with two states: idle (no timer)
// and polling (timer firing on a fixed interval). Stop is idempotent and
// guarantees that no tick result is applied after it returns, even when a
// query is still in flight — the generation counter discards stale writes.
type Poller struct {
	store    domain.PositionStore
	bus      domain.SignalBus      // optional
	cache    domain.PositionCache  // optional
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	gen       uint64
	cancel    context.CancelFunc
	runCtx    context.Context
	positions []domain.Position
}

// New creates a Poller. bus and cache may be nil; the snapshot is then only
// available through Positions.
func New(store domain.PositionStore, bus domain.SignalBus, cache domain.PositionCache, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		store:    store,
		bus:      bus,
		cache:    cache,
		interval: interval,
		logger:   logger.With(slog.String("component", "position_poller")),
	}
}

// Start transitions the poller from idle to polling. Calling Start while
// already polling is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.gen++
	p.cancel = cancel
	p.runCtx = runCtx
	gen := p.gen
	p.mu.Unlock()

	p.logger.Info("poller started", slog.Duration("interval", p.interval))

	go p.loop(runCtx, gen)
}

// Stop transitions the poller back to idle. It is idempotent, safe to call
// while a tick's query is in flight, and guarantees the published snapshot
// is frozen at its last value once it returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.gen++ // invalidates any in-flight tick result
	cancel := p.cancel
	p.cancel = nil
	p.runCtx = nil
	p.mu.Unlock()

	cancel()
	p.logger.Info("poller stopped")
}

// Running reports whether the poller is in the polling state.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Positions returns a copy of the last published snapshot.
func (p *Poller) Positions() []domain.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Position, len(p.positions))
	copy(out, p.positions)
	return out
}

// RefreshAfter schedules a single out-of-band tick after the given delay.
// The orchestrator uses it to pick up a freshly filled order once the
// gateway-to-store propagation lag has passed. The refresh is suppressed if
// the poller is stopped before the delay elapses.
func (p *Poller) RefreshAfter(delay time.Duration) {
	p.mu.Lock()
	runCtx := p.runCtx
	gen := p.gen
	p.mu.Unlock()

	if runCtx == nil {
		return
	}

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-runCtx.Done():
		case <-timer.C:
			p.tick(runCtx, gen)
		}
	}()
}

// ClearCompleted proactively prunes store entries whose status is terminal.
// Advisory: the next tick's full replace drops them regardless.
func (p *Poller) ClearCompleted(ctx context.Context) error {
	if err := p.store.ClearCompletedPositions(ctx); err != nil {
		return fmt.Errorf("poller: clear completed: %w", err)
	}
	return nil
}

// loop runs an immediate tick and then one per interval until cancelled.
func (p *Poller) loop(ctx context.Context, gen uint64) {
	p.tick(ctx, gen)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, gen)
		}
	}
}

// tick queries the store and applies the result if the poller generation has
// not moved on since the tick was issued.
func (p *Poller) tick(ctx context.Context, gen uint64) {
	positions, err := p.store.ActivePositions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.WarnContext(ctx, "position query failed", slog.String("error", err.Error()))
		}
		return
	}

	p.mu.Lock()
	if !p.running || p.gen != gen {
		// Stopped (or restarted) while the query was in flight; the result
		// must not resurrect a stopped poller's data.
		p.mu.Unlock()
		return
	}
	p.positions = positions
	p.mu.Unlock()

	p.publish(ctx, positions)
}

// publish mirrors a fresh snapshot to the signal bus and the cache. Failures
// are logged and never affect the in-memory snapshot.
func (p *Poller) publish(ctx context.Context, positions []domain.Position) {
	if p.cache != nil {
		if err := p.cache.SetPositions(ctx, positions); err != nil {
			p.logger.WarnContext(ctx, "position cache update failed", slog.String("error", err.Error()))
		}
	}

	if p.bus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event":     "positions_refreshed",
		"count":     len(positions),
		"positions": positions,
	})
	if err != nil {
		return
	}
	if err := p.bus.Publish(ctx, positionsChannel, payload); err != nil {
		p.logger.WarnContext(ctx, "position publish failed", slog.String("error", err.Error()))
	}
}
