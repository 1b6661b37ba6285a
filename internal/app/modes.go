package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/server"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/server/handler"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/server/ws"
)

// ServeMode runs the full stack: poller, lifecycle manager, settlement
// recorder, WebSocket hub, and the HTTP API. It blocks until the context is
// cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	deps.Poller.Start(ctx)
	defer deps.Poller.Stop()

	if err := deps.Lifecycle.Start(ctx); err != nil {
		return err
	}
	defer deps.Lifecycle.Close()

	if deps.SettledStore != nil {
		g.Go(func() error {
			return a.recordSettlements(ctx, deps)
		})
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		srv := a.buildServer(deps, hub)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	} else {
		g.Go(func() error {
			<-ctx.Done()
			return ctx.Err()
		})
	}

	return g.Wait()
}

// PollMode runs the headless loop: poller, lifecycle manager, and the
// settlement recorder, with no HTTP surface.
func (a *App) PollMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting poll mode")

	deps.Poller.Start(ctx)
	defer deps.Poller.Stop()

	if err := deps.Lifecycle.Start(ctx); err != nil {
		return err
	}
	defer deps.Lifecycle.Close()

	if deps.SettledStore != nil {
		return a.recordSettlements(ctx, deps)
	}

	<-ctx.Done()
	return ctx.Err()
}

// ArchiveMode runs one archival pass over settled positions older than the
// retention cutoff and exits.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	if deps.Archiver == nil {
		return fmt.Errorf("app: archive mode requires postgres and s3 to be enabled")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)
	a.logger.InfoContext(ctx, "starting archive pass", slog.Time("cutoff", cutoff))

	archived, err := deps.Archiver.ArchiveSettled(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("app: archive pass: %w", err)
	}

	a.logger.InfoContext(ctx, "archive pass complete", slog.Int64("archived", archived))
	return nil
}

// recordSettlements drains positions the venue client marked completed into
// the settled-position store on each poll interval. The store write happens
// before the in-memory completed set is cleared so a failed insert is
// retried on the next pass.
func (a *App) recordSettlements(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(a.cfg.Poller.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			completed := deps.Venue.CompletedPositions()
			if len(completed) == 0 {
				continue
			}

			ok := true
			for _, pos := range completed {
				if err := deps.SettledStore.Insert(ctx, pos); err != nil {
					a.logger.WarnContext(ctx, "settled position insert failed",
						slog.String("position_id", pos.ID),
						slog.String("error", err.Error()),
					)
					ok = false
				}
			}
			if !ok {
				continue
			}

			if err := deps.Venue.ClearCompletedPositions(ctx); err != nil {
				a.logger.WarnContext(ctx, "clearing completed positions failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			a.logger.InfoContext(ctx, "recorded settled positions", slog.Int("count", len(completed)))
		}
	}
}

// buildServer assembles the HTTP API from the wired dependencies.
func (a *App) buildServer(deps *Dependencies, hub *ws.Hub) *server.Server {
	health := map[string]handler.Pinger{}
	if deps.RedisClient != nil {
		health["redis"] = deps.RedisClient
	}
	if deps.PgClient != nil {
		health["postgres"] = deps.PgClient.Pool()
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(health),
		Status:    handler.NewStatusHandler(deps.Orchestrator, a.cfg.Mode),
		Wallet:    handler.NewWalletHandler(deps.Orchestrator, a.logger),
		Orders:    handler.NewOrderHandler(deps.Orchestrator, deps.AuditStore, a.logger),
		Positions: handler.NewPositionHandler(deps.Poller),
	}

	return server.New(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		OrderRateLimit:  a.cfg.Server.OrderRateLimit,
		OrderRateWindow: a.cfg.Server.OrderRateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)
}
