// Package server exposes the orchestration core over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/server/handler"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/server/middleware"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables auth

	// Order submissions per client per window; zero disables the limiter.
	OrderRateLimit  int
	OrderRateWindow time.Duration
}

// Handlers aggregates the route handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Wallet    *handler.WalletHandler
	Orders    *handler.OrderHandler
	Positions *handler.PositionHandler
}

// Server is the headless HTTP + WebSocket API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New registers all routes and builds the middleware chain: CORS outermost,
// then request logging, then auth. The order submission route additionally
// carries the rate limiter when one is supplied.
func New(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Liveness stays outside auth so load balancers can probe it.
	mux.HandleFunc("GET /healthz", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	mux.HandleFunc("POST /api/wallet/connect", handlers.Wallet.Connect)
	mux.HandleFunc("POST /api/wallet/disconnect", handlers.Wallet.Disconnect)
	mux.HandleFunc("POST /api/errors/clear", handlers.Wallet.ClearErrors)

	var placeOrder http.Handler = http.HandlerFunc(handlers.Orders.PlaceOrder)
	if limiter != nil && cfg.OrderRateLimit > 0 {
		placeOrder = middleware.RateLimit(limiter, cfg.OrderRateLimit, cfg.OrderRateWindow)(placeOrder)
	}
	mux.Handle("POST /api/orders", placeOrder)
	mux.HandleFunc("GET /api/orders", handlers.Orders.ListRecent)

	mux.HandleFunc("GET /api/positions", handlers.Positions.ListPositions)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
