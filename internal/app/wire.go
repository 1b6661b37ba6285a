package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	s3blob "github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/blob/s3"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/cache/redis"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/config"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/crypto"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/lifecycle"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/notify"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/orchestrator"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/platform/hyperliquid"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/poller"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/store/postgres"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/wallet"
)

// Dependencies bundles everything the modes need. Optional backends stay nil
// when their config section is disabled; the core trading loop runs without
// them.
type Dependencies struct {
	// Core trading loop.
	Provider     *wallet.LocalProvider
	Session      *wallet.Session
	Venue        *hyperliquid.Client
	Poller       *poller.Poller
	Orchestrator *orchestrator.Orchestrator
	Lifecycle    *lifecycle.Manager

	// Telemetry side channels.
	RedisClient  *redis.Client
	SignalBus    domain.SignalBus
	RateLimiter  domain.RateLimiter
	PgClient     *postgres.Client
	AuditStore   domain.OrderAuditStore
	SettledStore domain.SettledPositionStore
	Archiver     domain.Archiver
	Notifier     *notify.Notifier
}

// Wire constructs every configured dependency and returns them with a
// cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Redis: signal bus, position cache, rate limiter.
	var positionCache domain.PositionCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RedisClient = redisClient
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		positionCache = redis.NewPositionCache(redisClient, 5*time.Minute)
	}

	// Postgres: order audit and settled-position history.
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.PgClient = pgClient
		deps.AuditStore = postgres.NewOrderAuditStore(pgClient.Pool())
		deps.SettledStore = postgres.NewSettledPositionStore(pgClient.Pool())
	}

	// S3: settled-position archive.
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		if deps.SettledStore != nil {
			deps.Archiver = s3blob.NewArchiver(
				deps.SettledStore,
				s3blob.NewWriter(s3Client),
				cfg.Archive.Prune,
				logger,
			)
		}
	}

	// Operator alerts.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.New(senders, cfg.Notify.Events, logger)

	// Archive mode needs no wallet or venue wiring.
	if strings.ToLower(cfg.Mode) == "archive" {
		return deps, cleanup, nil
	}

	privateKey, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: load key: %w", err)
	}

	signer, err := crypto.NewSigner(privateKey, cfg.Wallet.ChainID)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: signer: %w", err)
	}

	stakeSize, err := decimal.NewFromString(cfg.Hyperliquid.StakeSize)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: stake size %q: %w", cfg.Hyperliquid.StakeSize, err)
	}

	deps.Venue = hyperliquid.NewClient(cfg.Hyperliquid.APIHost, signer, stakeSize)
	deps.Provider = wallet.NewLocalProvider(signer, deps.Venue, logger)
	deps.Session = wallet.NewSession(deps.Provider, logger)

	deps.Poller = poller.New(
		deps.Venue,
		deps.SignalBus,
		positionCache,
		cfg.Poller.Interval.Duration,
		logger,
	)

	deps.Orchestrator = orchestrator.New(
		deps.Session,
		deps.Venue,
		deps.Poller,
		deps.AuditStore,
		deps.SignalBus,
		cfg.Poller.RefreshDelay.Duration,
		logger,
	)
	if len(senders) > 0 {
		deps.Orchestrator.SetNotifier(deps.Notifier)
	}

	notifier := deps.Notifier
	deps.Lifecycle = lifecycle.New(
		deps.Provider,
		deps.Orchestrator,
		deps.Poller,
		func() {
			if len(senders) > 0 {
				notifier.WalletReset(context.Background(), "provider account or chain changed")
			}
		},
		logger,
	)

	return deps, cleanup, nil
}
