package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the TOML file at path, merges it over the defaults, then
// applies HYPURR_* environment overrides. The result has not been
// validated; call Config.Validate afterwards. An empty path skips the file
// and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides overwrites fields from well-known HYPURR_* variables so
// secrets can be injected at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Wallet.PrivateKey, "HYPURR_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "HYPURR_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "HYPURR_WALLET_KEY_PASSWORD")
	setInt64(&cfg.Wallet.ChainID, "HYPURR_WALLET_CHAIN_ID")

	setStr(&cfg.Hyperliquid.APIHost, "HYPURR_HYPERLIQUID_API_HOST")
	setStr(&cfg.Hyperliquid.StakeSize, "HYPURR_HYPERLIQUID_STAKE_SIZE")

	setBool(&cfg.Postgres.Enabled, "HYPURR_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "HYPURR_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "HYPURR_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "HYPURR_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "HYPURR_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "HYPURR_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "HYPURR_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "HYPURR_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "HYPURR_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "HYPURR_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "HYPURR_POSTGRES_RUN_MIGRATIONS")

	setBool(&cfg.Redis.Enabled, "HYPURR_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "HYPURR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HYPURR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HYPURR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HYPURR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HYPURR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HYPURR_REDIS_TLS_ENABLED")

	setBool(&cfg.S3.Enabled, "HYPURR_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "HYPURR_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HYPURR_S3_REGION")
	setStr(&cfg.S3.Bucket, "HYPURR_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HYPURR_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HYPURR_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "HYPURR_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "HYPURR_S3_FORCE_PATH_STYLE")

	setDuration(&cfg.Poller.Interval, "HYPURR_POLLER_INTERVAL")
	setDuration(&cfg.Poller.RefreshDelay, "HYPURR_POLLER_REFRESH_DELAY")

	setInt(&cfg.Archive.RetentionDays, "HYPURR_ARCHIVE_RETENTION_DAYS")
	setBool(&cfg.Archive.Prune, "HYPURR_ARCHIVE_PRUNE")

	setBool(&cfg.Server.Enabled, "HYPURR_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "HYPURR_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "HYPURR_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "HYPURR_SERVER_API_KEY")
	setInt(&cfg.Server.OrderRateLimit, "HYPURR_SERVER_ORDER_RATE_LIMIT")
	setDuration(&cfg.Server.OrderRateWindow, "HYPURR_SERVER_ORDER_RATE_WINDOW")

	setStr(&cfg.Notify.TelegramToken, "HYPURR_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HYPURR_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HYPURR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "HYPURR_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "HYPURR_MODE")
	setStr(&cfg.LogLevel, "HYPURR_LOG_LEVEL")
}

// Typed helpers. Each mutates the target only when the variable is set and
// parses cleanly.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
