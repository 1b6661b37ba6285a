package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// positionsKey holds the latest poller snapshot as a JSON document.
const positionsKey = "positions:latest"

// PositionCache mirrors the poller's most recent active-positions snapshot so
// other processes (and the HTTP API in poll-only deployments) can read it
// without querying the venue.
type PositionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPositionCache creates a PositionCache backed by the given Client. A
// non-zero ttl lets snapshots expire when the poller stops publishing.
func NewPositionCache(c *Client, ttl time.Duration) *PositionCache {
	return &PositionCache{rdb: c.Underlying(), ttl: ttl}
}

// SetPositions replaces the cached snapshot with the given list.
func (pc *PositionCache) SetPositions(ctx context.Context, positions []domain.Position) error {
	doc, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("redis: marshal positions: %w", err)
	}
	if err := pc.rdb.Set(ctx, positionsKey, doc, pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set positions: %w", err)
	}
	return nil
}

// GetPositions reads the cached snapshot. It returns domain.ErrNotFound when
// no snapshot has been published (or it expired).
func (pc *PositionCache) GetPositions(ctx context.Context) ([]domain.Position, error) {
	doc, err := pc.rdb.Get(ctx, positionsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get positions: %w", err)
	}

	var positions []domain.Position
	if err := json.Unmarshal(doc, &positions); err != nil {
		return nil, fmt.Errorf("redis: decode positions: %w", err)
	}
	return positions, nil
}

// Compile-time interface check.
var _ domain.PositionCache = (*PositionCache)(nil)
