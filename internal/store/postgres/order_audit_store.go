package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// OrderAuditStore implements domain.OrderAuditStore using PostgreSQL.
type OrderAuditStore struct {
	pool *pgxpool.Pool
}

// NewOrderAuditStore creates an OrderAuditStore backed by the given pool.
func NewOrderAuditStore(pool *pgxpool.Pool) *OrderAuditStore {
	return &OrderAuditStore{pool: pool}
}

// Insert appends one submission attempt to the audit trail.
func (s *OrderAuditStore) Insert(ctx context.Context, a domain.OrderAttempt) error {
	const query = `
		INSERT INTO order_audit (
			cloid, wallet, asset, direction, price, window_secs,
			success, order_id, filled, fill_price, error,
			submitted_at, settled_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13
		)`

	var fillPrice *string
	if a.Filled {
		v := a.FillPrice.String()
		fillPrice = &v
	}

	_, err := s.pool.Exec(ctx, query,
		a.Cloid, a.Wallet, a.Asset, string(a.Direction),
		a.Price.String(), int64(a.TimeWindow/time.Second),
		a.Success, a.OrderID, a.Filled, fillPrice, a.Error,
		a.SubmittedAt, a.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert order audit %s: %w", a.Cloid, err)
	}
	return nil
}

// ListRecent returns the most recent attempts, newest first.
func (s *OrderAuditStore) ListRecent(ctx context.Context, limit int) ([]domain.OrderAttempt, error) {
	const query = `
		SELECT cloid, wallet, asset, direction, price, window_secs,
		       success, order_id, filled, fill_price, error,
		       submitted_at, settled_at
		FROM order_audit
		ORDER BY settled_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent order audit: %w", err)
	}
	defer rows.Close()

	var attempts []domain.OrderAttempt
	for rows.Next() {
		var (
			a          domain.OrderAttempt
			direction  string
			price      string
			windowSecs int64
			orderID    *string
			fillPrice  *string
			errMsg     *string
		)
		if err := rows.Scan(
			&a.Cloid, &a.Wallet, &a.Asset, &direction, &price, &windowSecs,
			&a.Success, &orderID, &a.Filled, &fillPrice, &errMsg,
			&a.SubmittedAt, &a.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan order audit row: %w", err)
		}

		a.Direction = domain.Direction(direction)
		a.TimeWindow = time.Duration(windowSecs) * time.Second
		if a.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("postgres: parse audit price %q: %w", price, err)
		}
		if orderID != nil {
			a.OrderID = *orderID
		}
		if fillPrice != nil {
			if a.FillPrice, err = decimal.NewFromString(*fillPrice); err != nil {
				return nil, fmt.Errorf("postgres: parse audit fill price %q: %w", *fillPrice, err)
			}
		}
		if errMsg != nil {
			a.Error = *errMsg
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate order audit rows: %w", err)
	}

	return attempts, nil
}

// Compile-time interface check.
var _ domain.OrderAuditStore = (*OrderAuditStore)(nil)
