package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// SettledPositionStore implements domain.SettledPositionStore using
// PostgreSQL. Rows are captured when a position leaves the active set and
// later exported to cold storage by the archiver.
type SettledPositionStore struct {
	pool *pgxpool.Pool
}

// NewSettledPositionStore creates a SettledPositionStore backed by the given
// pool.
func NewSettledPositionStore(pool *pgxpool.Pool) *SettledPositionStore {
	return &SettledPositionStore{pool: pool}
}

// Insert records one settled position. Re-inserting the same id updates the
// row, so a repeated capture is harmless.
func (s *SettledPositionStore) Insert(ctx context.Context, pos domain.Position) error {
	const query = `
		INSERT INTO settled_positions (
			id, asset, direction, entry_price, size, status,
			opened_at, closed_at, exit_price, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			closed_at = EXCLUDED.closed_at,
			exit_price = EXCLUDED.exit_price`

	var openedAt *time.Time
	if !pos.OpenedAt.IsZero() {
		openedAt = &pos.OpenedAt
	}
	var exitPrice *string
	if pos.ExitPrice != nil {
		v := pos.ExitPrice.String()
		exitPrice = &v
	}

	_, err := s.pool.Exec(ctx, query,
		pos.ID, pos.Asset, string(pos.Direction),
		pos.EntryPrice.String(), pos.Size.String(), string(pos.Status),
		openedAt, pos.ClosedAt, exitPrice,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert settled position %s: %w", pos.ID, err)
	}
	return nil
}

// ListBefore returns all positions recorded strictly before the cutoff.
func (s *SettledPositionStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Position, error) {
	const query = `
		SELECT id, asset, direction, entry_price, size, status,
		       opened_at, closed_at, exit_price
		FROM settled_positions
		WHERE recorded_at < $1
		ORDER BY recorded_at`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settled positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var (
			pos        domain.Position
			direction  string
			entryPrice string
			size       string
			status     string
			openedAt   *time.Time
			exitPrice  *string
		)
		if err := rows.Scan(
			&pos.ID, &pos.Asset, &direction, &entryPrice, &size, &status,
			&openedAt, &pos.ClosedAt, &exitPrice,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan settled position row: %w", err)
		}

		pos.Direction = domain.Direction(direction)
		pos.Status = domain.PositionStatus(status)
		if pos.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
			return nil, fmt.Errorf("postgres: parse entry price %q: %w", entryPrice, err)
		}
		if pos.Size, err = decimal.NewFromString(size); err != nil {
			return nil, fmt.Errorf("postgres: parse size %q: %w", size, err)
		}
		if openedAt != nil {
			pos.OpenedAt = *openedAt
		}
		if exitPrice != nil {
			px, perr := decimal.NewFromString(*exitPrice)
			if perr != nil {
				return nil, fmt.Errorf("postgres: parse exit price %q: %w", *exitPrice, perr)
			}
			pos.ExitPrice = &px
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate settled position rows: %w", err)
	}

	return positions, nil
}

// DeleteBefore prunes positions recorded strictly before the cutoff and
// returns the number of rows removed. Called only after a verified archive.
func (s *SettledPositionStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM settled_positions WHERE recorded_at < $1", before,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete settled positions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.SettledPositionStore = (*SettledPositionStore)(nil)
