package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus tracks the position lifecycle on the venue.
type PositionStatus string

const (
	PositionStatusOpen    PositionStatus = "open"
	PositionStatusClosed  PositionStatus = "closed"
	PositionStatusSettled PositionStatus = "settled"
)

// Position is a read-only view of a venue position. The venue's position
// store owns the data; everything in this process holds cached copies that a
// poll tick fully replaces.
type Position struct {
	ID         string           `json:"id"`
	Asset      string           `json:"asset"`
	Direction  Direction        `json:"direction"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	Size       decimal.Decimal  `json:"size"`
	Status     PositionStatus   `json:"status"`
	OpenedAt   time.Time        `json:"opened_at"`
	ClosedAt   *time.Time       `json:"closed_at,omitempty"`
	ExitPrice  *decimal.Decimal `json:"exit_price,omitempty"`
}

// IsOpen reports whether the position still counts against the
// single-active-position rule.
func (p Position) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

// Terminal reports whether the position has reached a final state.
func (p Position) Terminal() bool {
	return p.Status == PositionStatusClosed || p.Status == PositionStatusSettled
}
