package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the predicted price direction for a position.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// OrderRequest is a candidate prediction order. It is constructed once by the
// caller and treated as an immutable value from then on.
type OrderRequest struct {
	Asset      string          `json:"asset"`
	Direction  Direction       `json:"direction"`
	Price      decimal.Decimal `json:"price"`
	TimeWindow time.Duration   `json:"time_window"`
	// Cloid is the client-assigned order identifier. The orchestrator fills
	// it in before submission when the caller leaves it empty.
	Cloid string `json:"cloid,omitempty"`
}

// OrderResult is the outcome of a single submission attempt. It is produced
// exactly once per attempt and never mutated.
type OrderResult struct {
	Success   bool            `json:"success"`
	OrderID   string          `json:"order_id,omitempty"` // venue-assigned id
	Cloid     string          `json:"cloid,omitempty"`    // client-assigned id echoed back
	Filled    bool            `json:"filled"`
	FillPrice decimal.Decimal `json:"fill_price"`
	Message   string          `json:"message,omitempty"` // venue error text when Success is false
}

// OrderAttempt is the audit record written for every submission attempt,
// successful or not. Orchestration state is never restored from these rows;
// they exist purely as operator telemetry.
type OrderAttempt struct {
	Cloid       string          `json:"cloid"`
	Wallet      string          `json:"wallet"`
	Asset       string          `json:"asset"`
	Direction   Direction       `json:"direction"`
	Price       decimal.Decimal `json:"price"`
	TimeWindow  time.Duration   `json:"time_window"`
	Success     bool            `json:"success"`
	OrderID     string          `json:"order_id,omitempty"`
	Filled      bool            `json:"filled"`
	FillPrice   decimal.Decimal `json:"fill_price"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	SettledAt   time.Time       `json:"settled_at,omitempty"`
}
