package orchestrator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

func validRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Asset:     "BTC",
		Direction: domain.DirectionUp,
		Price:     decimal.NewFromInt(50000),
	}
}

func TestValidateOrderAccepts(t *testing.T) {
	require.NoError(t, ValidateOrder(validRequest()))

	down := validRequest()
	down.Direction = domain.DirectionDown
	require.NoError(t, ValidateOrder(down))
}

func TestValidateOrderRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.OrderRequest)
	}{
		{"empty asset", func(r *domain.OrderRequest) { r.Asset = "" }},
		{"unknown direction", func(r *domain.OrderRequest) { r.Direction = "sideways" }},
		{"empty direction", func(r *domain.OrderRequest) { r.Direction = "" }},
		{"zero price", func(r *domain.OrderRequest) { r.Price = decimal.Zero }},
		{"negative price", func(r *domain.OrderRequest) { r.Price = decimal.NewFromInt(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := ValidateOrder(req)
			require.ErrorIs(t, err, domain.ErrInvalidOrder)
		})
	}
}

func TestValidateOrderIgnoresTimeWindow(t *testing.T) {
	// The venue bounds the window; a zero window passes local validation.
	req := validRequest()
	req.TimeWindow = 0
	require.NoError(t, ValidateOrder(req))
}
