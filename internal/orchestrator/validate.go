package orchestrator

import (
	"fmt"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// ValidateOrder is the pure fast-fail gate run before any network call. It
// checks required fields only; business gating (connection state, active
// positions) belongs to the orchestrator.
func ValidateOrder(req domain.OrderRequest) error {
	if req.Asset == "" {
		return fmt.Errorf("%w: asset is required", domain.ErrInvalidOrder)
	}
	if !req.Direction.Valid() {
		return fmt.Errorf("%w: direction must be %q or %q", domain.ErrInvalidOrder, domain.DirectionUp, domain.DirectionDown)
	}
	if !req.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidOrder)
	}
	return nil
}
