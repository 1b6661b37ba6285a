package hyperliquid

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// ---------------------------------------------------------------------------
// Exchange endpoint payloads
// ---------------------------------------------------------------------------

// orderAction is the L1 action submitted to POST /exchange.
type orderAction struct {
	Type     string          `json:"type"` // always "order"
	Orders   []actionOrder   `json:"orders"`
	Grouping string          `json:"grouping"` // always "na" for single orders
}

// actionOrder is one prediction order inside an orderAction.
type actionOrder struct {
	Asset      string `json:"asset"`
	IsUp       bool   `json:"isUp"`
	LimitPx    string `json:"limitPx"`
	Sz         string `json:"sz"`
	WindowSecs int64  `json:"windowSeconds"`
	Cloid      string `json:"cloid"`
}

// exchangeRequest is the signed envelope around an action.
type exchangeRequest struct {
	Action    orderAction `json:"action"`
	Nonce     int64       `json:"nonce"`
	Signature string      `json:"signature"`
}

// exchangeResponse is the venue's answer to an action submission.
type exchangeResponse struct {
	Status   string `json:"status"` // "ok" or "err"
	Response struct {
		Data struct {
			Statuses []orderStatus `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
	Error string `json:"error,omitempty"`
}

// orderStatus is the per-order placement outcome. Exactly one field is set.
type orderStatus struct {
	Resting *struct {
		Oid   int64  `json:"oid"`
		Cloid string `json:"cloid,omitempty"`
	} `json:"resting,omitempty"`
	Filled *struct {
		Oid     int64  `json:"oid"`
		Cloid   string `json:"cloid,omitempty"`
		AvgPx   string `json:"avgPx"`
		TotalSz string `json:"totalSz"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

// toDomainResult maps a placement status to the domain result.
func (st orderStatus) toDomainResult(cloid string) (domain.OrderResult, error) {
	switch {
	case st.Error != "":
		return domain.OrderResult{
			Success: false,
			Cloid:   cloid,
			Message: st.Error,
		}, nil
	case st.Filled != nil:
		px, err := decimal.NewFromString(st.Filled.AvgPx)
		if err != nil {
			return domain.OrderResult{}, fmt.Errorf("hyperliquid: parse fill price %q: %w", st.Filled.AvgPx, err)
		}
		return domain.OrderResult{
			Success:   true,
			OrderID:   fmt.Sprintf("%d", st.Filled.Oid),
			Cloid:     cloid,
			Filled:    true,
			FillPrice: px,
		}, nil
	case st.Resting != nil:
		return domain.OrderResult{
			Success: true,
			OrderID: fmt.Sprintf("%d", st.Resting.Oid),
			Cloid:   cloid,
		}, nil
	default:
		return domain.OrderResult{}, fmt.Errorf("hyperliquid: empty order status")
	}
}

// ---------------------------------------------------------------------------
// Info endpoint payloads
// ---------------------------------------------------------------------------

// infoRequest is the body for POST /info queries.
type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// clearinghouseState is the account snapshot returned by the info endpoint.
type clearinghouseState struct {
	Withdrawable   string `json:"withdrawable"`
	AssetPositions []struct {
		Position apiPosition `json:"position"`
	} `json:"assetPositions"`
	Time int64 `json:"time"`
}

// apiPosition is a single venue position.
type apiPosition struct {
	Coin     string  `json:"coin"`
	Szi      string  `json:"szi"` // signed size; "0" means flat
	EntryPx  *string `json:"entryPx"`
	OpenedAt int64   `json:"openedAtMs,omitempty"`
}

// toDomain converts an apiPosition to the domain model. The venue does not
// assign position ids, so one is synthesized from the owner and the coin.
func (ap apiPosition) toDomain(owner string) (domain.Position, error) {
	szi, err := decimal.NewFromString(ap.Szi)
	if err != nil {
		return domain.Position{}, fmt.Errorf("hyperliquid: parse position size %q: %w", ap.Szi, err)
	}

	direction := domain.DirectionUp
	if szi.IsNegative() {
		direction = domain.DirectionDown
	}

	pos := domain.Position{
		ID:        positionID(owner, ap.Coin),
		Asset:     ap.Coin,
		Direction: direction,
		Size:      szi.Abs(),
		Status:    domain.PositionStatusOpen,
	}
	if ap.EntryPx != nil {
		px, err := decimal.NewFromString(*ap.EntryPx)
		if err != nil {
			return domain.Position{}, fmt.Errorf("hyperliquid: parse entry price %q: %w", *ap.EntryPx, err)
		}
		pos.EntryPrice = px
	}
	if ap.OpenedAt > 0 {
		pos.OpenedAt = time.UnixMilli(ap.OpenedAt).UTC()
	}
	return pos, nil
}

func positionID(owner, coin string) string {
	return strings.ToLower(owner) + ":" + strings.ToUpper(coin)
}
