// Package hyperliquid is the REST client for the Hyperliquid-style
// prediction venue. It implements order submission (the exchange endpoint)
// and account/position reads (the info endpoint).
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/crypto"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// Client talks to the venue REST API. It implements domain.OrderGateway,
// domain.PositionStore, and domain.BalanceSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer
	stakeSize  decimal.Decimal // fixed per-order stake submitted with each prediction

	// seen tracks position ids observed open at least once, so positions
	// that later disappear can be reported as completed until cleared.
	mu        sync.Mutex
	seen      map[string]domain.Position
	completed map[string]domain.Position
}

// NewClient creates a venue client.
//
// baseURL is the API root, e.g. "https://api.hyperliquid.xyz".
// signer signs exchange actions; stakeSize is the fixed stake attached to
// every prediction order.
func NewClient(baseURL string, signer *crypto.Signer, stakeSize decimal.Decimal) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer:    signer,
		stakeSize: stakeSize,
		seen:      make(map[string]domain.Position),
		completed: make(map[string]domain.Position),
	}
}

// PlacePredictionOrder signs and submits a single prediction order. One
// attempt, no internal retry. A venue-level rejection comes back as a result
// with Success == false and the venue's message; transport and protocol
// failures wrap domain.ErrGateway.
func (c *Client) PlacePredictionOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	action := orderAction{
		Type: "order",
		Orders: []actionOrder{{
			Asset:      req.Asset,
			IsUp:       req.Direction == domain.DirectionUp,
			LimitPx:    req.Price.String(),
			Sz:         c.stakeSize.String(),
			WindowSecs: int64(req.TimeWindow / time.Second),
			Cloid:      req.Cloid,
		}},
		Grouping: "na",
	}

	nonce := time.Now().UnixMilli()
	sig, err := c.signAction(action, nonce)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("%w: sign action: %s", domain.ErrGateway, err.Error())
	}

	body := exchangeRequest{
		Action:    action,
		Nonce:     nonce,
		Signature: sig,
	}

	respBody, err := c.post(ctx, "/exchange", body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("%w: %s", domain.ErrGateway, err.Error())
	}

	var apiResp exchangeResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("%w: decode response: %s", domain.ErrGateway, err.Error())
	}

	if apiResp.Status != "ok" {
		msg := apiResp.Error
		if msg == "" {
			msg = "order rejected"
		}
		return domain.OrderResult{Success: false, Cloid: req.Cloid, Message: msg}, nil
	}

	statuses := apiResp.Response.Data.Statuses
	if len(statuses) == 0 {
		return domain.OrderResult{}, fmt.Errorf("%w: response contains no order status", domain.ErrGateway)
	}

	result, err := statuses[0].toDomainResult(req.Cloid)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("%w: %s", domain.ErrGateway, err.Error())
	}
	return result, nil
}

// ActivePositions queries the clearinghouse state and returns the open
// positions for the signing wallet. Positions previously seen open that were
// not returned are recorded as completed for ClearCompletedPositions.
func (c *Client) ActivePositions(ctx context.Context) ([]domain.Position, error) {
	state, err := c.clearinghouse(ctx)
	if err != nil {
		return nil, err
	}

	owner := c.signer.Address().Hex()
	open := make([]domain.Position, 0, len(state.AssetPositions))
	openIDs := make(map[string]bool, len(state.AssetPositions))

	for _, ap := range state.AssetPositions {
		if ap.Position.Szi == "" || ap.Position.Szi == "0" {
			continue
		}
		pos, err := ap.Position.toDomain(owner)
		if err != nil {
			return nil, err
		}
		open = append(open, pos)
		openIDs[pos.ID] = true
	}

	c.mu.Lock()
	for id, pos := range c.seen {
		if !openIDs[id] {
			pos.Status = domain.PositionStatusClosed
			c.completed[id] = pos
			delete(c.seen, id)
		}
	}
	for _, pos := range open {
		c.seen[pos.ID] = pos
	}
	c.mu.Unlock()

	return open, nil
}

// CompletedPositions returns positions that left the active set since the
// last ClearCompletedPositions call.
func (c *Client) CompletedPositions() []domain.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Position, 0, len(c.completed))
	for _, pos := range c.completed {
		out = append(out, pos)
	}
	return out
}

// ClearCompletedPositions drops the locally tracked terminal entries.
func (c *Client) ClearCompletedPositions(ctx context.Context) error {
	c.mu.Lock()
	c.completed = make(map[string]domain.Position)
	c.mu.Unlock()
	return nil
}

// Balance returns the withdrawable balance for an address.
func (c *Client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	state, err := c.clearinghouse(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	bal, err := decimal.NewFromString(state.Withdrawable)
	if err != nil {
		return decimal.Zero, fmt.Errorf("hyperliquid: parse balance %q: %w", state.Withdrawable, err)
	}
	return bal, nil
}

// clearinghouse fetches the account snapshot from the info endpoint.
func (c *Client) clearinghouse(ctx context.Context) (clearinghouseState, error) {
	body := infoRequest{
		Type: "clearinghouseState",
		User: c.signer.Address().Hex(),
	}

	respBody, err := c.post(ctx, "/info", body)
	if err != nil {
		return clearinghouseState{}, fmt.Errorf("hyperliquid: query clearinghouse: %w", err)
	}

	var state clearinghouseState
	if err := json.Unmarshal(respBody, &state); err != nil {
		return clearinghouseState{}, fmt.Errorf("hyperliquid: decode clearinghouse state: %w", err)
	}
	return state, nil
}

// signAction hashes the serialized action together with the nonce and signs
// the resulting connection id as an exchange agent.
func (c *Client) signAction(action orderAction, nonce int64) (string, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return "", fmt.Errorf("marshal action: %w", err)
	}

	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, uint64(nonce))

	var connectionID [32]byte
	copy(connectionID[:], ethcrypto.Keccak256(payload, nonceBytes))

	return c.signer.SignAgent(connectionID)
}

// post sends a JSON body and returns the raw response payload. Non-2xx
// responses are returned as errors carrying the body text.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Compile-time interface checks.
var (
	_ domain.OrderGateway  = (*Client)(nil)
	_ domain.PositionStore = (*Client)(nil)
	_ domain.BalanceSource = (*Client)(nil)
)
