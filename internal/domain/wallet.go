package domain

import "github.com/shopspring/decimal"

// WalletInfo is an immutable snapshot of the wallet session. It is rebuilt on
// every connection-state change and never mutated in place.
//
// Invariant: IsConnected == false implies Address == "".
type WalletInfo struct {
	Address     string           `json:"address,omitempty"`
	IsConnected bool             `json:"is_connected"`
	ChainID     int64            `json:"chain_id,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"` // nil when the provider did not report one
}

// DisconnectedWallet is the sentinel snapshot for a session with no wallet
// attached.
func DisconnectedWallet() WalletInfo {
	return WalletInfo{}
}

// WalletEventType identifies a provider-side session invalidation.
type WalletEventType string

const (
	WalletEventAccountsChanged WalletEventType = "accountsChanged"
	WalletEventChainChanged    WalletEventType = "chainChanged"
)

// WalletEvent is emitted by a WalletProvider when the underlying account or
// chain changes. Either change invalidates every assumption baked into an
// in-flight order, so consumers treat both identically.
type WalletEvent struct {
	Type     WalletEventType
	Accounts []string
	ChainID  int64
}

// TypedDataDomain is the EIP-712 signing domain passed to SignTypedData.
type TypedDataDomain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract string
}

// TypedDataField describes one member of an EIP-712 struct type.
type TypedDataField struct {
	Name string
	Type string
}
