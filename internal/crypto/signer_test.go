package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// Well-known test vector key; never holds funds.
const (
	testKey     = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testKey, 42161)
	require.NoError(t, err)
	return s
}

func TestNewSignerDerivesAddress(t *testing.T) {
	s := newTestSigner(t)
	require.Equal(t, testAddress, s.Address().Hex())
	require.EqualValues(t, 42161, s.ChainID())
}

func TestNewSignerAcceptsHexPrefix(t *testing.T) {
	s, err := NewSigner("0x"+testKey, 42161)
	require.NoError(t, err)
	require.Equal(t, testAddress, s.Address().Hex())
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	_, err := NewSigner("not-a-key", 42161)
	require.Error(t, err)
}

// decodeSig parses a 0x-prefixed 65-byte signature and normalizes v back to
// {0,1} for recovery.
func decodeSig(t *testing.T, sig string) []byte {
	t.Helper()
	require.True(t, strings.HasPrefix(sig, "0x"))
	raw, err := hex.DecodeString(sig[2:])
	require.NoError(t, err)
	require.Len(t, raw, 65)
	require.Contains(t, []byte{27, 28}, raw[64])
	raw[64] -= 27
	return raw
}

func TestSignMessageRecoversToSigner(t *testing.T) {
	s := newTestSigner(t)

	message := []byte("hello hyperliquid")
	sig, err := s.SignMessage(message)
	require.NoError(t, err)

	raw := decodeSig(t, sig)
	prefixed := "\x19Ethereum Signed Message:\n17hello hyperliquid"
	digest := ethcrypto.Keccak256([]byte(prefixed))

	pub, err := ethcrypto.SigToPub(digest, raw)
	require.NoError(t, err)
	require.Equal(t, testAddress, ethcrypto.PubkeyToAddress(*pub).Hex())
}

func TestSignAgentIsDeterministic(t *testing.T) {
	s := newTestSigner(t)

	var connectionID [32]byte
	copy(connectionID[:], ethcrypto.Keccak256([]byte("action")))

	sig1, err := s.SignAgent(connectionID)
	require.NoError(t, err)
	sig2, err := s.SignAgent(connectionID)
	require.NoError(t, err)

	require.Equal(t, sig1, sig2)
	decodeSig(t, sig1)
}

func TestSignAgentUsesPhantomChainDomain(t *testing.T) {
	// The exchange action domain is fixed regardless of the wallet chain, so
	// two signers on different chains produce identical agent signatures.
	a, err := NewSigner(testKey, 42161)
	require.NoError(t, err)
	b, err := NewSigner(testKey, 1)
	require.NoError(t, err)

	var connectionID [32]byte
	sigA, err := a.SignAgent(connectionID)
	require.NoError(t, err)
	sigB, err := b.SignAgent(connectionID)
	require.NoError(t, err)

	require.Equal(t, sigA, sigB)
}

func TestSignTypedData(t *testing.T) {
	s := newTestSigner(t)

	types := map[string][]domain.TypedDataField{
		"Order": {
			{Name: "asset", Type: "string"},
			{Name: "amount", Type: "uint256"},
		},
	}
	value := map[string]any{
		"asset":  "BTC",
		"amount": "100",
	}
	dom := domain.TypedDataDomain{
		Name:    "Exchange",
		Version: "1",
		ChainID: 1337,
	}

	sig, err := s.SignTypedData(dom, types, value)
	require.NoError(t, err)
	decodeSig(t, sig)
}

func TestSignTypedDataRejectsAmbiguousPrimaryType(t *testing.T) {
	s := newTestSigner(t)

	// Two unrelated root types: no unique primary can be inferred.
	types := map[string][]domain.TypedDataField{
		"A": {{Name: "x", Type: "string"}},
		"B": {{Name: "y", Type: "string"}},
	}

	_, err := s.SignTypedData(domain.TypedDataDomain{ChainID: 1}, types, map[string]any{})
	require.Error(t, err)
}

func TestSignTypedDataInfersNestedPrimary(t *testing.T) {
	s := newTestSigner(t)

	types := map[string][]domain.TypedDataField{
		"Outer": {
			{Name: "inner", Type: "Inner"},
		},
		"Inner": {
			{Name: "x", Type: "string"},
		},
	}
	value := map[string]any{
		"inner": map[string]any{"x": "1"},
	}

	sig, err := s.SignTypedData(domain.TypedDataDomain{Name: "T", Version: "1", ChainID: 1}, types, value)
	require.NoError(t, err)
	decodeSig(t, sig)
}
