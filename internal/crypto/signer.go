// Package crypto provides key management and EIP-712 signing for the
// Hyperliquid exchange API.
package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// --------------------------------------------------------------------------
// EIP-712 type hashes (pre-computed keccak256 of the canonical type strings).
// --------------------------------------------------------------------------

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	eip712DomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	// Agent(string source,bytes32 connectionId)
	agentTypeHash = ethcrypto.Keccak256(
		[]byte("Agent(string source,bytes32 connectionId)"),
	)
)

const (
	// exchangeChainID is the fixed phantom chain id used by the exchange's
	// L1 action signing domain, independent of the wallet's real chain.
	exchangeChainID = 1337

	// agentSourceMainnet tags action signatures as mainnet-originated.
	agentSourceMainnet = "a"
)

// Signer produces secp256k1 signatures for exchange actions, typed data, and
// personal messages.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    int64
	domainSep  []byte // cached Exchange domain separator hash
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key and the
// wallet's chain id (42161 for Arbitrum mainnet).
func NewSigner(privateKeyHex string, chainID int64) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}

	s := &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		chainID:    chainID,
	}

	// Pre-compute the Exchange action domain separator.
	s.domainSep = buildDomainSeparator("Exchange", "1", exchangeChainID, common.Address{})

	return s, nil
}

// Address returns the Ethereum address derived from the signer's private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the wallet chain id the signer was created for.
func (s *Signer) ChainID() int64 {
	return s.chainID
}

// SignAgent signs an exchange L1 action. connectionID is the keccak256 hash
// of the serialized action payload; the venue recovers the signer address
// from the returned 65-byte hex signature.
func (s *Signer) SignAgent(connectionID [32]byte) (string, error) {
	structHash := ethcrypto.Keccak256(
		concatBytes(
			agentTypeHash,
			ethcrypto.Keccak256([]byte(agentSourceMainnet)),
			connectionID[:],
		),
	)

	digest := eip712Hash(s.domainSep, structHash)
	return s.signDigest(digest)
}

// SignMessage signs a personal message with the standard
// "\x19Ethereum Signed Message:\n" prefix.
func (s *Signer) SignMessage(message []byte) (string, error) {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	digest := ethcrypto.Keccak256([]byte(prefixed))
	return s.signDigest(digest)
}

// SignTypedData signs an arbitrary EIP-712 payload. The primary type is
// inferred as the one struct type not referenced by any other (excluding the
// domain type itself).
func (s *Signer) SignTypedData(dom domain.TypedDataDomain, types map[string][]domain.TypedDataField, value map[string]any) (string, error) {
	primary, err := primaryType(types)
	if err != nil {
		return "", err
	}

	tdTypes := apitypes.Types{
		"EIP712Domain": domainFieldTypes(dom),
	}
	for name, fields := range types {
		entry := make([]apitypes.Type, 0, len(fields))
		for _, f := range fields {
			entry = append(entry, apitypes.Type{Name: f.Name, Type: f.Type})
		}
		tdTypes[name] = entry
	}

	td := apitypes.TypedData{
		Types:       tdTypes,
		PrimaryType: primary,
		Domain: apitypes.TypedDataDomain{
			Name:              dom.Name,
			Version:           dom.Version,
			ChainId:           math.NewHexOrDecimal256(dom.ChainID),
			VerifyingContract: dom.VerifyingContract,
		},
		Message: value,
	}

	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: hash typed data: %w", err)
	}

	return s.signDigest(digest)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// primaryType returns the single struct type that no other type references.
func primaryType(types map[string][]domain.TypedDataField) (string, error) {
	referenced := make(map[string]bool)
	for _, fields := range types {
		for _, f := range fields {
			referenced[strings.TrimSuffix(f.Type, "[]")] = true
		}
	}

	var roots []string
	for name := range types {
		if name == "EIP712Domain" || referenced[name] {
			continue
		}
		roots = append(roots, name)
	}
	if len(roots) != 1 {
		return "", fmt.Errorf("crypto/signer: cannot infer primary type from %d root types", len(roots))
	}
	sort.Strings(roots)
	return roots[0], nil
}

// domainFieldTypes lists only the domain fields that are actually populated,
// matching how wallets serialize partial EIP-712 domains.
func domainFieldTypes(dom domain.TypedDataDomain) []apitypes.Type {
	fields := []apitypes.Type{}
	if dom.Name != "" {
		fields = append(fields, apitypes.Type{Name: "name", Type: "string"})
	}
	if dom.Version != "" {
		fields = append(fields, apitypes.Type{Name: "version", Type: "string"})
	}
	fields = append(fields, apitypes.Type{Name: "chainId", Type: "uint256"})
	if dom.VerifyingContract != "" {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	return fields
}

// buildDomainSeparator returns keccak256(abi.encode(typeHash, nameHash,
// versionHash, chainId, verifyingContract)).
func buildDomainSeparator(name, version string, chainID int64, contract common.Address) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			eip712DomainTypeHash,
			ethcrypto.Keccak256([]byte(name)),
			ethcrypto.Keccak256([]byte(version)),
			bigIntTo32Bytes(big.NewInt(chainID)),
			common.LeftPadBytes(contract.Bytes(), 32),
		),
	)
}

// eip712Hash computes the final EIP-712 digest:
// keccak256("\x19\x01" || domainSeparator || structHash).
func eip712Hash(domainSep, structHash []byte) []byte {
	return ethcrypto.Keccak256(
		concatBytes([]byte{0x19, 0x01}, domainSep, structHash),
	)
}

// signDigest signs a 32-byte digest and returns the hex-encoded 65-byte
// signature with the recovery byte adjusted to 27/28.
func (s *Signer) signDigest(digest []byte) (string, error) {
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: sign digest: %w", err)
	}

	// go-ethereum returns v in {0,1}; wallets expect {27,28}.
	sig[64] += 27

	return "0x" + hex.EncodeToString(sig), nil
}

func concatBytes(parts ...[]byte) []byte {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func bigIntTo32Bytes(n *big.Int) []byte {
	return common.LeftPadBytes(n.Bytes(), 32)
}
