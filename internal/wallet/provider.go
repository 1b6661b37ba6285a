package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/crypto"
	"github.com/ChinmayGopal931/hypurr-rekt-sub001/internal/domain"
)

// eventBufferSize is the per-subscriber event channel buffer. A slow
// subscriber drops events rather than blocking the emitter.
const eventBufferSize = 8

// LocalProvider implements domain.WalletProvider with a locally held private
// key. It is the headless counterpart of a browser wallet: the key takes the
// place of the user's signing agent, and account/chain changes are emitted
// when the key is reloaded or the chain is switched at runtime.
type LocalProvider struct {
	balances domain.BalanceSource // optional
	logger   *slog.Logger

	mu      sync.Mutex
	signer  *crypto.Signer
	chainID int64
	subs    map[chan domain.WalletEvent]struct{}
}

// NewLocalProvider creates a provider around an existing signer. balances may
// be nil; Connect then reports no balance.
func NewLocalProvider(signer *crypto.Signer, balances domain.BalanceSource, logger *slog.Logger) *LocalProvider {
	return &LocalProvider{
		balances: balances,
		logger:   logger.With(slog.String("component", "wallet_provider")),
		signer:   signer,
		chainID:  signer.ChainID(),
		subs:     make(map[chan domain.WalletEvent]struct{}),
	}
}

// Connect derives the wallet snapshot from the local key. A balance fetch
// failure is logged and the snapshot is returned without a balance; balance
// is optional and must never block a connection.
func (p *LocalProvider) Connect(ctx context.Context) (domain.WalletInfo, error) {
	p.mu.Lock()
	signer := p.signer
	chainID := p.chainID
	p.mu.Unlock()

	if signer == nil {
		return domain.DisconnectedWallet(), domain.ErrProviderUnavailable
	}

	info := domain.WalletInfo{
		Address:     signer.Address().Hex(),
		IsConnected: true,
		ChainID:     chainID,
	}

	if p.balances != nil {
		bal, err := p.balances.Balance(ctx, info.Address)
		if err != nil {
			p.logger.WarnContext(ctx, "balance fetch failed",
				slog.String("address", info.Address),
				slog.String("error", err.Error()),
			)
		} else {
			info.Balance = &bal
		}
	}

	return info, nil
}

// Accounts returns the single locally held account.
func (p *LocalProvider) Accounts(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signer == nil {
		return nil, domain.ErrProviderUnavailable
	}
	return []string{p.signer.Address().Hex()}, nil
}

// SignMessage signs a personal message with the local key.
func (p *LocalProvider) SignMessage(ctx context.Context, message []byte) (string, error) {
	p.mu.Lock()
	signer := p.signer
	p.mu.Unlock()

	if signer == nil {
		return "", domain.ErrProviderUnavailable
	}
	sig, err := signer.SignMessage(message)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrSigningFailed, err.Error())
	}
	return sig, nil
}

// SignTypedData signs an EIP-712 payload with the local key.
func (p *LocalProvider) SignTypedData(ctx context.Context, dom domain.TypedDataDomain, types map[string][]domain.TypedDataField, value map[string]any) (string, error) {
	p.mu.Lock()
	signer := p.signer
	p.mu.Unlock()

	if signer == nil {
		return "", domain.ErrProviderUnavailable
	}
	sig, err := signer.SignTypedData(dom, types, value)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrSigningFailed, err.Error())
	}
	return sig, nil
}

// SubscribeEvents returns a channel of wallet events. The subscription is
// scoped to ctx: when ctx is cancelled the channel is removed and closed, so
// a handler can never outlive its owner.
func (p *LocalProvider) SubscribeEvents(ctx context.Context) (<-chan domain.WalletEvent, error) {
	ch := make(chan domain.WalletEvent, eventBufferSize)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
		p.mu.Unlock()
	}()

	return ch, nil
}

// ReloadKey swaps the signing key and notifies subscribers that the account
// changed.
func (p *LocalProvider) ReloadKey(signer *crypto.Signer) {
	p.mu.Lock()
	p.signer = signer
	accounts := []string{signer.Address().Hex()}
	p.mu.Unlock()

	p.logger.Info("signing key reloaded", slog.String("address", accounts[0]))
	p.emit(domain.WalletEvent{Type: domain.WalletEventAccountsChanged, Accounts: accounts})
}

// SwitchChain changes the reported chain id and notifies subscribers.
func (p *LocalProvider) SwitchChain(chainID int64) {
	p.mu.Lock()
	p.chainID = chainID
	p.mu.Unlock()

	p.logger.Info("chain switched", slog.Int64("chain_id", chainID))
	p.emit(domain.WalletEvent{Type: domain.WalletEventChainChanged, ChainID: chainID})
}

// emit fans an event out to all live subscribers, dropping it for any whose
// buffer is full.
func (p *LocalProvider) emit(ev domain.WalletEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- ev:
		default:
			p.logger.Warn("dropping wallet event for slow subscriber",
				slog.String("event", string(ev.Type)),
			)
		}
	}
}
