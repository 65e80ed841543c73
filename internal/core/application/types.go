package application

import (
	"fmt"

	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/pkg/wallet/bitcoin"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
	"github.com/vulpemventures/softwallet/pkg/wallet/liquid"
	"github.com/vulpemventures/softwallet/pkg/wallet/solana"
	"github.com/vulpemventures/softwallet/pkg/wallet/tron"
)

var (
	ErrMissingNonEvmTx = fmt.Errorf(
		"%w: missing transaction for chain", domain.ErrValidation,
	)
	ErrEvmChainNotAllowed = fmt.Errorf(
		"%w: evm transactions must be signed with SignTransaction",
		domain.ErrValidation,
	)
)

type WalletEventHandler func(event domain.WalletEvent)

// GroupInfo is the public view of a persisted wallet group.
type GroupInfo struct {
	GroupID    string
	Label      string
	CreatedAt  int64
	IsPrimary  bool
	IsUnlocked bool
}

// NonEvmTransaction is the signing request for a non-EVM chain. Only the
// field matching Chain is considered.
type NonEvmTransaction struct {
	Chain        hd.Chain
	AccountIndex uint32
	Bitcoin      *bitcoin.Transaction
	Solana       *solana.Transaction
	Tron         *tron.Transaction
	Liquid       *liquid.Pset
}

func (t NonEvmTransaction) validate() error {
	switch t.Chain {
	case hd.ChainBitcoin:
		if t.Bitcoin == nil {
			return fmt.Errorf("%w %s", ErrMissingNonEvmTx, t.Chain)
		}
	case hd.ChainSolana:
		if t.Solana == nil {
			return fmt.Errorf("%w %s", ErrMissingNonEvmTx, t.Chain)
		}
	case hd.ChainTron:
		if t.Tron == nil {
			return fmt.Errorf("%w %s", ErrMissingNonEvmTx, t.Chain)
		}
	case hd.ChainLiquid:
		if t.Liquid == nil {
			return fmt.Errorf("%w %s", ErrMissingNonEvmTx, t.Chain)
		}
	case hd.ChainEVM:
		return ErrEvmChainNotAllowed
	default:
		return fmt.Errorf("%w: %w %q", domain.ErrValidation, hd.ErrUnknownChain, t.Chain)
	}
	return nil
}

// SignedTransaction is the chain specific encoding of a signed transaction.
// Hash is the precomputed transaction hash, if any. Signature is set only
// for chains where it's returned separately from the transaction (TRON).
type SignedTransaction struct {
	Chain     hd.Chain
	Raw       string
	Hash      string
	Signature string
}
