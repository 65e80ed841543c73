package hd

import (
	"fmt"
	"slices"
	"strings"

	path "github.com/vulpemventures/softwallet/pkg/wallet/derivation-path"
)

// Chain identifies a family of blockchains sharing the same key derivation
// and signing scheme.
type Chain string

const (
	ChainEVM     Chain = "evm"
	ChainBitcoin Chain = "bitcoin"
	ChainTron    Chain = "tron"
	ChainSolana  Chain = "solana"
	ChainLiquid  Chain = "liquid"
)

var (
	ErrUnknownChain = fmt.Errorf("unknown chain")
	ErrPathMismatch = fmt.Errorf("derivation path is not an account path of the chain")

	chains = map[Chain]struct{}{
		ChainEVM:     {},
		ChainBitcoin: {},
		ChainTron:    {},
		ChainSolana:  {},
		ChainLiquid:  {},
	}
)

// ParseChain returns the Chain with the given name.
func ParseChain(name string) (Chain, error) {
	chain := Chain(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := chains[chain]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownChain, name)
	}
	return chain, nil
}

// IsEd25519 returns whether keys of the chain are derived with SLIP-10
// ed25519 rather than BIP-32 secp256k1.
func (c Chain) IsEd25519() bool {
	return c == ChainSolana
}

// AccountPath returns the derivation path of the first receiving key of the
// given account for the chain. Every signing entry point derives through
// this function:
//   - evm:     m/44'/60'/{account}'/0/0
//   - bitcoin: m/84'/{0|1}'/{account}'/0/0
//   - tron:    m/44'/195'/{account}'/0/0
//   - liquid:  m/84'/{1776|1}'/{account}'/0/0
//   - solana:  m/44'/501'/{account}'/0'
func AccountPath(chain Chain, account uint32, net *Network) (path.DerivationPath, error) {
	if net == nil {
		net = &Mainnet
	}

	switch chain {
	case ChainEVM:
		return path.NewAccountPath(44, 60, account, 0, 0)
	case ChainTron:
		return path.NewAccountPath(44, 195, account, 0, 0)
	case ChainSolana:
		return path.NewAccountPath(44, 501, account, path.Harden(0))
	case ChainBitcoin:
		coinType := uint32(1)
		if net.IsMainnet() {
			coinType = 0
		}
		return path.NewAccountPath(84, coinType, account, 0, 0)
	case ChainLiquid:
		coinType := uint32(1)
		if net.IsMainnet() {
			coinType = 1776
		}
		return path.NewAccountPath(84, coinType, account, 0, 0)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownChain, chain)
	}
}

// ParseAccountPath parses the given derivation path and returns its account
// index if the path is exactly the one AccountPath returns for the chain.
func ParseAccountPath(chain Chain, strPath string, net *Network) (uint32, error) {
	p, err := path.ParseDerivationPath(strPath)
	if err != nil {
		return 0, err
	}
	if len(p) < 3 || p[2] < path.Harden(0) {
		return 0, fmt.Errorf("%w %q", ErrPathMismatch, chain)
	}

	account := p[2] - path.Harden(0)
	expected, err := AccountPath(chain, account, net)
	if err != nil {
		return 0, err
	}
	if !slices.Equal(p, expected) {
		return 0, fmt.Errorf(
			"%w %q, expected %s", ErrPathMismatch, chain, expected,
		)
	}
	return account, nil
}
