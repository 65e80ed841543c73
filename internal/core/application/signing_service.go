package application

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/softwallet/internal/core/domain"
	"github.com/vulpemventures/softwallet/pkg/wallet/bitcoin"
	"github.com/vulpemventures/softwallet/pkg/wallet/evm"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
	"github.com/vulpemventures/softwallet/pkg/wallet/liquid"
	"github.com/vulpemventures/softwallet/pkg/wallet/solana"
	"github.com/vulpemventures/softwallet/pkg/wallet/tron"
)

// SigningService signs messages, typed data and transactions with the keys
// derived from the seed of a wallet group, in one of two modes:
//   - with group: the group must be unlocked and its session seed is used.
//     The session is left untouched.
//   - with pin: the pin is verified and the seed decrypted for the duration
//     of the call only. No session is ever created, and the state of an
//     existing one is not considered.
//
// The private key of any account is derived at hd.AccountPath(chain,
// accountIndex) and never leaves this service. An empty group id refers to
// the primary group.
type SigningService struct {
	groups   *GroupService
	network  *hd.Network
	notifier *NotificationService

	log func(format string, a ...interface{})
}

func NewSigningService(
	groupSvc *GroupService, net *hd.Network,
) *SigningService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("signing service: %s", format)
		log.Debugf(format, a...)
	}
	if net == nil {
		net = &hd.Mainnet
	}
	return &SigningService{groupSvc, net, groupSvc.notifier, logFn}
}

// seedSource identifies the group and mode used to resolve a seed.
type seedSource struct {
	groupID string
	pin     string
	oneShot bool
}

func withGroup(groupID string) seedSource {
	return seedSource{groupID: groupID}
}

func withPin(groupID, pin string) seedSource {
	return seedSource{groupID: groupID, pin: pin, oneShot: true}
}

func (ss *SigningService) SignMessageWithGroup(
	ctx context.Context, groupID string, accountIndex uint32, message string,
) (string, error) {
	return ss.signMessage(ctx, withGroup(groupID), accountIndex, message)
}

func (ss *SigningService) SignMessageWithPin(
	ctx context.Context, groupID, pin string, accountIndex uint32,
	message string,
) (string, error) {
	return ss.signMessage(ctx, withPin(groupID, pin), accountIndex, message)
}

func (ss *SigningService) SignTypedDataWithGroup(
	ctx context.Context, groupID string, accountIndex uint32,
	data evm.TypedData,
) (string, error) {
	return ss.signTypedData(ctx, withGroup(groupID), accountIndex, data)
}

func (ss *SigningService) SignTypedDataWithPin(
	ctx context.Context, groupID, pin string, accountIndex uint32,
	data evm.TypedData,
) (string, error) {
	return ss.signTypedData(ctx, withPin(groupID, pin), accountIndex, data)
}

func (ss *SigningService) SignTransactionWithGroup(
	ctx context.Context, groupID string, accountIndex uint32,
	tx evm.Transaction,
) (*evm.SignedTransaction, error) {
	return ss.signTransaction(ctx, withGroup(groupID), accountIndex, tx)
}

func (ss *SigningService) SignTransactionWithPin(
	ctx context.Context, groupID, pin string, accountIndex uint32,
	tx evm.Transaction,
) (*evm.SignedTransaction, error) {
	return ss.signTransaction(ctx, withPin(groupID, pin), accountIndex, tx)
}

func (ss *SigningService) SignNonEvmTransactionWithGroup(
	ctx context.Context, groupID string, tx NonEvmTransaction,
) (*SignedTransaction, error) {
	return ss.signNonEvmTransaction(ctx, withGroup(groupID), tx)
}

func (ss *SigningService) SignNonEvmTransactionWithPin(
	ctx context.Context, groupID, pin string, tx NonEvmTransaction,
) (*SignedTransaction, error) {
	return ss.signNonEvmTransaction(ctx, withPin(groupID, pin), tx)
}

// GetAccount returns the public info of the account of an unlocked group.
func (ss *SigningService) GetAccount(
	ctx context.Context, groupID string, chain hd.Chain, accountIndex uint32,
) (*domain.DerivedAccount, error) {
	return ss.getAccount(ctx, withGroup(groupID), chain, accountIndex)
}

// GetAccountWithPin is like GetAccount but decrypts the seed with the pin
// instead of requiring the group to be unlocked.
func (ss *SigningService) GetAccountWithPin(
	ctx context.Context, groupID, pin string, chain hd.Chain,
	accountIndex uint32,
) (*domain.DerivedAccount, error) {
	return ss.getAccount(ctx, withPin(groupID, pin), chain, accountIndex)
}

func (ss *SigningService) signMessage(
	ctx context.Context, src seedSource, accountIndex uint32, message string,
) (signature string, err error) {
	defer ss.notify(src, hd.ChainEVM, &err)

	err = ss.withKeychain(ctx, src, func(kc *hd.Keychain) error {
		key, err := ss.deriveSecp256k1(kc, hd.ChainEVM, accountIndex)
		if err != nil {
			return err
		}
		signature, err = evm.SignMessage(key, message)
		return validationError(err)
	})
	return
}

func (ss *SigningService) signTypedData(
	ctx context.Context, src seedSource, accountIndex uint32,
	data evm.TypedData,
) (signature string, err error) {
	defer ss.notify(src, hd.ChainEVM, &err)

	err = ss.withKeychain(ctx, src, func(kc *hd.Keychain) error {
		key, err := ss.deriveSecp256k1(kc, hd.ChainEVM, accountIndex)
		if err != nil {
			return err
		}
		signature, err = evm.SignTypedData(key, data)
		return validationError(err)
	})
	return
}

func (ss *SigningService) signTransaction(
	ctx context.Context, src seedSource, accountIndex uint32,
	tx evm.Transaction,
) (signedTx *evm.SignedTransaction, err error) {
	defer ss.notify(src, hd.ChainEVM, &err)

	err = ss.withKeychain(ctx, src, func(kc *hd.Keychain) error {
		key, err := ss.deriveSecp256k1(kc, hd.ChainEVM, accountIndex)
		if err != nil {
			return err
		}
		signedTx, err = evm.SignTransaction(key, tx)
		return validationError(err)
	})
	return
}

func (ss *SigningService) signNonEvmTransaction(
	ctx context.Context, src seedSource, tx NonEvmTransaction,
) (signedTx *SignedTransaction, err error) {
	defer ss.notify(src, tx.Chain, &err)

	if err = tx.validate(); err != nil {
		return nil, err
	}

	err = ss.withKeychain(ctx, src, func(kc *hd.Keychain) error {
		if tx.Chain == hd.ChainSolana {
			key, err := ss.deriveEd25519(kc, tx.AccountIndex)
			if err != nil {
				return err
			}
			res, err := solana.SignTransaction(key, *tx.Solana)
			if err != nil {
				return validationError(err)
			}
			signedTx = &SignedTransaction{
				Chain: tx.Chain, Raw: res.Raw, Hash: res.Hash,
			}
			return nil
		}

		key, err := ss.deriveSecp256k1(kc, tx.Chain, tx.AccountIndex)
		if err != nil {
			return err
		}
		signedTx, err = ss.signSecp256k1Tx(key, tx)
		return validationError(err)
	})
	return
}

func (ss *SigningService) signSecp256k1Tx(
	key *btcec.PrivateKey, tx NonEvmTransaction,
) (*SignedTransaction, error) {
	switch tx.Chain {
	case hd.ChainBitcoin:
		res, err := bitcoin.SignTransaction(key, *tx.Bitcoin)
		if err != nil {
			return nil, err
		}
		return &SignedTransaction{Chain: tx.Chain, Raw: res.Raw, Hash: res.Hash}, nil
	case hd.ChainTron:
		res, err := tron.SignTransaction(key, *tx.Tron)
		if err != nil {
			return nil, err
		}
		return &SignedTransaction{
			Chain: tx.Chain, Raw: res.RawDataHex, Hash: res.TxID,
			Signature: res.Signature,
		}, nil
	case hd.ChainLiquid:
		res, err := liquid.SignPset(key, *tx.Liquid)
		if err != nil {
			return nil, err
		}
		return &SignedTransaction{Chain: tx.Chain, Raw: res.Raw, Hash: res.Hash}, nil
	default:
		return nil, fmt.Errorf("%w %q", hd.ErrUnknownChain, tx.Chain)
	}
}

func (ss *SigningService) getAccount(
	ctx context.Context, src seedSource, chain hd.Chain, accountIndex uint32,
) (account *domain.DerivedAccount, err error) {
	derivationPath, err := hd.AccountPath(chain, accountIndex, ss.network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	err = ss.withKeychain(ctx, src, func(kc *hd.Keychain) error {
		var addr, pubkey string

		if chain.IsEd25519() {
			key, err := ss.deriveEd25519(kc, accountIndex)
			if err != nil {
				return err
			}
			pub := key.Public().(ed25519.PublicKey)
			addr = solana.Address(pub)
			pubkey = hex.EncodeToString(pub)
		} else {
			key, err := ss.deriveSecp256k1(kc, chain, accountIndex)
			if err != nil {
				return err
			}
			if addr, err = ss.secp256k1Address(chain, key.PubKey()); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrDerivationFailure, err)
			}
			pubkey = hex.EncodeToString(key.PubKey().SerializeCompressed())
		}

		groupID := src.groupID
		if isPrimary(groupID) {
			groupID = domain.PrimaryGroupID
		}
		account = &domain.DerivedAccount{
			GroupID:        groupID,
			Chain:          string(chain),
			AccountIndex:   accountIndex,
			DerivationPath: derivationPath.String(),
			Address:        addr,
			PublicKey:      pubkey,
		}
		return nil
	})
	return
}

func (ss *SigningService) secp256k1Address(
	chain hd.Chain, pubkey *btcec.PublicKey,
) (string, error) {
	switch chain {
	case hd.ChainEVM:
		return evm.Address(pubkey)
	case hd.ChainBitcoin:
		return bitcoin.Address(pubkey, ss.network.Bitcoin)
	case hd.ChainTron:
		return tron.Address(pubkey), nil
	case hd.ChainLiquid:
		return liquid.Address(pubkey, ss.network.Liquid)
	default:
		return "", fmt.Errorf("%w %q", hd.ErrUnknownChain, chain)
	}
}

// withKeychain resolves the seed of the source and runs fn with the keychain
// built from it. The keychain is wiped when fn returns.
func (ss *SigningService) withKeychain(
	ctx context.Context, src seedSource, fn func(kc *hd.Keychain) error,
) error {
	var (
		seed []byte
		err  error
	)
	if src.oneShot {
		seed, err = ss.groups.openSeed(ctx, src.groupID, src.pin)
	} else {
		seed, err = ss.groups.sessionSeed(src.groupID)
	}
	if err != nil {
		return err
	}
	defer clear(seed)

	kc, err := hd.NewKeychain(seed)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDerivationFailure, err)
	}
	defer kc.Wipe()

	return fn(kc)
}

func (ss *SigningService) deriveSecp256k1(
	kc *hd.Keychain, chain hd.Chain, accountIndex uint32,
) (*btcec.PrivateKey, error) {
	derivationPath, err := hd.AccountPath(chain, accountIndex, ss.network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivationFailure, err)
	}
	key, err := kc.DeriveSecp256k1(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivationFailure, err)
	}
	return key, nil
}

func (ss *SigningService) deriveEd25519(
	kc *hd.Keychain, accountIndex uint32,
) (ed25519.PrivateKey, error) {
	derivationPath, err := hd.AccountPath(hd.ChainSolana, accountIndex, ss.network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivationFailure, err)
	}
	key, err := kc.DeriveEd25519(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivationFailure, err)
	}
	return key, nil
}

func (ss *SigningService) notify(src seedSource, chain hd.Chain, err *error) {
	mode := "session"
	if src.oneShot {
		mode = "pin"
	}
	if *err != nil {
		ss.log("%s sign request for %s failed: %s", mode, chain, *err)
	}

	groupID := src.groupID
	if isPrimary(groupID) {
		groupID = domain.PrimaryGroupID
	}
	ss.notifier.publish(domain.WalletEvent{
		EventType: domain.WalletSignRequest,
		GroupID:   groupID,
		Chain:     string(chain),
		OneShot:   src.oneShot,
		Err:       *err,
	})
}

// validationError marks errors returned by the chain signers, all caused by
// malformed input, as validation errors.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}
