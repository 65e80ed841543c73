package bitcoin

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Address returns the native segwit (P2WPKH) address of the given key.
func Address(key *btcec.PublicKey, net *chaincfg.Params) (string, error) {
	if net == nil {
		net = &chaincfg.MainNetParams
	}
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(key.SerializeCompressed()), net,
	)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// Transaction is an unsigned transaction spending only P2WPKH outputs owned
// by the signing key.
type Transaction struct {
	TxHex string
	// PrevOutAmounts are the amounts in sats of the spent outputs, one per
	// input, in input order.
	PrevOutAmounts []int64
	SigHashType    txscript.SigHashType
}

func (t Transaction) validate() (*wire.MsgTx, error) {
	if t.TxHex == "" {
		return nil, ErrMissingTx
	}
	buf, err := hex.DecodeString(t.TxHex)
	if err != nil {
		return nil, fmt.Errorf("invalid tx hex: %w", err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("invalid tx: %w", err)
	}
	if len(tx.TxIn) <= 0 {
		return nil, ErrMissingInputs
	}
	if len(t.PrevOutAmounts) != len(tx.TxIn) {
		return nil, ErrMissingPrevOutAmounts
	}
	for _, amount := range t.PrevOutAmounts {
		if amount <= 0 {
			return nil, ErrInvalidPrevOutAmount
		}
	}
	return tx, nil
}

func (t Transaction) sighashType() txscript.SigHashType {
	if t.SigHashType == 0 {
		return txscript.SigHashAll
	}
	return t.SigHashType
}

// SignedTransaction is the hex encoded signed transaction and its id.
type SignedTransaction struct {
	Raw  string
	Hash string
}

// SignTransaction signs every input of the given transaction with key.
func SignTransaction(
	key *btcec.PrivateKey, tx Transaction,
) (*SignedTransaction, error) {
	if key == nil {
		return nil, ErrMissingPrivateKey
	}
	msgTx, err := tx.validate()
	if err != nil {
		return nil, err
	}

	script, err := witnessScript(key.PubKey())
	if err != nil {
		return nil, err
	}

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(msgTx.TxIn))
	for i, in := range msgTx.TxIn {
		prevOuts[in.PreviousOutPoint] = wire.NewTxOut(tx.PrevOutAmounts[i], script)
	}
	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(msgTx, fetcher)

	for i := range msgTx.TxIn {
		amount := tx.PrevOutAmounts[i]
		witness, err := txscript.WitnessSignature(
			msgTx, sigHashes, i, amount, script, tx.sighashType(), key, true,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to sign input %d: %w", i, err)
		}
		msgTx.TxIn[i].Witness = witness

		vm, err := txscript.NewEngine(
			script, msgTx, i, txscript.StandardVerifyFlags, nil, sigHashes,
			amount, fetcher,
		)
		if err != nil {
			return nil, err
		}
		if err := vm.Execute(); err != nil {
			return nil, fmt.Errorf(
				"signature verification failed for input %d: %w", i, err,
			)
		}
	}

	var buf bytes.Buffer
	if err := msgTx.Serialize(&buf); err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Raw:  hex.EncodeToString(buf.Bytes()),
		Hash: msgTx.TxHash().String(),
	}, nil
}

func witnessScript(key *btcec.PublicKey) ([]byte, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(key.SerializeCompressed()), &chaincfg.MainNetParams,
	)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}
