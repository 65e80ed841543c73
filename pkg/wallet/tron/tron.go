package tron

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix is the version byte of every mainnet address.
const AddressPrefix = byte(0x41)

var (
	ErrMissingPrivateKey = fmt.Errorf("missing private key")
	ErrMissingRawData    = fmt.Errorf("missing transaction raw data")
	ErrInvalidRawData    = fmt.Errorf("invalid transaction raw data hex")
	ErrInvalidAddress    = fmt.Errorf("invalid address")
)

// Address returns the base58check address (T...) of the given key.
func Address(key *btcec.PublicKey) string {
	pubkey := key.SerializeUncompressed()
	hash := crypto.Keccak256(pubkey[1:])
	return base58.CheckEncode(hash[12:], AddressPrefix)
}

// ValidateAddress returns an error if addr is not a well formed address.
func ValidateAddress(addr string) error {
	buf, version, err := base58.CheckDecode(addr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if version != AddressPrefix || len(buf) != 20 {
		return ErrInvalidAddress
	}
	return nil
}

// Transaction wraps the protobuf serialized raw_data of a transaction as
// returned by a node's createtransaction endpoints.
type Transaction struct {
	RawDataHex string
}

func (t Transaction) rawData() ([]byte, error) {
	if t.RawDataHex == "" {
		return nil, ErrMissingRawData
	}
	buf, err := hex.DecodeString(strings.TrimPrefix(t.RawDataHex, "0x"))
	if err != nil || len(buf) <= 0 {
		return nil, ErrInvalidRawData
	}
	return buf, nil
}

// SignedTransaction is the hex encoded 65 bytes signature of a transaction
// and its id.
type SignedTransaction struct {
	RawDataHex string
	Signature  string
	TxID       string
}

// SignTransaction signs sha256(raw_data) with key.
func SignTransaction(
	key *btcec.PrivateKey, tx Transaction,
) (*SignedTransaction, error) {
	if key == nil {
		return nil, ErrMissingPrivateKey
	}
	rawData, err := tx.rawData()
	if err != nil {
		return nil, err
	}

	prvkey, err := crypto.ToECDSA(key.Serialize())
	if err != nil {
		return nil, err
	}
	txID := chainhash.HashB(rawData)
	sig, err := crypto.Sign(txID, prvkey)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27

	return &SignedTransaction{
		RawDataHex: hex.EncodeToString(rawData),
		Signature:  hex.EncodeToString(sig),
		TxID:       hex.EncodeToString(txID),
	}, nil
}

// RecoverSigner returns the address that produced the given signature of
// the transaction.
func RecoverSigner(tx Transaction, signature string) (string, error) {
	rawData, err := tx.rawData()
	if err != nil {
		return "", err
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("invalid signature")
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pubkey, err := crypto.Ecrecover(chainhash.HashB(rawData), sig)
	if err != nil {
		return "", err
	}
	key, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return "", err
	}
	return Address(key), nil
}
