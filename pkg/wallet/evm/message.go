package evm

import (
	"crypto/ecdsa"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Address returns the checksummed address of the given key.
func Address(key *btcec.PublicKey) (string, error) {
	pubkey, err := crypto.DecompressPubkey(key.SerializeCompressed())
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(*pubkey).Hex(), nil
}

// SignMessage returns the personal-sign signature of message, 0x-prefixed
// hex encoded. A 0x-prefixed hex message is decoded before being signed.
func SignMessage(key *btcec.PrivateKey, message string) (string, error) {
	if key == nil {
		return "", ErrMissingPrivateKey
	}
	return signHash(key, accounts.TextHash(messageBytes(message)))
}

// RecoverMessageSigner returns the address that produced the given
// personal-sign signature of message.
func RecoverMessageSigner(message, signature string) (string, error) {
	return recoverSigner(accounts.TextHash(messageBytes(message)), signature)
}

func messageBytes(message string) []byte {
	if strings.HasPrefix(message, "0x") || strings.HasPrefix(message, "0X") {
		if buf, err := hexutil.Decode("0x" + message[2:]); err == nil {
			return buf
		}
	}
	return []byte(message)
}

func signHash(key *btcec.PrivateKey, hash []byte) (string, error) {
	prvkey, err := toECDSA(key)
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(hash, prvkey)
	if err != nil {
		return "", err
	}
	// v in {27, 28}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func recoverSigner(hash []byte, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", ErrInvalidSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pubkey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pubkey).Hex(), nil
}

// toECDSA converts the key to the curve implementation used by go-ethereum.
func toECDSA(key *btcec.PrivateKey) (*ecdsa.PrivateKey, error) {
	if key == nil {
		return nil, ErrMissingPrivateKey
	}
	return crypto.ToECDSA(key.Serialize())
}
