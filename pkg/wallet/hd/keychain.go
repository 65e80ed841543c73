package hd

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	path "github.com/vulpemventures/softwallet/pkg/wallet/derivation-path"
	"github.com/vulpemventures/softwallet/pkg/wallet/mnemonic"
)

var (
	ErrMissingDerivationPath = fmt.Errorf("missing derivation path")
	ErrNonHardenedPath       = fmt.Errorf("ed25519 derivation supports only hardened steps")

	ed25519SeedKey = []byte("ed25519 seed")
)

// Keychain derives signing keys from a BIP-39 seed.
type Keychain struct {
	seed []byte
}

// NewKeychain returns the Keychain for the given mnemonic. The caller keeps
// ownership of words and can clear them right after.
func NewKeychain(words []byte) (*Keychain, error) {
	seed, err := mnemonic.ToSeed(words)
	if err != nil {
		return nil, err
	}
	return &Keychain{seed}, nil
}

// NewKeychainFromSeed returns the Keychain for the given BIP-39 seed.
func NewKeychainFromSeed(seed []byte) *Keychain {
	buf := make([]byte, len(seed))
	copy(buf, seed)
	return &Keychain{buf}
}

// DeriveSecp256k1 derives the BIP-32 private key at the given path.
func (k *Keychain) DeriveSecp256k1(
	derivationPath path.DerivationPath,
) (*btcec.PrivateKey, error) {
	if len(derivationPath) <= 0 {
		return nil, ErrMissingDerivationPath
	}

	hdNode, err := hdkeychain.NewMaster(k.seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, step := range derivationPath {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, err
		}
	}

	return hdNode.ECPrivKey()
}

// DeriveEd25519 derives the SLIP-10 ed25519 private key at the given path.
func (k *Keychain) DeriveEd25519(
	derivationPath path.DerivationPath,
) (ed25519.PrivateKey, error) {
	if len(derivationPath) <= 0 {
		return nil, ErrMissingDerivationPath
	}
	if !derivationPath.IsHardened() {
		return nil, ErrNonHardenedPath
	}

	key, chainCode := slip10Split(ed25519SeedKey, k.seed)
	for _, step := range derivationPath {
		data := make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, key...)
		data = binary.BigEndian.AppendUint32(data, step)
		key, chainCode = slip10Split(chainCode, data)
	}

	return ed25519.NewKeyFromSeed(key), nil
}

// Wipe zeroes the seed held by the keychain. The keychain is unusable
// afterwards.
func (k *Keychain) Wipe() {
	for i := range k.seed {
		k.seed[i] = 0
	}
	k.seed = nil
}

func slip10Split(key, data []byte) ([]byte, []byte) {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
