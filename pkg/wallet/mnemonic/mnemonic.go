package mnemonic

import (
	"bytes"
	"crypto/sha512"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrInvalidEntropySize = fmt.Errorf("entropy size must be 128 or 256")
	ErrInvalidMnemonic    = fmt.Errorf("invalid mnemonic")
)

type NewMnemonicArgs struct {
	EntropySize uint32
}

func (a NewMnemonicArgs) validate() error {
	if a.EntropySize > 0 {
		if a.EntropySize != 128 && a.EntropySize != 256 {
			return ErrInvalidEntropySize
		}
	}
	return nil
}

// NewMnemonic returns a new mnemonic as a list of words:
//   - EntropySize: 128 (default) -> 12-words mnemonic.
//   - EntropySize: 256 -> 24-words mnemonic.
func NewMnemonic(args NewMnemonicArgs) ([]string, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	if args.EntropySize == 0 {
		args.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(int(args.EntropySize))
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return strings.Split(mnemonic, " "), nil
}

// IsValid returns whether the space separated mnemonic is made of words of
// the english wordlist and has a valid checksum.
func IsValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// ToSeed returns the 64-bytes BIP-39 seed of the given mnemonic, with empty
// passphrase. The mnemonic is taken as a byte slice so that callers can clear
// it. Only the number of words is checked, the mnemonic is expected to be
// validated when first stored.
func ToSeed(mnemonic []byte) ([]byte, error) {
	n := len(bytes.Fields(mnemonic))
	if n < 12 || n > 24 || n%3 != 0 {
		return nil, ErrInvalidMnemonic
	}
	return pbkdf2.Key(mnemonic, []byte("mnemonic"), 2048, 64, sha512.New), nil
}
