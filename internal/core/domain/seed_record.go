package domain

import (
	"bytes"
	"time"
)

// PrimaryGroupID identifies the default wallet group.
const PrimaryGroupID = "primary"

// SeedRecord is the persisted form of a wallet group: its seed phrase
// encrypted with the group pin, plus an independently salted hash of the same
// pin used for verification only.
type SeedRecord struct {
	GroupID    string
	Label      string
	Ciphertext []byte
	PinHash    []byte
	PinSalt    []byte
	CreatedAt  int64
}

// NewSeedRecord validates and normalizes the seed phrase, then returns a new
// record for the given group with the seed encrypted with pin.
func NewSeedRecord(
	cipher SeedCipher, groupID, label, seedPhrase, pin string,
) (*SeedRecord, error) {
	if groupID == "" {
		return nil, ErrMissingGroupID
	}
	if pin == "" {
		return nil, ErrMissingPin
	}
	seed, err := ValidateSeedPhrase(seedPhrase)
	if err != nil {
		return nil, err
	}

	record := &SeedRecord{
		GroupID:   groupID,
		Label:     label,
		CreatedAt: time.Now().Unix(),
	}
	if err := record.seal(cipher, []byte(seed), pin); err != nil {
		return nil, err
	}
	return record, nil
}

// IsPrimary returns whether the record belongs to the primary wallet group.
func (r *SeedRecord) IsPrimary() bool {
	return r.GroupID == PrimaryGroupID
}

// Open verifies the pin and decrypts the seed phrase. A pin that does not
// match the stored hash never reaches the decryption step. The returned
// phrase is owned by the caller, that should clear it once done.
func (r *SeedRecord) Open(cipher SeedCipher, pin string) ([]byte, error) {
	if len(r.PinHash) <= 0 || len(r.PinSalt) <= 0 || len(r.Ciphertext) <= 0 {
		return nil, ErrMalformedSeedRecord
	}
	if pin == "" {
		return nil, ErrIncorrectPin
	}
	if !cipher.VerifyPin([]byte(pin), r.PinHash, r.PinSalt) {
		return nil, ErrIncorrectPin
	}

	seed, err := cipher.Decrypt(r.Ciphertext, []byte(pin))
	if err != nil {
		return nil, ErrCorruptedData
	}
	// The plaintext is authenticated, only records sealed with something
	// other than a normalized phrase can fail here.
	if n := len(bytes.Fields(seed)); n != 12 && n != 24 {
		clear(seed)
		return nil, ErrCorruptedData
	}
	return seed, nil
}

// ChangePin re-encrypts the seed with newPin. Salts, nonce and pin hash are
// all regenerated.
func (r *SeedRecord) ChangePin(cipher SeedCipher, currentPin, newPin string) error {
	if newPin == "" {
		return ErrMissingPin
	}
	seed, err := r.Open(cipher, currentPin)
	if err != nil {
		return err
	}
	defer clear(seed)

	return r.seal(cipher, seed, newPin)
}

func (r *SeedRecord) seal(cipher SeedCipher, seed []byte, pin string) error {
	ciphertext, err := cipher.Encrypt(seed, []byte(pin))
	if err != nil {
		return err
	}
	pinHash, pinSalt, err := cipher.HashPin([]byte(pin), nil)
	if err != nil {
		return err
	}

	r.Ciphertext = ciphertext
	r.PinHash = pinHash
	r.PinSalt = pinSalt
	return nil
}
