package aes256gcm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/vulpemventures/softwallet/internal/core/domain"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinIterations is the lowest accepted pbkdf2 iteration count.
	MinIterations     = 100_000
	DefaultIterations = 210_000

	saltLen  = 16
	nonceLen = 12
	keyLen   = 32
)

var (
	ErrTooFewIterations = fmt.Errorf(
		"pbkdf2 iterations must be at least %d", MinIterations,
	)
	ErrMissingPin = fmt.Errorf("missing pin")
)

type aes256gcm struct {
	iterations int
}

// NewAES256GCMCipher returns a cipher deriving its keys with
// pbkdf2-sha256 and encrypting with aes-256-gcm.
func NewAES256GCMCipher(iterations int) (domain.SeedCipher, error) {
	if iterations < MinIterations {
		return nil, ErrTooFewIterations
	}
	return &aes256gcm{iterations}, nil
}

// NewInsecureCipher is like NewAES256GCMCipher but doesn't enforce any lower
// bound to the iteration count. To be used only in tests.
func NewInsecureCipher(iterations int) domain.SeedCipher {
	if iterations <= 0 {
		iterations = 1
	}
	return &aes256gcm{iterations}
}

func (c *aes256gcm) Encrypt(seed, pin []byte) ([]byte, error) {
	if len(pin) <= 0 {
		return nil, ErrMissingPin
	}

	salt, err := randomBytes(saltLen)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(nonceLen)
	if err != nil {
		return nil, err
	}

	key := c.deriveKey(pin, salt)
	defer clear(key)

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, saltLen+nonceLen+len(seed)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	return aead.Seal(blob, nonce, seed, nil), nil
}

func (c *aes256gcm) Decrypt(blob, pin []byte) ([]byte, error) {
	if len(blob) <= saltLen+nonceLen {
		return nil, domain.ErrCorruptedData
	}
	salt := blob[:saltLen]
	nonce := blob[saltLen : saltLen+nonceLen]
	ciphertext := blob[saltLen+nonceLen:]

	key := c.deriveKey(pin, salt)
	defer clear(key)

	aead, err := newAEAD(key)
	if err != nil {
		return nil, domain.ErrCorruptedData
	}
	seed, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, domain.ErrCorruptedData
	}
	return seed, nil
}

func (c *aes256gcm) HashPin(pin, salt []byte) ([]byte, []byte, error) {
	if len(pin) <= 0 {
		return nil, nil, ErrMissingPin
	}
	if len(salt) <= 0 {
		var err error
		if salt, err = randomBytes(saltLen); err != nil {
			return nil, nil, err
		}
	}
	return c.deriveKey(pin, salt), salt, nil
}

func (c *aes256gcm) VerifyPin(pin, hash, salt []byte) bool {
	if len(pin) <= 0 || len(hash) <= 0 || len(salt) <= 0 {
		return false
	}
	computed := c.deriveKey(pin, salt)
	defer clear(computed)
	return subtle.ConstantTimeCompare(computed, hash) == 1
}

func (c *aes256gcm) deriveKey(pin, salt []byte) []byte {
	return pbkdf2.Key(pin, salt, c.iterations, keyLen, sha256.New)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}
