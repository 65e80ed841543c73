package domain_test

import (
	"github.com/stretchr/testify/mock"
)

// SeedCipher
type mockSeedCipher struct {
	mock.Mock
}

func (m *mockSeedCipher) Encrypt(seed, pin []byte) ([]byte, error) {
	args := m.Called(seed, pin)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockSeedCipher) Decrypt(blob, pin []byte) ([]byte, error) {
	args := m.Called(blob, pin)

	var res []byte
	if a := args.Get(0); a != nil {
		res = append([]byte(nil), a.([]byte)...)
	}
	return res, args.Error(1)
}

func (m *mockSeedCipher) HashPin(pin, salt []byte) ([]byte, []byte, error) {
	args := m.Called(pin, salt)

	var hash, usedSalt []byte
	if a := args.Get(0); a != nil {
		hash = a.([]byte)
	}
	if a := args.Get(1); a != nil {
		usedSalt = a.([]byte)
	}
	return hash, usedSalt, args.Error(2)
}

func (m *mockSeedCipher) VerifyPin(pin, hash, salt []byte) bool {
	args := m.Called(pin, hash, salt)
	return args.Bool(0)
}
