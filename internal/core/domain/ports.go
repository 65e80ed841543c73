package domain

// SeedCipher defines the methods a cypher must implement to encrypt or
// decrypt a seed with a pin, and to hash the pin for later verification.
type SeedCipher interface {
	// Encrypt returns salt || nonce || ciphertext. Every call uses fresh
	// randomness so the same inputs never produce the same blob.
	Encrypt(seed, pin []byte) ([]byte, error)
	// Decrypt returns ErrCorruptedData if the blob does not authenticate
	// with the given pin.
	Decrypt(blob, pin []byte) ([]byte, error)
	// HashPin hashes the pin with the given salt, or with a freshly generated
	// one if salt is empty. The salt used is always returned.
	HashPin(pin, salt []byte) (hash []byte, usedSalt []byte, err error)
	// VerifyPin recomputes the hash of the pin and compares it in constant
	// time with the stored one.
	VerifyPin(pin, hash, salt []byte) bool
}
