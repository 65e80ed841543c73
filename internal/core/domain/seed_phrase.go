package domain

import (
	"strings"

	"github.com/vulpemventures/softwallet/pkg/wallet/mnemonic"
)

// NormalizeSeedPhrase trims, lowercases and collapses any whitespace of the
// given phrase so that words are joined by a single space.
func NormalizeSeedPhrase(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// ValidateSeedPhrase returns the normalized form of the given phrase if it is
// a valid 12 or 24 words mnemonic.
func ValidateSeedPhrase(phrase string) (string, error) {
	normalized := NormalizeSeedPhrase(phrase)
	words := strings.Split(normalized, " ")
	if len(words) != 12 && len(words) != 24 {
		return "", ErrInvalidWordCount
	}
	if !mnemonic.IsValid(normalized) {
		return "", ErrInvalidSeedPhrase
	}
	return normalized, nil
}
