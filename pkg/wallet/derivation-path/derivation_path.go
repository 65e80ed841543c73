package path

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the data structure representing an HD path.
type DerivationPath []uint32

// NewAccountPath returns the path m/purpose'/coinType'/account' followed by
// the given steps, that are appended as they are.
func NewAccountPath(
	purpose, coinType, account uint32, steps ...uint32,
) (DerivationPath, error) {
	if purpose >= hdkeychain.HardenedKeyStart ||
		coinType >= hdkeychain.HardenedKeyStart {
		return nil, ErrOutOfRangeIndex
	}
	if account >= hdkeychain.HardenedKeyStart {
		return nil, ErrOutOfRangeAccount
	}

	path := DerivationPath{Harden(purpose), Harden(coinType), Harden(account)}
	return append(path, steps...), nil
}

// Harden returns the hardened form of the given index.
func Harden(index uint32) uint32 {
	return index + hdkeychain.HardenedKeyStart
}

// IsHardened returns whether every step of the path is hardened.
func (path DerivationPath) IsHardened() bool {
	for _, step := range path {
		if step < hdkeychain.HardenedKeyStart {
			return false
		}
	}
	return true
}

func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= hdkeychain.HardenedKeyStart {
			component -= hdkeychain.HardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

// ParseDerivationPath parses a path like m/44'/60'/0'/0/0. The leading m is
// optional and hardened steps are marked with a trailing apostrophe.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strPath == "" {
		return nil, ErrMissingDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if len(elems) < 2 || containsEmptyString(elems) {
		return nil, ErrMalformedDerivationPath
	}
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var offset uint32
		if strings.HasSuffix(elem, "'") {
			offset = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		index, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("invalid step %q in path", elem)
		}
		max := big.NewInt(int64(math.MaxUint32 - offset))
		if index.Sign() < 0 || index.Cmp(max) > 0 {
			return nil, fmt.Errorf("step %v must be in range [0, %v]", index, max)
		}
		path = append(path, offset+uint32(index.Uint64()))
	}
	return path, nil
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if s == "" {
			return true
		}
	}
	return false
}
