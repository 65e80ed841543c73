package path_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	path "github.com/vulpemventures/softwallet/pkg/wallet/derivation-path"
	"github.com/stretchr/testify/require"
)

func TestParseDerivationPath(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			derivationPath string
			expected       path.DerivationPath
		}{
			// Plain absolute derivation paths
			{"m/84'/0'/0'/0", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, 0}},
			{"m/84'/0'/0'/128", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, 128}},
			{"m/84'/0'/0'/0'", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart}},
			{"m/84'/0'/0'/128'", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart + 0, hdkeychain.HardenedKeyStart + 128}},
			{"m/2147483732/2147483648/2147483648/0", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, 0}},
			{"m/2147483732/2147483648/2147483648/2147483648", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart}},

			// Hexadecimal absolute derivation paths
			{"m/0x54'/0x00'/0x00'/0x00", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, 0}},
			{"m/0x54'/0x00'/0x00'/0x80", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, 128}},
			{"m/0x54'/0x00'/0x00'/0x00'", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart}},
			{"m/0x54'/0x00'/0x00'/0x80'", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart + 128}},
			{"m/0x80000054/0x80000000/0x80000000/0x00", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, 0}},
			{"m/0x80000054/0x80000000/0x80000000/0x80000000", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart}},

			// Weird inputs just to ensure they work
			{"	m  /   84			'\n/\n   00	\n\n\t'   /\n0 ' /\t\t	0", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart, 0}},

			// Relative derivation paths
			{"84'/0'/0/0", path.DerivationPath{hdkeychain.HardenedKeyStart + 84, hdkeychain.HardenedKeyStart, 0, 0}},
			{"0'/0/0", path.DerivationPath{hdkeychain.HardenedKeyStart, 0, 0}},
			{"0/0", path.DerivationPath{0, 0}},
		}
		for _, tt := range tests {
			path, err := path.ParseDerivationPath(tt.derivationPath)
			require.NoError(t, err)
			require.Equal(t, tt.expected, path)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			derivationPath string
			expectedErr    error
		}{
			// Invalid derivation paths
			{"", path.ErrMissingDerivationPath},               // Empty relative derivation path
			{"m", path.ErrMalformedDerivationPath},            // Empty absolute derivation path
			{"m/", path.ErrMalformedDerivationPath},           // Missing last derivation component
			{"/84'/0'/0'/0", path.ErrMalformedDerivationPath}, // Absolute path without m prefix, might be user error
			{"m/2147483648'", nil},                            // Overflows 32 bit integer (dynamic values on error, not constant)
			{"m/-1'", nil},                                    // Cannot contain negative number (dynamic values on error, not constant)
			{"0", path.ErrMalformedDerivationPath},            // Bad derivation path
		}

		for _, tt := range tests {
			_, err := path.ParseDerivationPath(tt.derivationPath)
			require.Error(t, err)
			if tt.expectedErr != nil {
				require.EqualError(t, tt.expectedErr, err.Error())
			}
		}
	})
}

func TestNewAccountPath(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			purpose  uint32
			coinType uint32
			account  uint32
			steps    []uint32
			expected string
		}{
			{44, 60, 0, []uint32{0, 0}, "m/44'/60'/0'/0/0"},
			{44, 60, 7, []uint32{0, 0}, "m/44'/60'/7'/0/0"},
			{84, 0, 1, []uint32{0, 0}, "m/84'/0'/1'/0/0"},
			{44, 501, 2, []uint32{path.Harden(0)}, "m/44'/501'/2'/0'"},
			{84, 1776, 0, nil, "m/84'/1776'/0'"},
		}

		for _, tt := range tests {
			p, err := path.NewAccountPath(tt.purpose, tt.coinType, tt.account, tt.steps...)
			require.NoError(t, err)
			require.Equal(t, tt.expected, p.String())

			parsed, err := path.ParseDerivationPath(tt.expected)
			require.NoError(t, err)
			require.Equal(t, p, parsed)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := path.NewAccountPath(44, 60, hdkeychain.HardenedKeyStart)
		require.ErrorIs(t, err, path.ErrOutOfRangeAccount)

		_, err = path.NewAccountPath(hdkeychain.HardenedKeyStart+44, 60, 0)
		require.ErrorIs(t, err, path.ErrOutOfRangeIndex)
	})
}

func TestIsHardened(t *testing.T) {
	hardened, _ := path.ParseDerivationPath("m/44'/501'/0'/0'")
	require.True(t, hardened.IsHardened())

	notHardened, _ := path.ParseDerivationPath("m/44'/60'/0'/0/0")
	require.False(t, notHardened.IsHardened())
}
