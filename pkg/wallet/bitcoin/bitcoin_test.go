package bitcoin_test

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/softwallet/pkg/wallet/bitcoin"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon " +
	"abandon abandon abandon abandon about"

func TestAddress(t *testing.T) {
	t.Parallel()

	key := testKey(t, 0, &hd.Mainnet)
	addr, err := bitcoin.Address(key.PubKey(), &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", addr)

	testnetKey := testKey(t, 0, &hd.Testnet)
	testnetAddr, err := bitcoin.Address(testnetKey.PubKey(), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(testnetAddr, "tb1q"))

	otherKey := testKey(t, 1, &hd.Mainnet)
	otherAddr, err := bitcoin.Address(otherKey.PubKey(), nil)
	require.NoError(t, err)
	require.NotEqual(t, addr, otherAddr)
}

func TestSignTransaction(t *testing.T) {
	t.Parallel()

	key := testKey(t, 0, &hd.Mainnet)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		txHex := unsignedTx(t, 2)
		signedTx, err := bitcoin.SignTransaction(key, bitcoin.Transaction{
			TxHex:          txHex,
			PrevOutAmounts: []int64{100000, 50000},
		})
		require.NoError(t, err)
		require.NotNil(t, signedTx)
		require.Len(t, signedTx.Hash, 64)

		buf, err := hex.DecodeString(signedTx.Raw)
		require.NoError(t, err)
		tx := wire.NewMsgTx(wire.TxVersion)
		require.NoError(t, tx.Deserialize(bytes.NewReader(buf)))
		require.Equal(t, signedTx.Hash, tx.TxHash().String())
		for _, in := range tx.TxIn {
			require.Len(t, in.Witness, 2)
			require.Equal(t, key.PubKey().SerializeCompressed(), in.Witness[1])
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		txHex := unsignedTx(t, 1)
		tests := []struct {
			key         *btcec.PrivateKey
			tx          bitcoin.Transaction
			expectedErr error
		}{
			{nil, bitcoin.Transaction{TxHex: txHex, PrevOutAmounts: []int64{1}}, bitcoin.ErrMissingPrivateKey},
			{key, bitcoin.Transaction{}, bitcoin.ErrMissingTx},
			{key, bitcoin.Transaction{TxHex: txHex}, bitcoin.ErrMissingPrevOutAmounts},
			{key, bitcoin.Transaction{TxHex: txHex, PrevOutAmounts: []int64{0}}, bitcoin.ErrInvalidPrevOutAmount},
		}
		for _, tt := range tests {
			signedTx, err := bitcoin.SignTransaction(tt.key, tt.tx)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, signedTx)
		}

		_, err := bitcoin.SignTransaction(key, bitcoin.Transaction{TxHex: "zz"})
		require.Error(t, err)
	})
}

func unsignedTx(t *testing.T, numInputs int) string {
	tx := wire.NewMsgTx(wire.TxVersion)
	for i := 0; i < numInputs; i++ {
		hash := chainhash.DoubleHashH([]byte{byte(i)})
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&hash, uint32(i)), nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x00, 0x14,
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19,
	}))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

func testKey(t *testing.T, account uint32, net *hd.Network) *btcec.PrivateKey {
	keychain, err := hd.NewKeychain([]byte(testMnemonic))
	require.NoError(t, err)
	derivationPath, err := hd.AccountPath(hd.ChainBitcoin, account, net)
	require.NoError(t, err)
	key, err := keychain.DeriveSecp256k1(derivationPath)
	require.NoError(t, err)
	return key
}
