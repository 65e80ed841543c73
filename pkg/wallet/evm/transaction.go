package evm

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Transaction holds the caller supplied fields of an EVM transaction.
// If MaxFeePerGas is set an EIP-1559 transaction is built, otherwise a
// legacy one priced with GasPrice. An empty To means contract creation.
type Transaction struct {
	ChainID              *big.Int
	Nonce                uint64
	To                   string
	Value                *big.Int
	Gas                  uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Data                 []byte
}

func (t Transaction) validate() error {
	if t.ChainID == nil || t.ChainID.Sign() <= 0 {
		return ErrMissingChainID
	}
	if t.Gas == 0 {
		return ErrMissingGasLimit
	}
	if t.GasPrice == nil && t.MaxFeePerGas == nil {
		return ErrMissingFee
	}
	if t.To != "" && !common.IsHexAddress(t.To) {
		return ErrInvalidToAddress
	}
	return nil
}

func (t Transaction) txData() types.TxData {
	var to *common.Address
	if t.To != "" {
		addr := common.HexToAddress(t.To)
		to = &addr
	}
	value := t.Value
	if value == nil {
		value = new(big.Int)
	}

	if t.MaxFeePerGas != nil {
		tip := t.MaxPriorityFeePerGas
		if tip == nil {
			tip = t.MaxFeePerGas
		}
		return &types.DynamicFeeTx{
			ChainID:   t.ChainID,
			Nonce:     t.Nonce,
			GasTipCap: tip,
			GasFeeCap: t.MaxFeePerGas,
			Gas:       t.Gas,
			To:        to,
			Value:     value,
			Data:      t.Data,
		}
	}

	return &types.LegacyTx{
		Nonce:    t.Nonce,
		GasPrice: t.GasPrice,
		Gas:      t.Gas,
		To:       to,
		Value:    value,
		Data:     t.Data,
	}
}

// SignedTransaction is the 0x-prefixed hex raw transaction, ready to be
// broadcasted, and its hash.
type SignedTransaction struct {
	Raw  string
	Hash string
}

// SignTransaction builds and signs the given transaction.
func SignTransaction(key *btcec.PrivateKey, tx Transaction) (*SignedTransaction, error) {
	if err := tx.validate(); err != nil {
		return nil, err
	}
	prvkey, err := toECDSA(key)
	if err != nil {
		return nil, err
	}

	signer := types.LatestSignerForChainID(tx.ChainID)
	signedTx, err := types.SignTx(types.NewTx(tx.txData()), signer, prvkey)
	if err != nil {
		return nil, err
	}
	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &SignedTransaction{
		Raw:  hexutil.Encode(raw),
		Hash: signedTx.Hash().Hex(),
	}, nil
}

// TransactionSender decodes the raw signed transaction and returns its
// sender address.
func TransactionSender(rawTx string) (string, error) {
	buf, err := hexutil.Decode(rawTx)
	if err != nil {
		return "", err
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(buf); err != nil {
		return "", err
	}
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return "", err
	}
	return sender.Hex(), nil
}
