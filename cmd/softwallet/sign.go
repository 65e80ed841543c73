package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/txscript"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/spf13/cobra"
	"github.com/vulpemventures/softwallet/internal/core/application"
	"github.com/vulpemventures/softwallet/pkg/wallet/bitcoin"
	"github.com/vulpemventures/softwallet/pkg/wallet/evm"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
	"github.com/vulpemventures/softwallet/pkg/wallet/liquid"
	"github.com/vulpemventures/softwallet/pkg/wallet/solana"
	"github.com/vulpemventures/softwallet/pkg/wallet/tron"
)

var (
	payload        string
	txHex          string
	prevOutAmounts []int64
	sigHashType    uint32
	rawBase64      string
	recipient      string
	lamports       uint64
	blockhash      string

	signMessageCmd = &cobra.Command{
		Use:   "message <message>",
		Short: "sign a message with an evm account",
		Long:  "this command signs the given message as defined by EIP-191",
		Args:  cobra.ExactArgs(1),
		RunE:  signMessage,
	}
	signTypedDataCmd = &cobra.Command{
		Use:   "typed-data <json|@file>",
		Short: "sign typed data with an evm account",
		Long: "this command signs the given EIP-712 typed data, passed as " +
			"json either inline or from file",
		Args: cobra.ExactArgs(1),
		RunE: signTypedData,
	}
	signTxCmd = &cobra.Command{
		Use:   "tx <json|@file>",
		Short: "sign an evm transaction",
		Long: "this command signs the given evm transaction, passed as json " +
			"either inline or from file. Amounts can be decimal or 0x-prefixed " +
			"hex strings",
		Args: cobra.ExactArgs(1),
		RunE: signTx,
	}
	signNonEvmCmd = &cobra.Command{
		Use:   "nonevm",
		Short: "sign a bitcoin, solana, tron or liquid transaction",
		Long: "this command signs a transaction for any non evm chain, the " +
			"flags to use depend on the chosen chain",
		RunE: signNonEvm,
	}
	signCmd = &cobra.Command{
		Use:   "sign",
		Short: "sign messages and transactions",
		Long: "this command lets you sign with any account of a wallet group. " +
			"The seed is decrypted with the given pin for the time of the " +
			"request only",
	}
)

func init() {
	for _, cmd := range []*cobra.Command{
		signMessageCmd, signTypedDataCmd, signTxCmd, signNonEvmCmd,
	} {
		cmd.Flags().StringVar(&groupID, "group", "", "wallet group id, defaults to the primary one")
		cmd.Flags().StringVar(&pin, "pin", "", "encryption pin")
		cmd.Flags().Uint32Var(&accountIndex, "account", 0, "account index")
		cmd.MarkFlagRequired("pin")
	}

	signNonEvmCmd.Flags().StringVar(&chainName, "chain", "", "one of bitcoin, solana, tron, liquid")
	signNonEvmCmd.Flags().StringVar(&txHex, "tx-hex", "", "bitcoin unsigned tx hex or tron raw_data hex")
	signNonEvmCmd.Flags().Int64SliceVar(&prevOutAmounts, "prevout-amounts", nil, "bitcoin spent amounts in sats, in input order")
	signNonEvmCmd.Flags().Uint32Var(&sigHashType, "sighash", 0, "bitcoin or liquid sighash type, defaults to SIGHASH_ALL")
	signNonEvmCmd.Flags().StringVar(&rawBase64, "base64", "", "solana serialized tx or liquid pset in base64")
	signNonEvmCmd.Flags().StringVar(&recipient, "to", "", "solana transfer recipient")
	signNonEvmCmd.Flags().Uint64Var(&lamports, "lamports", 0, "solana transfer amount")
	signNonEvmCmd.Flags().StringVar(&blockhash, "blockhash", "", "solana transfer recent blockhash")
	signNonEvmCmd.MarkFlagRequired("chain")

	signCmd.AddCommand(signMessageCmd, signTypedDataCmd, signTxCmd, signNonEvmCmd)
}

// evmTxArgs is the json representation of an evm transaction.
type evmTxArgs struct {
	ChainID              *math.HexOrDecimal256 `json:"chainId"`
	Nonce                math.HexOrDecimal64   `json:"nonce"`
	To                   string                `json:"to"`
	Value                *math.HexOrDecimal256 `json:"value"`
	Gas                  math.HexOrDecimal64   `json:"gas"`
	GasPrice             *math.HexOrDecimal256 `json:"gasPrice"`
	MaxFeePerGas         *math.HexOrDecimal256 `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *math.HexOrDecimal256 `json:"maxPriorityFeePerGas"`
	Data                 hexutil.Bytes         `json:"data"`
}

func (a evmTxArgs) toTransaction() evm.Transaction {
	return evm.Transaction{
		ChainID:              toBig(a.ChainID),
		Nonce:                uint64(a.Nonce),
		To:                   a.To,
		Value:                toBig(a.Value),
		Gas:                  uint64(a.Gas),
		GasPrice:             toBig(a.GasPrice),
		MaxFeePerGas:         toBig(a.MaxFeePerGas),
		MaxPriorityFeePerGas: toBig(a.MaxPriorityFeePerGas),
		Data:                 a.Data,
	}
}

func toBig(n *math.HexOrDecimal256) *big.Int {
	if n == nil {
		return nil
	}
	return (*big.Int)(n)
}

func signMessage(_ *cobra.Command, args []string) error {
	signature, err := appCfg.SigningService().SignMessageWithPin(
		context.Background(), groupID, pin, accountIndex, args[0],
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"signature": signature})
}

func signTypedData(_ *cobra.Command, args []string) error {
	buf, err := readPayload(args[0])
	if err != nil {
		return err
	}
	var data evm.TypedData
	if err := json.Unmarshal(buf, &data); err != nil {
		return fmt.Errorf("invalid typed data: %s", err)
	}

	signature, err := appCfg.SigningService().SignTypedDataWithPin(
		context.Background(), groupID, pin, accountIndex, data,
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"signature": signature})
}

func signTx(_ *cobra.Command, args []string) error {
	buf, err := readPayload(args[0])
	if err != nil {
		return err
	}
	var txArgs evmTxArgs
	if err := json.Unmarshal(buf, &txArgs); err != nil {
		return fmt.Errorf("invalid transaction: %s", err)
	}

	signedTx, err := appCfg.SigningService().SignTransactionWithPin(
		context.Background(), groupID, pin, accountIndex, txArgs.toTransaction(),
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"rawTx": signedTx.Raw,
		"hash":  signedTx.Hash,
	})
}

func signNonEvm(_ *cobra.Command, _ []string) error {
	chain, err := hd.ParseChain(chainName)
	if err != nil {
		return err
	}

	tx := application.NonEvmTransaction{
		Chain:        chain,
		AccountIndex: accountIndex,
	}
	switch chain {
	case hd.ChainBitcoin:
		tx.Bitcoin = &bitcoin.Transaction{
			TxHex:          txHex,
			PrevOutAmounts: prevOutAmounts,
			SigHashType:    txscript.SigHashType(sigHashType),
		}
	case hd.ChainTron:
		tx.Tron = &tron.Transaction{RawDataHex: txHex}
	case hd.ChainLiquid:
		tx.Liquid = &liquid.Pset{
			PsetBase64:  rawBase64,
			SigHashType: txscript.SigHashType(sigHashType),
		}
	case hd.ChainSolana:
		tx.Solana = &solana.Transaction{RawBase64: rawBase64}
		if rawBase64 == "" {
			tx.Solana.Transfer = &solana.Transfer{
				To:              recipient,
				Lamports:        lamports,
				RecentBlockhash: blockhash,
			}
		}
	}

	signedTx, err := appCfg.SigningService().SignNonEvmTransactionWithPin(
		context.Background(), groupID, pin, tx,
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"chain":     string(signedTx.Chain),
		"rawTx":     signedTx.Raw,
		"hash":      signedTx.Hash,
		"signature": signedTx.Signature,
	})
}
