package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vulpemventures/softwallet/pkg/wallet/hd"
)

var (
	chainName      string
	accountIndex   uint32
	derivationPath string

	accountCmd = &cobra.Command{
		Use:   "account",
		Short: "get the public info of an account",
		Long: "this command returns the address, public key and derivation " +
			"path of the account of a wallet group for the given chain",
		RunE: account,
	}
)

func init() {
	accountCmd.Flags().StringVar(&groupID, "group", "", "wallet group id, defaults to the primary one")
	accountCmd.Flags().StringVar(&pin, "pin", "", "encryption pin")
	accountCmd.Flags().StringVar(&chainName, "chain", "evm", "one of evm, bitcoin, solana, tron, liquid")
	accountCmd.Flags().Uint32Var(&accountIndex, "account", 0, "account index")
	accountCmd.Flags().StringVar(&derivationPath, "path", "", "account derivation path, overrides --account")
	accountCmd.MarkFlagsMutuallyExclusive("account", "path")
	accountCmd.MarkFlagRequired("pin")
}

func account(_ *cobra.Command, _ []string) error {
	chain, err := hd.ParseChain(chainName)
	if err != nil {
		return err
	}

	index := accountIndex
	if derivationPath != "" {
		index, err = hd.ParseAccountPath(chain, derivationPath, network)
		if err != nil {
			return err
		}
	}

	account, err := appCfg.SigningService().GetAccountWithPin(
		context.Background(), groupID, pin, chain, index,
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"groupId":        account.GroupID,
		"chain":          account.Chain,
		"accountIndex":   account.AccountIndex,
		"derivationPath": account.DerivationPath,
		"address":        account.Address,
		"publicKey":      account.PublicKey,
	})
}
