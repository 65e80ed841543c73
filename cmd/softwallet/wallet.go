package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	mnemonic   string
	pin        string
	currentPin string
	newPin     string
	force      bool

	walletGenSeedCmd = &cobra.Command{
		Use:   "genseed",
		Short: "generate a random mnemonic",
		Long: "this command lets you generate a new random 12-words mnemonic " +
			"to set up a new wallet from scratch",
		RunE: walletGenSeed,
	}
	walletSetupCmd = &cobra.Command{
		Use:   "setup",
		Short: "set up the primary wallet",
		Long: "this command lets you set up the primary wallet with the given " +
			"mnemonic (or let me create one for you), encrypted with your pin",
		RunE: walletSetup,
	}
	walletStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "get wallet status",
		Long: "this command returns info about the status of the primary " +
			"wallet, like if it's set up",
		RunE: walletStatus,
	}
	walletChangePinCmd = &cobra.Command{
		Use:   "changepin",
		Short: "change the primary wallet pin",
		Long:  "this command lets you change the encryption pin of the primary wallet",
		RunE:  walletChangePin,
	}
	walletResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "erase every wallet group",
		Long: "this command irreversibly deletes the encrypted seeds of the " +
			"primary wallet and of any other wallet group",
		RunE: walletReset,
	}
)

func init() {
	walletSetupCmd.Flags().StringVar(
		&mnemonic, "mnemonic", "", "space separated word list as wallet seed",
	)
	walletSetupCmd.Flags().StringVar(&pin, "pin", "", "encryption pin")
	walletSetupCmd.MarkFlagRequired("pin")

	walletChangePinCmd.Flags().StringVar(&currentPin, "current-pin", "", "current pin")
	walletChangePinCmd.Flags().StringVar(&newPin, "new-pin", "", "new pin")
	walletChangePinCmd.MarkFlagRequired("current-pin")
	walletChangePinCmd.MarkFlagRequired("new-pin")

	walletResetCmd.Flags().BoolVar(
		&force, "force", false, "confirm the deletion of every wallet group",
	)
}

func walletGenSeed(_ *cobra.Command, _ []string) error {
	mnemonic, err := appCfg.WalletService().GenSeed(context.Background())
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"mnemonic": mnemonic})
}

func walletSetup(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	walletSvc := appCfg.WalletService()

	reply := map[string]string{}
	if mnemonic == "" {
		words, err := walletSvc.GenSeed(ctx)
		if err != nil {
			return err
		}
		mnemonic = words
		reply["mnemonic"] = words
	}

	if err := walletSvc.Setup(ctx, mnemonic, pin); err != nil {
		return err
	}
	walletSvc.Lock(ctx)

	reply["status"] = "wallet set up"
	return printJSON(reply)
}

func walletStatus(_ *cobra.Command, _ []string) error {
	state := appCfg.WalletService().GetStatus(context.Background())

	reply := map[string]interface{}{
		"status":    state.Status.String(),
		"hasWallet": state.HasWallet,
		"network":   network.Name,
	}
	if state.Error != nil {
		reply["error"] = state.Error.Error()
	}
	return printJSON(reply)
}

func walletChangePin(_ *cobra.Command, _ []string) error {
	if err := appCfg.WalletService().ChangePin(
		context.Background(), currentPin, newPin,
	); err != nil {
		return err
	}
	fmt.Println("pin changed")
	return nil
}

func walletReset(_ *cobra.Command, _ []string) error {
	if !force {
		return fmt.Errorf("reset deletes every wallet group, run again with --force")
	}
	if err := appCfg.WalletService().Reset(context.Background()); err != nil {
		return err
	}
	fmt.Println("wallet reset")
	return nil
}
