package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	groupID    string
	groupLabel string

	groupCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "create a new wallet group",
		Long: "this command lets you create a new wallet group with the given " +
			"mnemonic (or let me create one for you), encrypted with its own pin",
		RunE: groupCreate,
	}
	groupImportCmd = &cobra.Command{
		Use:   "import",
		Short: "import a wallet group with a known id",
		Long: "this command lets you store the mnemonic of a wallet group " +
			"under the given id, encrypted with its own pin",
		RunE: groupImport,
	}
	groupListCmd = &cobra.Command{
		Use:   "list",
		Short: "list all wallet groups",
		Long:  "this command returns the public info of every wallet group",
		RunE:  groupList,
	}
	groupRevealCmd = &cobra.Command{
		Use:   "reveal",
		Short: "reveal the mnemonic of a wallet group",
		Long: "this command decrypts the mnemonic of the wallet group with " +
			"the given pin and prints it, for backup purposes",
		RunE: groupReveal,
	}
	groupChangePinCmd = &cobra.Command{
		Use:   "changepin",
		Short: "change the pin of a wallet group",
		Long:  "this command lets you change the encryption pin of a wallet group",
		RunE:  groupChangePin,
	}
	groupDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "delete a wallet group",
		Long: "this command irreversibly deletes the encrypted mnemonic of the " +
			"wallet group, the primary one can be erased only with reset",
		RunE: groupDelete,
	}
	groupCmd = &cobra.Command{
		Use:   "group",
		Short: "manage wallet groups",
		Long: "this command lets you manage wallet groups other than the " +
			"primary one, each protected by its own pin",
	}
)

func init() {
	groupCreateCmd.Flags().StringVar(
		&mnemonic, "mnemonic", "", "space separated word list as group seed",
	)
	groupCreateCmd.Flags().StringVar(&pin, "pin", "", "encryption pin")
	groupCreateCmd.Flags().StringVar(&groupLabel, "label", "", "human readable label")
	groupCreateCmd.MarkFlagRequired("pin")

	groupImportCmd.Flags().StringVar(&groupID, "group", "", "wallet group id")
	groupImportCmd.Flags().StringVar(
		&mnemonic, "mnemonic", "", "space separated word list as group seed",
	)
	groupImportCmd.Flags().StringVar(&pin, "pin", "", "encryption pin")
	groupImportCmd.Flags().StringVar(&groupLabel, "label", "", "human readable label")
	groupImportCmd.MarkFlagRequired("group")
	groupImportCmd.MarkFlagRequired("mnemonic")
	groupImportCmd.MarkFlagRequired("pin")

	for _, cmd := range []*cobra.Command{groupRevealCmd, groupDeleteCmd} {
		cmd.Flags().StringVar(&groupID, "group", "", "wallet group id")
		cmd.Flags().StringVar(&pin, "pin", "", "encryption pin")
		cmd.MarkFlagRequired("group")
		cmd.MarkFlagRequired("pin")
	}

	groupChangePinCmd.Flags().StringVar(&groupID, "group", "", "wallet group id")
	groupChangePinCmd.Flags().StringVar(&currentPin, "current-pin", "", "current pin")
	groupChangePinCmd.Flags().StringVar(&newPin, "new-pin", "", "new pin")
	groupChangePinCmd.MarkFlagRequired("group")
	groupChangePinCmd.MarkFlagRequired("current-pin")
	groupChangePinCmd.MarkFlagRequired("new-pin")

	groupCmd.AddCommand(
		groupCreateCmd, groupImportCmd, groupListCmd, groupRevealCmd,
		groupChangePinCmd, groupDeleteCmd,
	)
}

func groupCreate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	reply := map[string]string{}
	if mnemonic == "" {
		words, err := appCfg.WalletService().GenSeed(ctx)
		if err != nil {
			return err
		}
		mnemonic = words
		reply["mnemonic"] = words
	}

	id, err := appCfg.GroupService().CreateGroup(ctx, mnemonic, pin, groupLabel)
	if err != nil {
		return err
	}
	reply["groupId"] = id
	return printJSON(reply)
}

func groupImport(_ *cobra.Command, _ []string) error {
	if err := appCfg.GroupService().ImportGroup(
		context.Background(), groupID, mnemonic, pin, groupLabel,
	); err != nil {
		return err
	}
	return printJSON(map[string]string{"groupId": groupID})
}

func groupList(_ *cobra.Command, _ []string) error {
	groups, err := appCfg.GroupService().ListGroups(context.Background())
	if err != nil {
		return err
	}

	reply := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		reply = append(reply, map[string]interface{}{
			"groupId":   g.GroupID,
			"label":     g.Label,
			"createdAt": g.CreatedAt,
			"isPrimary": g.IsPrimary,
		})
	}
	return printJSON(reply)
}

func groupReveal(_ *cobra.Command, _ []string) error {
	words, err := appCfg.GroupService().VerifyAndDecryptGroup(
		context.Background(), groupID, pin,
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"mnemonic": words})
}

func groupChangePin(_ *cobra.Command, _ []string) error {
	if err := appCfg.GroupService().ChangeGroupPin(
		context.Background(), groupID, currentPin, newPin,
	); err != nil {
		return err
	}
	fmt.Println("pin changed")
	return nil
}

func groupDelete(_ *cobra.Command, _ []string) error {
	if err := appCfg.GroupService().DeleteGroup(
		context.Background(), groupID, pin,
	); err != nil {
		return err
	}
	fmt.Println("wallet group deleted")
	return nil
}
