package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage mailbox accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured accounts",
	RunE:  runAccountsList,
}

var (
	accountAddName      string
	accountAddQuery     string
	accountAddTokenFile string
)

var accountsAddCmd = &cobra.Command{
	Use:   "add <account-id>",
	Short: "Add or update an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsAdd,
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <account-id>",
	Short: "Remove an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

func init() {
	accountsAddCmd.Flags().StringVar(&accountAddName, "name", "", "display name")
	accountsAddCmd.Flags().StringVar(&accountAddQuery, "query", "", "mailbox search query")
	accountsAddCmd.Flags().StringVar(&accountAddTokenFile, "token-file", "", "OAuth token file path")

	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(cmd *cobra.Command, _ []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}

	accounts, err := accountStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}

	if len(accounts) == 0 {
		cmd.Println("No accounts configured.")
		return nil
	}

	for _, account := range accounts {
		cmd.Printf("%s", account.ID)
		if account.Name != "" {
			cmd.Printf("  %s", account.Name)
		}
		if account.Query != "" {
			cmd.Printf("  (query: %s)", account.Query)
		}
		cmd.Println()
	}
	return nil
}

func runAccountsAdd(cmd *cobra.Command, args []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}

	account := domain.Account{
		ID:        args[0],
		Name:      accountAddName,
		Query:     accountAddQuery,
		TokenFile: accountAddTokenFile,
	}
	if err := accountStore.Save(context.Background(), account); err != nil {
		return fmt.Errorf("saving account: %w", err)
	}

	cmd.Printf("Account %s saved.\n", account.ID)
	return nil
}

func runAccountsRemove(cmd *cobra.Command, args []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}

	if err := accountStore.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("removing account: %w", err)
	}

	cmd.Printf("Account %s removed.\n", args[0])
	return nil
}
