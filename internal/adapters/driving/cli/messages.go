package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var messagesLimit int

var messagesCmd = &cobra.Command{
	Use:   "messages <account-id>",
	Short: "List synchronised messages",
	Long: `Lists the synchronised messages of an account, newest first.
Reads the local mirror only; no remote calls are made.`,
	Args: cobra.ExactArgs(1),
	RunE: runMessages,
}

func init() {
	messagesCmd.Flags().IntVar(&messagesLimit, "limit", 20, "maximum messages to show (0 for all)")
	rootCmd.AddCommand(messagesCmd)
}

func runMessages(cmd *cobra.Command, args []string) error {
	if syncManager == nil {
		return errors.New("sync service not configured")
	}

	records := syncManager.Records(args[0])
	if len(records) == 0 {
		cmd.Println("No messages synchronised.")
		return nil
	}

	if messagesLimit > 0 && len(records) > messagesLimit {
		records = records[:messagesLimit]
	}

	for _, record := range records {
		cmd.Printf("%s  %-30s  %s\n",
			record.Timestamp.Format("2006-01-02 15:04"),
			truncate(record.Sender, 30),
			record.Subject)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
