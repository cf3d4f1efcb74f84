package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailmirror/internal/core/ports/driving"
)

var statusCmd = &cobra.Command{
	Use:   "status [account-id]",
	Short: "Show sync status",
	Long: `Shows the sync status of registered accounts.
If an account ID is provided, only that account's status is shown.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncManager == nil {
		return errors.New("sync service not configured")
	}

	if len(args) > 0 {
		printStatus(cmd, syncManager.Status(args[0]))
		return nil
	}

	all := syncManager.StatusAll()
	if len(all) == 0 {
		cmd.Println("No accounts registered.")
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		printStatus(cmd, all[id])
	}
	return nil
}

func printStatus(cmd *cobra.Command, status *driving.SyncStatus) {
	cmd.Printf("%s: %s", status.AccountID, status.State)
	switch status.State {
	case driving.SyncRunning:
		if status.Total > 0 {
			cmd.Printf(" (%d/%d)", status.Progress, status.Total)
		}
	case driving.SyncError:
		cmd.Printf(" (%s)", status.Error)
	case driving.SyncComplete:
		cmd.Printf(" (%d messages", status.Total)
		if !status.LastSync.IsZero() {
			cmd.Printf(", last sync %s", status.LastSync.Format("2006-01-02 15:04:05"))
		}
		cmd.Printf(")")
	}
	cmd.Println()
}
