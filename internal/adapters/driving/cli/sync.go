package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailmirror/internal/core/ports/driving"
)

// statusPollInterval is how often the sync command refreshes progress.
var statusPollInterval = 500 * time.Millisecond

var syncCmd = &cobra.Command{
	Use:   "sync [account-id]",
	Short: "Synchronise mailbox accounts",
	Long: `Triggers mailbox synchronisation.
If an account ID is provided, only that account is synchronised.
Otherwise, all registered accounts are synchronised.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncManager == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		accountID := args[0]
		cmd.Printf("Synchronising account: %s...\n", accountID)

		if err := syncWithProgress(ctx, cmd, accountID); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Printf("Account %s synchronised successfully.\n", accountID)
		return nil
	}

	cmd.Println("Synchronising all accounts...")

	if err := syncManager.StartAll(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if err := waitForAll(ctx, cmd); err != nil {
		return err
	}

	cmd.Println("All accounts synchronised successfully.")
	return nil
}

// syncWithProgress starts one account's sync and polls its status until
// the run leaves the syncing state.
func syncWithProgress(ctx context.Context, cmd *cobra.Command, accountID string) error {
	if err := syncManager.StartSync(ctx, accountID); err != nil {
		return err
	}

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	lastProgress := -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status := syncManager.Status(accountID)
			switch status.State {
			case driving.SyncRunning:
				if status.Progress > lastProgress && status.Total > 0 {
					cmd.Printf("\rFetching... %d/%d messages", status.Progress, status.Total)
					lastProgress = status.Progress
				}
			case driving.SyncError:
				cmd.Println()
				return errors.New(status.Error)
			default:
				if status.Total > 0 {
					cmd.Printf("\rFetched %d messages\n", status.Total)
				}
				return nil
			}
		}
	}
}

// waitForAll blocks until no account is syncing, reporting failures.
func waitForAll(ctx context.Context, cmd *cobra.Command) error {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if syncManager.IsAnySyncing() {
				continue
			}
			var failed []string
			for id, status := range syncManager.StatusAll() {
				if status.State == driving.SyncError {
					failed = append(failed, fmt.Sprintf("%s: %s", id, status.Error))
				}
			}
			if len(failed) > 0 {
				for _, f := range failed {
					cmd.Printf("Sync failed for %s\n", f)
				}
				return fmt.Errorf("%d account(s) failed to synchronise", len(failed))
			}
			return nil
		}
	}
}
