// Package cli implements the mailmirror command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driving"
	"github.com/custodia-labs/mailmirror/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Wired by SetServices before Execute;
// tests swap them for mocks.
var (
	syncManager  driving.SyncManager
	accountStore driven.AccountStore
	scheduler    syncScheduler
)

// syncScheduler is the slice of services.Scheduler the serve command needs.
type syncScheduler interface {
	Start(ctx context.Context) error
	Stop()
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "mailmirror",
	Short: "Synchronise mailboxes into a local mirror",
	Long: `mailmirror keeps a local, queryable mirror of remote mailboxes.
It syncs incrementally where the remote change log allows and falls back
to a resumable full sync otherwise.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices wires the driving-side services into the commands.
func SetServices(manager driving.SyncManager, accounts driven.AccountStore, sched syncScheduler) {
	syncManager = manager
	accountStore = accounts
	scheduler = sched
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
