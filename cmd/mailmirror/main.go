// Command mailmirror synchronises remote mailboxes into a local mirror.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	configfile "github.com/custodia-labs/mailmirror/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mailmirror/internal/adapters/driven/mail/gmail"
	"github.com/custodia-labs/mailmirror/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/mailmirror/internal/adapters/driving/cli"
	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/services"
	"github.com/custodia-labs/mailmirror/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.SetVerbose(cfg.Verbose)

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	engine := services.NewEngine(store.SyncStateStore(), store.CheckpointStore(), engineConfig(cfg))
	manager := services.NewManager(engine, store.SyncStateStore())

	if err := registerAccounts(ctx, cfg, store, manager); err != nil {
		return err
	}

	interval, err := cfg.ParsedSyncInterval()
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	scheduler := services.NewScheduler(manager, interval)

	cli.SetServices(manager, store.AccountStore(), scheduler)
	defer manager.Wait()

	return cli.Execute()
}

// loadConfig reads the config file named by MAILMIRROR_CONFIG, falling
// back to the default location.
func loadConfig() (configfile.Config, error) {
	path := os.Getenv("MAILMIRROR_CONFIG")
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return configfile.Config{}, err
		}
	}
	return configfile.Load(path)
}

func engineConfig(cfg configfile.Config) services.EngineConfig {
	ec := services.DefaultEngineConfig()
	fc := cfg.Fetcher
	if fc.BatchSize > 0 {
		ec.Fetcher.BatchSize = fc.BatchSize
	}
	if fc.MaxAttempts > 0 {
		ec.Fetcher.MaxAttempts = fc.MaxAttempts
	}
	if delay, err := fc.ParsedBaseDelay(); err == nil && delay > 0 {
		ec.Fetcher.BaseDelay = delay
	}
	if fc.Multiplier > 1 {
		ec.Fetcher.Multiplier = fc.Multiplier
	}
	if fc.RequestsPerSecond > 0 {
		ec.Fetcher.RequestsPerSecond = fc.RequestsPerSecond
	}
	if fc.BurstSize > 0 {
		ec.Fetcher.BurstSize = fc.BurstSize
	}
	if fc.WaveSize > 0 {
		ec.WaveSize = fc.WaveSize
	}
	return ec
}

// registerAccounts persists configured accounts and registers each with
// the sync manager. Accounts whose token file cannot be loaded are
// skipped with a warning so one bad credential does not block the rest.
func registerAccounts(ctx context.Context, cfg configfile.Config, store *sqlite.Store, manager *services.Manager) error {
	accounts := store.AccountStore()
	mailCfg := gmail.DefaultConfig()
	if cfg.Fetcher.RequestsPerSecond > 0 {
		mailCfg.RequestsPerSecond = cfg.Fetcher.RequestsPerSecond
	}
	if cfg.Fetcher.BurstSize > 0 {
		mailCfg.BurstSize = cfg.Fetcher.BurstSize
	}

	for _, ac := range cfg.Accounts {
		account := domain.Account{
			ID:        ac.ID,
			Name:      ac.Name,
			Query:     ac.Query,
			TokenFile: ac.TokenFile,
		}
		if err := accounts.Save(ctx, account); err != nil {
			return fmt.Errorf("saving account %s: %w", ac.ID, err)
		}

		ts, err := gmail.TokenSourceFromFile(ac.TokenFile)
		if err != nil {
			logger.Warn("skipping account %s: %v", ac.ID, err)
			continue
		}
		mailbox, err := gmail.NewService(ctx, ts, mailCfg)
		if err != nil {
			logger.Warn("skipping account %s: %v", ac.ID, err)
			continue
		}

		if err := manager.Register(ctx, ac.ID, mailbox, ac.Query); err != nil {
			return fmt.Errorf("registering account %s: %w", ac.ID, err)
		}
	}
	return nil
}
