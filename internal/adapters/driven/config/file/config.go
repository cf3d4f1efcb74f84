// Package file loads mailmirror configuration from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration.
type Config struct {
	// DataDir is where the SQLite database lives. Empty means the
	// default under the user's home directory.
	DataDir string `toml:"data_dir"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`

	// SyncInterval is the periodic sync interval for serve mode, as a
	// Go duration string. Empty disables the scheduler default.
	SyncInterval string `toml:"sync_interval"`

	// Fetcher tunes batched fetching.
	Fetcher FetcherConfig `toml:"fetcher"`

	// Accounts are the mailboxes to synchronise.
	Accounts []AccountConfig `toml:"accounts"`
}

// FetcherConfig tunes batched fetching and rate limiting.
type FetcherConfig struct {
	BatchSize         int     `toml:"batch_size"`
	MaxAttempts       int     `toml:"max_attempts"`
	BaseDelay         string  `toml:"base_delay"`
	Multiplier        float64 `toml:"multiplier"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`
	WaveSize          int     `toml:"wave_size"`
}

// AccountConfig describes one mailbox account.
type AccountConfig struct {
	ID        string `toml:"id"`
	Name      string `toml:"name"`
	Query     string `toml:"query"`
	TokenFile string `toml:"token_file"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		SyncInterval: "15m",
		Fetcher: FetcherConfig{
			BatchSize:         25,
			MaxAttempts:       4,
			BaseDelay:         "500ms",
			Multiplier:        2.0,
			RequestsPerSecond: 5.0,
			BurstSize:         10,
			WaveSize:          100,
		},
	}
}

// DefaultPath returns the default configuration file location,
// ~/.mailmirror/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".mailmirror", "config.toml"), nil
}

// Load reads configuration from the given path, layered over defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	seen := make(map[string]bool, len(c.Accounts))
	for _, account := range c.Accounts {
		if account.ID == "" {
			return fmt.Errorf("account %q: id is required", account.Name)
		}
		if seen[account.ID] {
			return fmt.Errorf("duplicate account id %q", account.ID)
		}
		seen[account.ID] = true
	}
	if _, err := c.ParsedSyncInterval(); err != nil {
		return err
	}
	if _, err := c.Fetcher.ParsedBaseDelay(); err != nil {
		return err
	}
	return nil
}

// ParsedSyncInterval returns the sync interval as a duration.
func (c Config) ParsedSyncInterval() (time.Duration, error) {
	if c.SyncInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid sync_interval %q: %w", c.SyncInterval, err)
	}
	return d, nil
}

// ParsedBaseDelay returns the retry base delay as a duration.
func (f FetcherConfig) ParsedBaseDelay() (time.Duration, error) {
	if f.BaseDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.BaseDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid base_delay %q: %w", f.BaseDelay, err)
	}
	return d, nil
}
