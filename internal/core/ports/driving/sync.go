package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
)

// SyncPhase is the lifecycle state of an account's sync.
type SyncPhase string

const (
	// SyncIdle means no sync has run since registration.
	SyncIdle SyncPhase = "idle"

	// SyncRunning means a sync is in flight for the account.
	SyncRunning SyncPhase = "syncing"

	// SyncComplete means the last sync committed successfully.
	SyncComplete SyncPhase = "complete"

	// SyncError means the last sync aborted; Error holds the cause.
	SyncError SyncPhase = "error"
)

// SyncManager orchestrates sync runs across many accounts. At most one run
// is in flight per account at any time; runs for different accounts proceed
// concurrently and independently.
type SyncManager interface {
	// Register makes an account known to the manager. Idempotent:
	// re-registering an account updates its mailbox handle but keeps
	// its status. Any persisted sync state is preloaded so snapshot
	// data is available before the first run.
	Register(ctx context.Context, accountID string, mailbox driven.MailboxService, query string) error

	// StartSync launches a sync run for the account in its own
	// goroutine. A no-op while the account is already syncing.
	// Returns domain.ErrNotRegistered for unknown accounts.
	StartSync(ctx context.Context, accountID string) error

	// StartAll starts a sync for every registered account.
	StartAll(ctx context.Context) error

	// Status returns a copy of the account's current status.
	// Non-blocking; unknown accounts report an idle status.
	Status(accountID string) *SyncStatus

	// StatusAll returns status copies for every registered account.
	StatusAll() map[string]*SyncStatus

	// IsAnySyncing reports whether any account is currently syncing.
	IsAnySyncing() bool

	// Records returns the account's synchronised messages as read-only
	// summaries, newest first. Available even while a later sync is
	// running or has failed.
	Records(accountID string) []domain.MessageSummary
}

// SyncStatus is the observable state of one account's sync. Mutated only by
// the run owning the account; read by any number of observers through
// copies. The Snapshot map is replaced wholesale on commit, never mutated
// in place, so a copy of this struct is safe to read without locking.
type SyncStatus struct {
	// AccountID identifies the account.
	AccountID string

	// State is the current lifecycle phase.
	State SyncPhase

	// Progress is the number of messages fetched so far in the
	// current run.
	Progress int

	// Total is the number of messages the current run expects to
	// fetch, once known.
	Total int

	// Message is a human-readable description of the current step.
	Message string

	// Snapshot is the synchronised mirror as of the last commit.
	Snapshot map[string]domain.Message

	// Error is the exact error string of the last failed run.
	Error string

	// LastSync is when the account last committed successfully.
	LastSync time.Time

	// RunID identifies the current or most recent run.
	RunID string
}

// ProgressEvent is emitted by a sync run as it advances. It decouples the
// engine from any particular status surface.
type ProgressEvent struct {
	AccountID string
	Phase     SyncPhase
	Fetched   int
	Total     int
	Message   string
}

// ProgressFunc receives progress events for one run.
type ProgressFunc func(ProgressEvent)
