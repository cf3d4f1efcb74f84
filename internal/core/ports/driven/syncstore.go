package driven

import (
	"context"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

// SyncStateStore persists the per-account mailbox mirror. Save must have
// atomic replace semantics: a concurrent reader sees either the previous
// state or the new one, never a cursor paired with a stale snapshot.
type SyncStateStore interface {
	// Save stores or replaces sync state for an account.
	Save(ctx context.Context, state domain.SyncState) error

	// Get retrieves sync state for an account.
	// Returns domain.ErrNotFound if the account has never synced.
	Get(ctx context.Context, accountID string) (*domain.SyncState, error)

	// Delete removes sync state for an account.
	Delete(ctx context.Context, accountID string) error
}
