package driven

import (
	"context"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

// CheckpointStore persists resumable full-sync progress. At most one
// checkpoint exists per (account, query) pair; it is deleted once the full
// sync commits. Save must have atomic replace semantics.
type CheckpointStore interface {
	// Save stores or replaces the checkpoint.
	Save(ctx context.Context, cp domain.Checkpoint) error

	// Get retrieves the checkpoint for an (account, query) pair.
	// Returns domain.ErrNotFound if no full sync is in flight.
	Get(ctx context.Context, accountID, query string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for an (account, query) pair.
	Delete(ctx context.Context, accountID, query string) error
}
