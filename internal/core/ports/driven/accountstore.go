package driven

import (
	"context"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

// AccountStore persists registered accounts.
type AccountStore interface {
	// Save stores or updates an account.
	Save(ctx context.Context, account domain.Account) error

	// Get retrieves an account by ID.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// List returns all registered accounts.
	List(ctx context.Context) ([]domain.Account, error)

	// Delete removes an account.
	Delete(ctx context.Context, id string) error
}
