package driven

import (
	"context"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

// MailboxService is the remote mail API boundary. One instance is bound to
// one account's mailbox. Implementations must wrap provider-specific
// failures into the domain error sentinels so callers can classify them:
// domain.ErrRateLimited / domain.ErrRemoteUnavailable for transient
// conditions, domain.ErrCursorExpired for an invalid change-log cursor and
// domain.ErrAuthInvalid for rejected credentials.
type MailboxService interface {
	// ListIDs enumerates message ids matching the query, one page at a
	// time. An empty next page token means the listing is complete.
	ListIDs(ctx context.Context, query, pageToken string) (ids []string, nextPageToken string, err error)

	// GetBatch retrieves full messages for the given ids. The result is
	// demultiplexed per id: a failure for one id never hides the
	// successes of the others. A non-nil error is returned only for
	// failures affecting the whole call.
	GetBatch(ctx context.Context, ids []string) ([]MessageResult, error)

	// CurrentCursor returns the remote service's current change-log
	// position.
	CurrentCursor(ctx context.Context) (string, error)

	// ListChanges reads the change log forward from cursor, one page at
	// a time. Returns domain.ErrCursorExpired when the cursor is no
	// longer valid.
	ListChanges(ctx context.Context, cursor, pageToken string) (*ChangePage, error)
}

// MessageResult is the per-id outcome of a GetBatch call.
type MessageResult struct {
	ID      string
	Message *domain.Message
	Err     error
}

// ChangePage is one page of the remote change log.
type ChangePage struct {
	// AddedIDs are messages that appeared since the cursor.
	AddedIDs []string

	// RemovedIDs are messages deleted since the cursor.
	RemovedIDs []string

	// ChangedIDs are messages whose metadata (labels) changed.
	ChangedIDs []string

	// NewCursor is the change-log position covering this page.
	NewCursor string

	// NextPageToken continues the listing; empty when done.
	NextPageToken string
}
