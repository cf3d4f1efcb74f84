// Package gmail implements the MailboxService port over the Gmail API.
//
// Incremental sync rides on the History API: the cursor wraps a Gmail
// history ID, and an aged-out history ID surfaces as
// domain.ErrCursorExpired so callers fall back to a full sync.
package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
)

// gmailUser addresses the authenticated user in Gmail API calls.
const gmailUser = "me"

// Ensure Service implements the interface.
var _ driven.MailboxService = (*Service)(nil)

// Service is a Gmail-backed mailbox. All API calls share one token
// bucket so batched fetches cannot starve listing calls.
type Service struct {
	api     *gmailapi.Service
	cfg     Config
	limiter *rate.Limiter
}

// NewService creates a Gmail mailbox service using the provided TokenSource.
func NewService(ctx context.Context, ts oauth2.TokenSource, cfg Config) (*Service, error) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultConfig().BurstSize
	}

	api, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return &Service{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}, nil
}

// ListIDs returns one page of message ids matching the query.
func (s *Service) ListIDs(ctx context.Context, query, pageToken string) ([]string, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	call := s.api.Users.Messages.List(gmailUser).
		MaxResults(s.cfg.MaxResults).
		IncludeSpamTrash(s.cfg.IncludeSpamTrash).
		Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("listing messages: %w", wrapError(err))
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, resp.NextPageToken, nil
}

// GetBatch fetches full messages for the given ids. Failures are
// reported per id; the call itself only errs on context cancellation.
func (s *Service) GetBatch(ctx context.Context, ids []string) ([]driven.MessageResult, error) {
	results := make([]driven.MessageResult, 0, len(ids))
	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		msg, err := s.api.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			results = append(results, driven.MessageResult{ID: id, Err: wrapError(err)})
			continue
		}

		m := toDomainMessage(msg)
		results = append(results, driven.MessageResult{ID: id, Message: &m})
	}
	return results, nil
}

// CurrentCursor returns an opaque cursor at the mailbox's current
// history position.
func (s *Service) CurrentCursor(ctx context.Context) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	profile, err := s.api.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("getting profile: %w", wrapError(err))
	}

	cursor := NewCursor()
	cursor.HistoryID = profile.HistoryId
	return cursor.Encode(), nil
}

// ListChanges returns one page of the change log since the cursor.
func (s *Service) ListChanges(ctx context.Context, cursor, pageToken string) (*driven.ChangePage, error) {
	decoded, err := DecodeCursor(cursor)
	if err != nil || decoded.IsEmpty() {
		// An unreadable cursor is indistinguishable from an expired
		// one; both mean the change log cannot be replayed.
		return nil, fmt.Errorf("%w: undecodable cursor", domain.ErrCursorExpired)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := s.api.Users.History.List(gmailUser).
		StartHistoryId(decoded.HistoryID).
		MaxResults(s.cfg.MaxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", wrapHistoryError(err))
	}

	page := &driven.ChangePage{NextPageToken: resp.NextPageToken}
	for _, h := range resp.History {
		for _, added := range h.MessagesAdded {
			if added.Message != nil {
				page.AddedIDs = append(page.AddedIDs, added.Message.Id)
			}
		}
		for _, deleted := range h.MessagesDeleted {
			if deleted.Message != nil {
				page.RemovedIDs = append(page.RemovedIDs, deleted.Message.Id)
			}
		}
		for _, labeled := range h.LabelsAdded {
			if labeled.Message != nil {
				page.ChangedIDs = append(page.ChangedIDs, labeled.Message.Id)
			}
		}
		for _, unlabeled := range h.LabelsRemoved {
			if unlabeled.Message != nil {
				page.ChangedIDs = append(page.ChangedIDs, unlabeled.Message.Id)
			}
		}
	}

	if resp.HistoryId != 0 {
		next := NewCursor()
		next.HistoryID = resp.HistoryId
		page.NewCursor = next.Encode()
	}

	return page, nil
}
