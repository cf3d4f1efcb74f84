package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
	"github.com/custodia-labs/mailmirror/internal/logger"
)

// FetcherConfig tunes the batch fetcher.
type FetcherConfig struct {
	// BatchSize is the number of ids per remote batch request, bounded
	// by the remote API's batch limit.
	BatchSize int

	// MaxAttempts is the retry ceiling for transiently failed ids.
	MaxAttempts int

	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration

	// Multiplier grows the backoff between attempts.
	Multiplier float64

	// RequestsPerSecond paces remote calls. Zero disables pacing.
	RequestsPerSecond float64

	// BurstSize is the token bucket burst. Used only when
	// RequestsPerSecond is set.
	BurstSize int
}

// DefaultFetcherConfig returns conservative defaults, well below typical
// provider quotas.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		BatchSize:         25,
		MaxAttempts:       4,
		BaseDelay:         500 * time.Millisecond,
		Multiplier:        2.0,
		RequestsPerSecond: 5.0,
		BurstSize:         10,
	}
}

// FetchResult is the partial-success outcome of a Fetch call.
type FetchResult struct {
	// Fetched are the messages retrieved successfully.
	Fetched []domain.Message

	// Failed are the ids still failing after the retry ceiling. They
	// are returned, never dropped, so the caller can checkpoint them
	// for a later retry.
	Failed []string
}

// BatchFetcher retrieves full messages in bounded-size batches with rate
// limiting and bounded exponential backoff on transient failures. It keeps
// no state between calls; all bookkeeping is returned to the caller.
type BatchFetcher struct {
	mailbox driven.MailboxService
	limiter *rate.Limiter
	cfg     FetcherConfig
}

// NewBatchFetcher creates a fetcher over the given mailbox.
func NewBatchFetcher(mailbox driven.MailboxService, cfg FetcherConfig) *BatchFetcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultFetcherConfig().BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 1.0
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = cfg.BurstSize
		if burst <= 0 {
			burst = 1
		}
	}

	return &BatchFetcher{
		mailbox: mailbox,
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
	}
}

// Fetch retrieves the given ids, retrying transient per-id failures up to
// the configured ceiling. A per-id failure never aborts the rest of its
// batch. Permanent remote errors abort the whole call.
func (f *BatchFetcher) Fetch(ctx context.Context, ids []string) (*FetchResult, error) {
	var fetched []domain.Message
	pending := ids

	for attempt := 0; attempt < f.cfg.MaxAttempts && len(pending) > 0; attempt++ {
		if attempt > 0 {
			delay := f.backoff(attempt)
			logger.Debug("retrying %d ids in %s (attempt %d/%d)",
				len(pending), delay, attempt+1, f.cfg.MaxAttempts)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var stillFailed []string
		for _, batch := range splitBatches(pending, f.cfg.BatchSize) {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}

			results, err := f.mailbox.GetBatch(ctx, batch)
			if err != nil {
				if domain.IsTransient(err) {
					stillFailed = append(stillFailed, batch...)
					continue
				}
				return nil, fmt.Errorf("get batch: %w", err)
			}

			for _, res := range results {
				switch {
				case res.Err == nil && res.Message != nil:
					fetched = append(fetched, *res.Message)
				case errors.Is(res.Err, domain.ErrNotFound):
					// Message vanished between listing and fetch.
					logger.Debug("message %s gone, skipping", res.ID)
				case domain.IsTransient(res.Err):
					stillFailed = append(stillFailed, res.ID)
				default:
					return nil, fmt.Errorf("fetch message %s: %w", res.ID, res.Err)
				}
			}
		}
		pending = stillFailed
	}

	if len(pending) > 0 {
		logger.Warn("%d ids still failing after %d attempts", len(pending), f.cfg.MaxAttempts)
	}

	return &FetchResult{Fetched: fetched, Failed: pending}, nil
}

// backoff returns the delay before the given attempt (1-based).
func (f *BatchFetcher) backoff(attempt int) time.Duration {
	d := float64(f.cfg.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= f.cfg.Multiplier
	}
	return time.Duration(d)
}

// splitBatches chunks ids into groups of at most size.
func splitBatches(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
