package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driving"
	"github.com/custodia-labs/mailmirror/internal/logger"
)

// EngineConfig tunes the sync engine.
type EngineConfig struct {
	// WaveSize is the number of ids fetched between checkpoint writes
	// during a full sync.
	WaveSize int

	// Fetcher configures the batch fetcher used by each run.
	Fetcher FetcherConfig
}

// DefaultEngineConfig returns the default engine tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WaveSize: 100,
		Fetcher:  DefaultFetcherConfig(),
	}
}

// Engine runs the synchronisation state machine for one account at a time:
// it decides between incremental and full sync, drives the batch fetcher,
// keeps full-sync progress in a resumable checkpoint and commits the merged
// result as the account's new sync state. Sync state is only ever written on
// success; a failed run leaves the last known-good state untouched.
type Engine struct {
	states      driven.SyncStateStore
	checkpoints driven.CheckpointStore
	cfg         EngineConfig
}

// NewEngine creates a sync engine over the given stores.
func NewEngine(states driven.SyncStateStore, checkpoints driven.CheckpointStore, cfg EngineConfig) *Engine {
	if cfg.WaveSize <= 0 {
		cfg.WaveSize = DefaultEngineConfig().WaveSize
	}
	return &Engine{
		states:      states,
		checkpoints: checkpoints,
		cfg:         cfg,
	}
}

// Run executes one sync for the account and returns the committed state.
// report may be nil. All steps are sequential; the only concurrency is
// across accounts, managed by the caller.
func (e *Engine) Run(
	ctx context.Context,
	accountID, query string,
	mailbox driven.MailboxService,
	report driving.ProgressFunc,
) (*domain.SyncState, error) {
	if report == nil {
		report = func(driving.ProgressEvent) {}
	}
	fetcher := NewBatchFetcher(mailbox, e.cfg.Fetcher)

	report(driving.ProgressEvent{AccountID: accountID, Phase: driving.SyncRunning, Message: "deciding sync strategy"})

	state, err := e.states.Get(ctx, accountID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	if state != nil && state.Cursor != "" && len(state.Snapshot) > 0 {
		newState, err := e.incremental(ctx, accountID, state, mailbox, fetcher, report)
		if err == nil {
			return newState, nil
		}
		if !errors.Is(err, domain.ErrCursorExpired) {
			return nil, err
		}
		// Expected when the change log no longer covers our cursor.
		logger.Info("cursor expired for %s, falling back to full sync", accountID)
	}

	return e.full(ctx, accountID, query, mailbox, fetcher, report)
}

// incremental replays the remote change log from the stored cursor and
// merges the change set into a copy of the snapshot. The new cursor and
// snapshot are committed together in a single Save.
func (e *Engine) incremental(
	ctx context.Context,
	accountID string,
	state *domain.SyncState,
	mailbox driven.MailboxService,
	fetcher *BatchFetcher,
	report driving.ProgressFunc,
) (*domain.SyncState, error) {
	report(driving.ProgressEvent{AccountID: accountID, Phase: driving.SyncRunning, Message: "reading change log"})

	var added, removed, changed []string
	newCursor := state.Cursor
	pageToken := ""
	for {
		page, err := mailbox.ListChanges(ctx, state.Cursor, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list changes: %w", err)
		}
		added = append(added, page.AddedIDs...)
		removed = append(removed, page.RemovedIDs...)
		changed = append(changed, page.ChangedIDs...)
		if page.NewCursor != "" {
			newCursor = page.NewCursor
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	snapshot := state.CloneSnapshot()
	for _, id := range removed {
		delete(snapshot, id)
	}

	// Fetch new messages plus metadata updates for messages we already
	// hold. Changed ids we have never seen are outside our snapshot and
	// are ignored here.
	removedSet := make(map[string]bool, len(removed))
	for _, id := range removed {
		removedSet[id] = true
	}
	seen := make(map[string]bool)
	var toFetch []string
	for _, id := range added {
		if !seen[id] && !removedSet[id] {
			seen[id] = true
			toFetch = append(toFetch, id)
		}
	}
	for _, id := range changed {
		if _, known := snapshot[id]; known && !seen[id] && !removedSet[id] {
			seen[id] = true
			toFetch = append(toFetch, id)
		}
	}

	logger.Debug("incremental sync for %s: %d added, %d removed, %d changed",
		accountID, len(added), len(removed), len(changed))

	if len(toFetch) > 0 {
		report(driving.ProgressEvent{
			AccountID: accountID, Phase: driving.SyncRunning,
			Total: len(toFetch), Message: "fetching changed messages",
		})
		result, err := fetcher.Fetch(ctx, toFetch)
		if err != nil {
			return nil, err
		}
		if len(result.Failed) > 0 {
			// Advancing the cursor past unfetched changes would lose
			// them, so the whole increment is retried next run.
			return nil, fmt.Errorf("%d changed messages unavailable: %w",
				len(result.Failed), domain.ErrRemoteUnavailable)
		}
		for _, msg := range result.Fetched {
			snapshot[msg.ID] = msg
		}
		report(driving.ProgressEvent{
			AccountID: accountID, Phase: driving.SyncRunning,
			Fetched: len(result.Fetched), Total: len(toFetch), Message: "merging changes",
		})
	}

	newState := &domain.SyncState{
		AccountID: accountID,
		Cursor:    newCursor,
		Snapshot:  snapshot,
		LastSync:  time.Now().UTC(),
		Total:     len(snapshot),
	}
	if err := e.states.Save(ctx, *newState); err != nil {
		return nil, fmt.Errorf("save sync state: %w", err)
	}

	logger.Info("incremental sync complete for %s: %d messages", accountID, newState.Total)
	return newState, nil
}

// full mirrors the whole mailbox. The cursor is captured before enumeration
// so changes landing during a long fetch are picked up by the next
// incremental run. Progress is checkpointed after every wave; a resumed run
// skips ids already in the checkpoint by set membership.
func (e *Engine) full(
	ctx context.Context,
	accountID, query string,
	mailbox driven.MailboxService,
	fetcher *BatchFetcher,
	report driving.ProgressFunc,
) (*domain.SyncState, error) {
	cursor, err := mailbox.CurrentCursor(ctx)
	if err != nil {
		return nil, fmt.Errorf("get current cursor: %w", err)
	}

	report(driving.ProgressEvent{AccountID: accountID, Phase: driving.SyncRunning, Message: "enumerating mailbox"})

	var ids []string
	pageToken := ""
	for {
		pageIDs, next, err := mailbox.ListIDs(ctx, query, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list ids: %w", err)
		}
		ids = append(ids, pageIDs...)
		if next == "" {
			break
		}
		pageToken = next
	}

	cp, err := e.checkpoints.Get(ctx, accountID, query)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get checkpoint: %w", err)
		}
		cp = domain.NewCheckpoint(accountID, query)
	} else {
		logger.Info("resuming full sync for %s: %d of %d already fetched",
			accountID, len(cp.FetchedIDs), len(ids))
	}

	remaining := cp.Remaining(ids)
	total := len(ids)
	fetched := total - len(remaining)
	report(driving.ProgressEvent{
		AccountID: accountID, Phase: driving.SyncRunning,
		Fetched: fetched, Total: total, Message: "fetching messages",
	})

	var skipped int
	for _, wave := range splitBatches(remaining, e.cfg.WaveSize) {
		result, err := fetcher.Fetch(ctx, wave)
		if err != nil {
			// Checkpoint retains every completed wave; the next run
			// resumes here.
			return nil, err
		}

		cp.Merge(result.Fetched)
		if err := e.checkpoints.Save(ctx, *cp); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}

		fetched += len(result.Fetched)
		skipped += len(result.Failed)
		report(driving.ProgressEvent{
			AccountID: accountID, Phase: driving.SyncRunning,
			Fetched: fetched, Total: total, Message: "fetching messages",
		})
	}
	if skipped > 0 {
		logger.Warn("full sync for %s: %d messages skipped this run", accountID, skipped)
	}

	report(driving.ProgressEvent{
		AccountID: accountID, Phase: driving.SyncRunning,
		Fetched: fetched, Total: total, Message: "reconciling",
	})

	// Only ids from the current enumeration enter the snapshot. A resumed
	// checkpoint may hold records for messages deleted since the previous
	// attempt; they are dropped here.
	snapshot := make(map[string]domain.Message, len(ids))
	for _, id := range ids {
		if msg, ok := cp.Records[id]; ok {
			snapshot[id] = msg
		}
	}

	newState := &domain.SyncState{
		AccountID: accountID,
		Cursor:    cursor,
		Snapshot:  snapshot,
		LastSync:  time.Now().UTC(),
		Total:     len(snapshot),
	}
	if err := e.states.Save(ctx, *newState); err != nil {
		return nil, fmt.Errorf("save sync state: %w", err)
	}

	if err := e.checkpoints.Delete(ctx, accountID, query); err != nil {
		// State is already committed; a stale checkpoint is overwritten
		// by the next full sync.
		logger.Warn("delete checkpoint for %s: %v", accountID, err)
	}

	logger.Info("full sync complete for %s: %d messages", accountID, newState.Total)
	return newState, nil
}
