package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driving"
	"github.com/custodia-labs/mailmirror/internal/logger"
)

// Ensure Manager implements the interface.
var _ driving.SyncManager = (*Manager)(nil)

// registration binds an account to its remote mailbox handle.
type registration struct {
	mailbox driven.MailboxService
	query   string
}

// Manager orchestrates sync runs across accounts. Each run executes in its
// own goroutine; the status map is the only shared state and is guarded by
// one mutex. Status entries are mutated only by the run owning that
// account, so the single-flight check in StartSync is also the write-order
// guarantee for the account's stores.
type Manager struct {
	engine *Engine
	states driven.SyncStateStore

	mu       sync.RWMutex
	accounts map[string]*registration
	statuses map[string]*driving.SyncStatus

	wg sync.WaitGroup
}

// NewManager creates a sync manager.
func NewManager(engine *Engine, states driven.SyncStateStore) *Manager {
	return &Manager{
		engine:   engine,
		states:   states,
		accounts: make(map[string]*registration),
		statuses: make(map[string]*driving.SyncStatus),
	}
}

// Register makes an account known to the manager. Idempotent: calling it
// again updates the mailbox handle without resetting status. Persisted sync
// state, if any, is preloaded so snapshot data is readable before the first
// run.
func (m *Manager) Register(ctx context.Context, accountID string, mailbox driven.MailboxService, query string) error {
	if accountID == "" {
		return domain.ErrInvalidInput
	}

	m.mu.Lock()
	m.accounts[accountID] = &registration{mailbox: mailbox, query: query}
	_, known := m.statuses[accountID]
	if !known {
		m.statuses[accountID] = &driving.SyncStatus{
			AccountID: accountID,
			State:     driving.SyncIdle,
		}
	}
	m.mu.Unlock()
	if known {
		return nil
	}

	state, err := m.states.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load sync state: %w", err)
	}

	m.mu.Lock()
	if st, ok := m.statuses[accountID]; ok && st.State == driving.SyncIdle {
		st.Snapshot = state.Snapshot
		st.LastSync = state.LastSync
		st.Total = state.Total
	}
	m.mu.Unlock()
	return nil
}

// StartSync launches a sync run for the account. A no-op while the account
// is already syncing, so at most one run is in flight per account.
func (m *Manager) StartSync(ctx context.Context, accountID string) error {
	m.mu.Lock()
	reg, ok := m.accounts[accountID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNotRegistered, accountID)
	}

	st := m.statuses[accountID]
	if st.State == driving.SyncRunning {
		m.mu.Unlock()
		logger.Debug("sync already running for %s, ignoring", accountID)
		return nil
	}

	runID := uuid.NewString()
	st.State = driving.SyncRunning
	st.Progress = 0
	st.Total = 0
	st.Message = "starting"
	st.Error = ""
	st.RunID = runID
	m.mu.Unlock()

	logger.Info("starting sync for %s (run %s)", accountID, runID)

	m.wg.Add(1)
	go m.runSync(ctx, accountID, reg)

	return nil
}

// StartAll starts a sync for every registered account. Each proceeds
// independently; a failure to start one does not stop the others.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := m.StartSync(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("start sync %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// runSync executes one sync run and records its outcome in the status map.
func (m *Manager) runSync(ctx context.Context, accountID string, reg *registration) {
	defer m.wg.Done()

	report := func(ev driving.ProgressEvent) {
		m.mu.Lock()
		if st, ok := m.statuses[accountID]; ok {
			st.Progress = ev.Fetched
			st.Total = ev.Total
			st.Message = ev.Message
		}
		m.mu.Unlock()
	}

	state, err := m.engine.Run(ctx, accountID, reg.query, reg.mailbox, report)

	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[accountID]
	if !ok {
		return
	}
	if err != nil {
		st.State = driving.SyncError
		st.Error = err.Error()
		st.Message = "sync failed"
		logger.Warn("sync failed for %s: %v", accountID, err)
		return
	}
	st.State = driving.SyncComplete
	st.Error = ""
	st.Message = "sync complete"
	st.Snapshot = state.Snapshot
	st.LastSync = state.LastSync
	st.Total = state.Total
	st.Progress = state.Total
}

// Status returns a copy of the account's status. Unknown accounts report
// idle. The snapshot map inside the copy is safe to read because runs
// replace it wholesale instead of mutating it.
func (m *Manager) Status(accountID string) *driving.SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if st, ok := m.statuses[accountID]; ok {
		copied := *st
		return &copied
	}
	return &driving.SyncStatus{AccountID: accountID, State: driving.SyncIdle}
}

// StatusAll returns status copies for every registered account.
func (m *Manager) StatusAll() map[string]*driving.SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*driving.SyncStatus, len(m.statuses))
	for id, st := range m.statuses {
		copied := *st
		out[id] = &copied
	}
	return out
}

// IsAnySyncing reports whether any account has a run in flight.
func (m *Manager) IsAnySyncing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, st := range m.statuses {
		if st.State == driving.SyncRunning {
			return true
		}
	}
	return false
}

// Records returns the account's synchronised messages newest first. Data
// from the last committed state remains available while a later sync runs
// or fails.
func (m *Manager) Records(accountID string) []domain.MessageSummary {
	m.mu.RLock()
	st, ok := m.statuses[accountID]
	var snapshot map[string]domain.Message
	if ok {
		snapshot = st.Snapshot
	}
	m.mu.RUnlock()

	out := make([]domain.MessageSummary, 0, len(snapshot))
	for _, msg := range snapshot {
		out = append(out, msg.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Wait blocks until all in-flight runs finish. Used on shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}
