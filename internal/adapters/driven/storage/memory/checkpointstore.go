package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[checkpointKey]domain.Checkpoint
}

type checkpointKey struct {
	accountID string
	query     string
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		checkpoints: make(map[checkpointKey]domain.Checkpoint),
	}
}

// Save stores or replaces a checkpoint.
func (s *CheckpointStore) Save(_ context.Context, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[checkpointKey{cp.AccountID, cp.Query}] = cp
	return nil
}

// Get retrieves the checkpoint for an (account, query) pair.
func (s *CheckpointStore) Get(_ context.Context, accountID, query string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[checkpointKey{accountID, query}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cp, nil
}

// Delete removes the checkpoint for an (account, query) pair.
func (s *CheckpointStore) Delete(_ context.Context, accountID, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, checkpointKey{accountID, query})
	return nil
}
