package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/mailmirror/internal/core/ports/driving"
	"github.com/custodia-labs/mailmirror/internal/logger"
)

// Scheduler triggers a sync of all accounts on a fixed interval. It is a
// thin timer over SyncManager.StartAll; the manager's single-flight check
// keeps overlapping ticks harmless.
type Scheduler struct {
	manager  driving.SyncManager
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewScheduler creates a scheduler with the given interval.
func NewScheduler(manager driving.SyncManager, interval time.Duration) *Scheduler {
	return &Scheduler{
		manager:  manager,
		interval: interval,
	}
}

// Start begins the scheduler loop. An immediate sync is triggered first,
// then one per interval. Blocks until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.trigger(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// Stop shuts down the scheduler loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// trigger starts a sync for all accounts.
func (s *Scheduler) trigger(ctx context.Context) {
	if err := s.manager.StartAll(ctx); err != nil {
		logger.Warn("scheduled sync: %v", err)
	}
}
