package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driving"
)

// countingManager is a SyncManager stub that counts StartAll calls.
type countingManager struct {
	startAll atomic.Int32
}

var _ driving.SyncManager = (*countingManager)(nil)

func (c *countingManager) Register(context.Context, string, driven.MailboxService, string) error {
	return nil
}

func (c *countingManager) StartSync(context.Context, string) error { return nil }

func (c *countingManager) StartAll(context.Context) error {
	c.startAll.Add(1)
	return nil
}

func (c *countingManager) Status(accountID string) *driving.SyncStatus {
	return &driving.SyncStatus{AccountID: accountID, State: driving.SyncIdle}
}

func (c *countingManager) StatusAll() map[string]*driving.SyncStatus { return nil }

func (c *countingManager) IsAnySyncing() bool { return false }

func (c *countingManager) Records(string) []domain.MessageSummary { return nil }

func TestScheduler_TriggersImmediatelyAndOnInterval(t *testing.T) {
	manager := &countingManager{}
	scheduler := NewScheduler(manager, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(context.Background()) }()

	// One trigger fires before the first tick, then one per interval.
	assert.Eventually(t, func() bool {
		return manager.startAll.Load() >= 3
	}, time.Second, time.Millisecond)

	scheduler.Stop()
	assert.NoError(t, <-done)
}

func TestScheduler_StartWhileRunningIsNoOp(t *testing.T) {
	manager := &countingManager{}
	scheduler := NewScheduler(manager, time.Hour)

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(context.Background()) }()

	assert.Eventually(t, func() bool {
		return manager.startAll.Load() == 1
	}, time.Second, time.Millisecond)

	// A second Start returns immediately without a second loop.
	assert.NoError(t, scheduler.Start(context.Background()))
	assert.Equal(t, int32(1), manager.startAll.Load())

	scheduler.Stop()
	assert.NoError(t, <-done)
}

func TestScheduler_ContextCancellation(t *testing.T) {
	manager := &countingManager{}
	scheduler := NewScheduler(manager, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()

	assert.Eventually(t, func() bool {
		return manager.startAll.Load() == 1
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	scheduler := NewScheduler(&countingManager{}, time.Hour)

	// Must not panic or block.
	scheduler.Stop()
}
