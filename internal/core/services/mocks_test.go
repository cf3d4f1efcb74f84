package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
)

// mockMailbox implements driven.MailboxService for testing. Behaviour is
// scripted per test: transient per-id failures, whole-call errors, paginated
// listings and change-log pages.
type mockMailbox struct {
	mu sync.Mutex

	// messages is the remote truth, keyed by id.
	messages map[string]domain.Message
	// order is the id listing order.
	order []string
	// pageSize paginates ListIDs; zero means one page.
	pageSize int

	cursor      string
	cursorErr   error
	cursorCalls int
	// cursorGate, when non-nil, blocks CurrentCursor until closed.
	cursorGate chan struct{}

	// failIDs maps an id to its remaining transient failures.
	failIDs map[string]int
	// batchErrs holds whole-call errors by GetBatch call index.
	batchErrs map[int]error
	// batchCalls records the ids of every GetBatch call.
	batchCalls [][]string

	listErr error

	// changesFn scripts ListChanges; nil returns an empty page.
	changesFn func(cursor, pageToken string) (*driven.ChangePage, error)
}

var _ driven.MailboxService = (*mockMailbox)(nil)

func newMockMailbox(n int) *mockMailbox {
	m := &mockMailbox{
		messages: make(map[string]domain.Message),
		failIDs:  make(map[string]int),
		cursor:   "cursor-initial",
	}
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("msg-%03d", i)
		m.messages[id] = domain.Message{
			ID:        id,
			Sender:    fmt.Sprintf("sender%d@example.com", i),
			Subject:   fmt.Sprintf("subject %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Labels:    []string{"INBOX"},
		}
		m.order = append(m.order, id)
	}
	return m
}

func (m *mockMailbox) ListIDs(_ context.Context, _ string, pageToken string) ([]string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, "", m.listErr
	}

	size := m.pageSize
	if size <= 0 {
		size = len(m.order)
	}
	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	end := start + size
	if end > len(m.order) {
		end = len(m.order)
	}
	next := ""
	if end < len(m.order) {
		next = strconv.Itoa(end)
	}
	return append([]string(nil), m.order[start:end]...), next, nil
}

func (m *mockMailbox) GetBatch(_ context.Context, ids []string) ([]driven.MessageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.batchCalls)
	m.batchCalls = append(m.batchCalls, append([]string(nil), ids...))

	if err, ok := m.batchErrs[call]; ok && err != nil {
		return nil, err
	}

	results := make([]driven.MessageResult, 0, len(ids))
	for _, id := range ids {
		if m.failIDs[id] > 0 {
			m.failIDs[id]--
			results = append(results, driven.MessageResult{ID: id, Err: domain.ErrRateLimited})
			continue
		}
		msg, ok := m.messages[id]
		if !ok {
			results = append(results, driven.MessageResult{ID: id, Err: domain.ErrNotFound})
			continue
		}
		copied := msg
		results = append(results, driven.MessageResult{ID: id, Message: &copied})
	}
	return results, nil
}

func (m *mockMailbox) CurrentCursor(_ context.Context) (string, error) {
	m.mu.Lock()
	gate := m.cursorGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursorCalls++
	if m.cursorErr != nil {
		return "", m.cursorErr
	}
	return m.cursor, nil
}

func (m *mockMailbox) ListChanges(_ context.Context, cursor, pageToken string) (*driven.ChangePage, error) {
	m.mu.Lock()
	fn := m.changesFn
	m.mu.Unlock()
	if fn != nil {
		return fn(cursor, pageToken)
	}
	return &driven.ChangePage{NewCursor: cursor}, nil
}

// requestedIDs flattens every recorded GetBatch call into one set.
func (m *mockMailbox) requestedIDs() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]bool)
	for _, call := range m.batchCalls {
		for _, id := range call {
			out[id] = true
		}
	}
	return out
}

func (m *mockMailbox) batchCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batchCalls)
}

// fastFetcherConfig keeps test retries quick.
func fastFetcherConfig() FetcherConfig {
	return FetcherConfig{
		BatchSize:   10,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2.0,
	}
}

func fastEngineConfig() EngineConfig {
	return EngineConfig{
		WaveSize: 10,
		Fetcher:  fastFetcherConfig(),
	}
}
