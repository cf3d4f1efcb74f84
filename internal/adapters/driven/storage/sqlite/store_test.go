package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(tempDir, "mailmirror.db"), store.Path())
	assert.FileExists(t, store.Path())
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same database must not re-run applied migrations.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	var version int
	require.NoError(t, store.db.QueryRow(
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

// ==================== Account Store Tests ====================

func TestAccountStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	accounts := store.AccountStore()
	ctx := context.Background()

	account := domain.Account{
		ID:        "work",
		Name:      "Work Mail",
		Query:     "label:inbox",
		TokenFile: "/tokens/work.json",
	}
	require.NoError(t, accounts.Save(ctx, account))

	got, err := accounts.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "Work Mail", got.Name)
	assert.Equal(t, "label:inbox", got.Query)
	assert.Equal(t, "/tokens/work.json", got.TokenFile)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestAccountStore_SaveValidatesID(t *testing.T) {
	store := setupTestStore(t)

	err := store.AccountStore().Save(context.Background(), domain.Account{Name: "no id"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAccountStore_UpdateKeepsCreatedAt(t *testing.T) {
	store := setupTestStore(t)
	accounts := store.AccountStore()
	ctx := context.Background()

	require.NoError(t, accounts.Save(ctx, domain.Account{ID: "work", Name: "Work"}))
	first, err := accounts.Get(ctx, "work")
	require.NoError(t, err)

	updated := *first
	updated.Name = "Renamed"
	require.NoError(t, accounts.Save(ctx, updated))

	got, err := accounts.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, first.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestAccountStore_ListAndDelete(t *testing.T) {
	store := setupTestStore(t)
	accounts := store.AccountStore()
	ctx := context.Background()

	for _, id := range []string{"bravo", "alpha"} {
		require.NoError(t, accounts.Save(ctx, domain.Account{ID: id, Name: id}))
	}

	list, err := accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].ID)

	require.NoError(t, accounts.Delete(ctx, "alpha"))
	_, err = accounts.Get(ctx, "alpha")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Sync State Store Tests ====================

func TestSyncStateStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	states := store.SyncStateStore()
	ctx := context.Background()

	state := domain.SyncState{
		AccountID: "work",
		Cursor:    "cursor-42",
		Snapshot: map[string]domain.Message{
			"msg-1": {
				ID:        "msg-1",
				Sender:    "alice@example.com",
				Subject:   "hello",
				Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
				Labels:    []string{"INBOX"},
			},
		},
		LastSync: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Total:    1,
	}
	require.NoError(t, states.Save(ctx, state))

	got, err := states.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "cursor-42", got.Cursor)
	assert.Equal(t, 1, got.Total)
	require.Contains(t, got.Snapshot, "msg-1")
	assert.Equal(t, "hello", got.Snapshot["msg-1"].Subject)
	assert.Equal(t, []string{"INBOX"}, got.Snapshot["msg-1"].Labels)
	assert.True(t, got.LastSync.Equal(state.LastSync))
}

func TestSyncStateStore_SaveReplaces(t *testing.T) {
	store := setupTestStore(t)
	states := store.SyncStateStore()
	ctx := context.Background()

	require.NoError(t, states.Save(ctx, domain.SyncState{
		AccountID: "work",
		Cursor:    "c1",
		Snapshot:  map[string]domain.Message{"old": {ID: "old"}},
		Total:     1,
	}))
	require.NoError(t, states.Save(ctx, domain.SyncState{
		AccountID: "work",
		Cursor:    "c2",
		Snapshot:  map[string]domain.Message{"new": {ID: "new"}},
		Total:     1,
	}))

	got, err := states.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "c2", got.Cursor)
	assert.NotContains(t, got.Snapshot, "old")
	assert.Contains(t, got.Snapshot, "new")
}

func TestSyncStateStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.SyncStateStore().Get(context.Background(), "nobody")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncStateStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	states := store.SyncStateStore()
	ctx := context.Background()

	require.NoError(t, states.Save(ctx, domain.SyncState{AccountID: "work"}))
	require.NoError(t, states.Delete(ctx, "work"))

	_, err := states.Get(ctx, "work")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Checkpoint Store Tests ====================

func TestCheckpointStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	checkpoints := store.CheckpointStore()
	ctx := context.Background()

	cp := domain.NewCheckpoint("work", "label:inbox")
	cp.Merge([]domain.Message{
		{ID: "msg-1", Subject: "one"},
		{ID: "msg-2", Subject: "two"},
	})
	require.NoError(t, checkpoints.Save(ctx, *cp))

	got, err := checkpoints.Get(ctx, "work", "label:inbox")
	require.NoError(t, err)
	assert.True(t, got.IsFetched("msg-1"))
	assert.True(t, got.IsFetched("msg-2"))
	assert.False(t, got.IsFetched("msg-3"))
	assert.Equal(t, "one", got.Records["msg-1"].Subject)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCheckpointStore_KeyedByAccountAndQuery(t *testing.T) {
	store := setupTestStore(t)
	checkpoints := store.CheckpointStore()
	ctx := context.Background()

	inbox := domain.NewCheckpoint("work", "label:inbox")
	inbox.Merge([]domain.Message{{ID: "msg-1"}})
	require.NoError(t, checkpoints.Save(ctx, *inbox))

	_, err := checkpoints.Get(ctx, "work", "is:starred")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := checkpoints.Get(ctx, "work", "label:inbox")
	require.NoError(t, err)
	assert.True(t, got.IsFetched("msg-1"))
}

func TestCheckpointStore_SaveReplaces(t *testing.T) {
	store := setupTestStore(t)
	checkpoints := store.CheckpointStore()
	ctx := context.Background()

	cp := domain.NewCheckpoint("work", "")
	cp.Merge([]domain.Message{{ID: "msg-1"}})
	require.NoError(t, checkpoints.Save(ctx, *cp))

	cp.Merge([]domain.Message{{ID: "msg-2"}})
	require.NoError(t, checkpoints.Save(ctx, *cp))

	got, err := checkpoints.Get(ctx, "work", "")
	require.NoError(t, err)
	assert.Len(t, got.FetchedIDs, 2)
}

func TestCheckpointStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	checkpoints := store.CheckpointStore()
	ctx := context.Background()

	require.NoError(t, checkpoints.Save(ctx, *domain.NewCheckpoint("work", "")))
	require.NoError(t, checkpoints.Delete(ctx, "work", ""))

	_, err := checkpoints.Get(ctx, "work", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
