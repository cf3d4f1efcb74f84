package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mailmirror/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/mailmirror/internal/core/domain"
	"github.com/custodia-labs/mailmirror/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to all
// metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.mailmirror/data/mailmirror.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mailmirror", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mailmirror.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AccountStore returns an AccountStore interface backed by this store.
func (s *Store) AccountStore() driven.AccountStore {
	return &accountStore{store: s}
}

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// CheckpointStore returns a CheckpointStore interface backed by this store.
func (s *Store) CheckpointStore() driven.CheckpointStore {
	return &checkpointStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Account Store ====================

// accountStore implements driven.AccountStore.
type accountStore struct {
	store *Store
}

var _ driven.AccountStore = (*accountStore)(nil)

// Save stores or updates an account.
func (s *accountStore) Save(ctx context.Context, account domain.Account) error {
	if account.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, query, token_file, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			query = excluded.query,
			token_file = excluded.token_file,
			updated_at = excluded.updated_at
	`, account.ID, account.Name, account.Query, account.TokenFile,
		account.CreatedAt, account.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// Get retrieves an account by ID.
func (s *accountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, query, token_file, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id)

	var account domain.Account
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&account.ID, &account.Name, &account.Query,
		&account.TokenFile, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	if createdAt.Valid {
		account.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		account.UpdatedAt = updatedAt.Time
	}

	return &account, nil
}

// List returns all accounts ordered by ID.
func (s *accountStore) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, query, token_file, created_at, updated_at
		FROM accounts ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account //nolint:prealloc // size unknown from query
	for rows.Next() {
		var account domain.Account
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&account.ID, &account.Name, &account.Query,
			&account.TokenFile, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		if createdAt.Valid {
			account.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			account.UpdatedAt = updatedAt.Time
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	return accounts, nil
}

// Delete removes an account.
func (s *accountStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// ==================== Sync State Store ====================

// syncStateStore implements driven.SyncStateStore. Cursor and snapshot
// share one row, so a single upsert replaces them atomically.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

// Save stores or replaces sync state.
func (s *syncStateStore) Save(ctx context.Context, state domain.SyncState) error {
	snapshotJSON, err := json.Marshal(state.Snapshot)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states (account_id, cursor, snapshot, last_sync, total)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			cursor = excluded.cursor,
			snapshot = excluded.snapshot,
			last_sync = excluded.last_sync,
			total = excluded.total
	`, state.AccountID, state.Cursor, string(snapshotJSON), state.LastSync, state.Total)

	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// Get retrieves sync state for an account.
func (s *syncStateStore) Get(ctx context.Context, accountID string) (*domain.SyncState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT account_id, cursor, snapshot, last_sync, total
		FROM sync_states WHERE account_id = ?
	`, accountID)

	var state domain.SyncState
	var snapshotJSON string
	var lastSync sql.NullTime
	if err := row.Scan(&state.AccountID, &state.Cursor, &snapshotJSON,
		&lastSync, &state.Total); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync state: %w", err)
	}

	if err := json.Unmarshal([]byte(snapshotJSON), &state.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshalling snapshot: %w", err)
	}
	if lastSync.Valid {
		state.LastSync = lastSync.Time
	}

	return &state, nil
}

// Delete removes sync state for an account.
func (s *syncStateStore) Delete(ctx context.Context, accountID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM sync_states WHERE account_id = ?", accountID)
	if err != nil {
		return fmt.Errorf("deleting sync state: %w", err)
	}
	return nil
}

// ==================== Checkpoint Store ====================

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// Save stores or replaces a checkpoint.
func (s *checkpointStore) Save(ctx context.Context, cp domain.Checkpoint) error {
	recordsJSON, err := json.Marshal(cp.Records)
	if err != nil {
		return fmt.Errorf("marshalling records: %w", err)
	}
	fetchedJSON, err := json.Marshal(cp.FetchedIDs)
	if err != nil {
		return fmt.Errorf("marshalling fetched ids: %w", err)
	}

	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoints (account_id, query, records, fetched_ids, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id, query) DO UPDATE SET
			records = excluded.records,
			fetched_ids = excluded.fetched_ids,
			updated_at = excluded.updated_at
	`, cp.AccountID, cp.Query, string(recordsJSON), string(fetchedJSON), cp.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Get retrieves the checkpoint for an (account, query) pair.
func (s *checkpointStore) Get(ctx context.Context, accountID, query string) (*domain.Checkpoint, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT account_id, query, records, fetched_ids, updated_at
		FROM checkpoints WHERE account_id = ? AND query = ?
	`, accountID, query)

	var cp domain.Checkpoint
	var recordsJSON, fetchedJSON string
	var updatedAt sql.NullTime
	if err := row.Scan(&cp.AccountID, &cp.Query, &recordsJSON,
		&fetchedJSON, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning checkpoint: %w", err)
	}

	if err := json.Unmarshal([]byte(recordsJSON), &cp.Records); err != nil {
		return nil, fmt.Errorf("unmarshalling records: %w", err)
	}
	if err := json.Unmarshal([]byte(fetchedJSON), &cp.FetchedIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling fetched ids: %w", err)
	}
	if cp.Records == nil {
		cp.Records = make(map[string]domain.Message)
	}
	if cp.FetchedIDs == nil {
		cp.FetchedIDs = make(map[string]bool)
	}
	if updatedAt.Valid {
		cp.UpdatedAt = updatedAt.Time
	}

	return &cp, nil
}

// Delete removes the checkpoint for an (account, query) pair.
func (s *checkpointStore) Delete(ctx context.Context, accountID, query string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE account_id = ? AND query = ?", accountID, query)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}
