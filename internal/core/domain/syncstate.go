package domain

import "time"

// SyncState is the durable per-account mirror of the remote mailbox.
// Cursor and Snapshot are always persisted together: an observer must never
// see a cursor advanced without its matching snapshot.
type SyncState struct {
	// AccountID identifies the account this state belongs to.
	AccountID string `json:"account_id"`

	// Cursor is the opaque change-log token issued by the remote
	// service. Empty means no full sync has ever completed.
	Cursor string `json:"cursor"`

	// Snapshot holds every message known as of Cursor, keyed by
	// message ID.
	Snapshot map[string]Message `json:"snapshot"`

	// LastSync is when this state was last committed.
	LastSync time.Time `json:"last_sync"`

	// Total is the number of messages in Snapshot at commit time.
	Total int `json:"total"`
}

// CloneSnapshot returns a shallow copy of the snapshot map. Merges during
// incremental sync operate on a copy so concurrent readers of the previous
// state never observe a partially applied change set.
func (s *SyncState) CloneSnapshot() map[string]Message {
	clone := make(map[string]Message, len(s.Snapshot))
	for id, msg := range s.Snapshot {
		clone[id] = msg
	}
	return clone
}

// Checkpoint is the durable partial-progress record for an in-flight full
// sync of one (account, query) pair. It is written after every wave and
// deleted once the full id set is covered.
//
// Invariant: every id in FetchedIDs has a corresponding entry in Records.
// A message that failed to fetch is never marked fetched, so a later run
// retries it.
type Checkpoint struct {
	AccountID string `json:"account_id"`
	Query     string `json:"query"`

	// Records are the messages accumulated so far, keyed by ID.
	Records map[string]Message `json:"records"`

	// FetchedIDs is the set of ids already retrieved. Resume decisions
	// use set membership, never counts.
	FetchedIDs map[string]bool `json:"fetched_ids"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewCheckpoint creates an empty checkpoint for an (account, query) pair.
func NewCheckpoint(accountID, query string) *Checkpoint {
	return &Checkpoint{
		AccountID:  accountID,
		Query:      query,
		Records:    make(map[string]Message),
		FetchedIDs: make(map[string]bool),
	}
}

// Merge records a wave of successfully fetched messages.
func (c *Checkpoint) Merge(msgs []Message) {
	for _, msg := range msgs {
		c.Records[msg.ID] = msg
		c.FetchedIDs[msg.ID] = true
	}
	c.UpdatedAt = time.Now().UTC()
}

// IsFetched reports whether the id has already been retrieved.
func (c *Checkpoint) IsFetched(id string) bool {
	return c.FetchedIDs[id]
}

// Remaining filters ids down to those not yet fetched, preserving order.
func (c *Checkpoint) Remaining(ids []string) []string {
	var out []string
	for _, id := range ids {
		if !c.FetchedIDs[id] {
			out = append(out, id)
		}
	}
	return out
}
