package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running for the
	// account. StartSync treats this as a no-op condition.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrNotRegistered indicates the account has not been registered
	// with the sync manager.
	ErrNotRegistered = errors.New("account not registered")

	// Remote errors. Adapters wrap provider-specific failures into these
	// sentinels so the engine never inspects error text.

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	// Transient: retried with backoff inside the batch fetcher.
	ErrRateLimited = errors.New("rate limited")

	// ErrRemoteUnavailable indicates a transient remote failure
	// (timeout, 5xx). Retried like a rate limit.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// ErrCursorExpired indicates the change-log cursor is no longer
	// valid. The engine falls back to a full sync; this is expected,
	// not a failure.
	ErrCursorExpired = errors.New("cursor expired, full resync required")

	// ErrAuthInvalid indicates the credentials were rejected.
	// Permanent: aborts the current sync.
	ErrAuthInvalid = errors.New("authentication invalid")
)

// IsTransient reports whether the error is a transient remote condition
// worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrRemoteUnavailable)
}
