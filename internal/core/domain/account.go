package domain

import "time"

// Account identifies one remote mailbox to mirror.
type Account struct {
	// ID uniquely identifies the account (e.g. the mailbox address).
	ID string `json:"id"`

	// Name is a human-readable display name.
	Name string `json:"name"`

	// Query scopes full-sync enumeration to messages matching a remote
	// search query. Empty means the whole mailbox.
	Query string `json:"query,omitempty"`

	// TokenFile is the path to the OAuth token used to build the remote
	// service client. Credential management itself is out of scope.
	TokenFile string `json:"token_file,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
