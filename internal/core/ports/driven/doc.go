// Package driven defines the interfaces the core sync services depend on:
// the remote mailbox boundary and the durable state stores. Adapters under
// internal/adapters/driven implement these.
package driven
