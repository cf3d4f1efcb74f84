// Package domain contains the core business entities for mailmirror:
// mailbox messages, per-account sync state, resumable checkpoints and the
// domain error taxonomy. It has no dependencies on adapters or transport.
package domain
