package domain

import "time"

// Message is a single mailbox entry mirrored from the remote service.
// The ID is the opaque identifier assigned by the remote service. Body is
// treated as opaque payload: the engine preserves it but never interprets it.
type Message struct {
	// ID is the remote-assigned message identifier.
	ID string `json:"id"`

	// ThreadID groups messages into a conversation, if the remote
	// service provides one.
	ThreadID string `json:"thread_id,omitempty"`

	// Sender is the From header value.
	Sender string `json:"sender"`

	// Subject is the Subject header value.
	Subject string `json:"subject"`

	// Timestamp is when the remote service received the message.
	Timestamp time.Time `json:"timestamp"`

	// Labels are the remote label/tag identifiers on the message.
	Labels []string `json:"labels,omitempty"`

	// BodyPreview is a short plain-text excerpt of the body.
	BodyPreview string `json:"body_preview,omitempty"`

	// Body is the opaque message payload as delivered by the remote
	// service.
	Body []byte `json:"body,omitempty"`
}

// MessageSummary is the read-only projection of a Message exposed to
// downstream features. It carries header-level fields only.
type MessageSummary struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Subject     string    `json:"subject"`
	Timestamp   time.Time `json:"timestamp"`
	Labels      []string  `json:"labels,omitempty"`
	BodyPreview string    `json:"body_preview,omitempty"`
}

// Summary returns the downstream-facing projection of the message.
func (m Message) Summary() MessageSummary {
	return MessageSummary{
		ID:          m.ID,
		Sender:      m.Sender,
		Subject:     m.Subject,
		Timestamp:   m.Timestamp,
		Labels:      m.Labels,
		BodyPreview: m.BodyPreview,
	}
}

// HasLabel reports whether the message carries the given label ID.
func (m Message) HasLabel(label string) bool {
	for _, l := range m.Labels {
		if l == label {
			return true
		}
	}
	return false
}
