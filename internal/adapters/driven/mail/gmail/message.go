package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

// toDomainMessage converts a Gmail API message to a domain message.
func toDomainMessage(msg *gmail.Message) domain.Message {
	out := domain.Message{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		Labels:      msg.LabelIds,
		BodyPreview: msg.Snippet,
		Timestamp:   time.UnixMilli(msg.InternalDate).UTC(),
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				out.Sender = h.Value
			case "subject":
				out.Subject = h.Value
			}
		}
		out.Body = extractBody(msg.Payload)
	}

	return out
}

// extractBody returns the decoded text/plain body, preferring the part
// itself and falling back to the first text/plain sub-part.
func extractBody(part *gmail.MessagePart) []byte {
	if part.Body != nil && part.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			return data
		}
	}
	for _, p := range part.Parts {
		if p.MimeType == "text/plain" {
			if body := extractBody(p); body != nil {
				return body
			}
		}
	}
	for _, p := range part.Parts {
		if strings.HasPrefix(p.MimeType, "multipart/") {
			if body := extractBody(p); body != nil {
				return body
			}
		}
	}
	return nil
}
