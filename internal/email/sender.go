package email

import (
	"context"
	"time"
)

// SendRequest is one outgoing message.
type SendRequest struct {
	To      []string
	From    string // overrides the sender's default address when set
	Subject string
	HTML    string
	ReplyTo string
}

// SendResult is what the provider reported for an accepted message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers schedule emails through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}
