package mailer

import (
	"context"
	"errors"
)

var ErrEmptyMessage = errors.New("recipient, subject, and html content cannot be empty")

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

func (m Message) validate() error {
	if m.To == "" || m.Subject == "" || m.HTML == "" {
		return ErrEmptyMessage
	}
	return nil
}

// Receipt describes an accepted message. PreviewURL is only set by
// providers that keep a local copy.
type Receipt struct {
	MessageID  string
	PreviewURL string
}

// Sender delivers one message per call and never retries.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
	Provider() string
}
