package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultOutboxSize = 100

// StoredMessage is a message captured by the Outbox.
type StoredMessage struct {
	ID      string    `json:"id"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	HTML    string    `json:"html"`
	SentAt  time.Time `json:"sentAt"`
}

// Outbox keeps the most recent messages in memory instead of delivering
// them. Each receipt carries a preview link under previewBase.
type Outbox struct {
	mu          sync.RWMutex
	size        int
	order       []string
	messages    map[string]StoredMessage
	previewBase string
	log         *zap.Logger
}

func NewOutbox(size int, previewBase string, log *zap.Logger) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Outbox{
		size:        size,
		messages:    make(map[string]StoredMessage, size),
		previewBase: previewBase,
		log:         log,
	}
}

func (o *Outbox) Provider() string { return "outbox" }

func (o *Outbox) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.validate(); err != nil {
		return Receipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	stored := StoredMessage{
		ID:      uuid.NewString(),
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		SentAt:  time.Now().UTC(),
	}

	o.mu.Lock()
	if len(o.order) >= o.size {
		oldest := o.order[0]
		o.order = o.order[1:]
		delete(o.messages, oldest)
	}
	o.order = append(o.order, stored.ID)
	o.messages[stored.ID] = stored
	o.mu.Unlock()

	o.log.Debug("mail captured in outbox", zap.String("message_id", stored.ID))
	return Receipt{MessageID: stored.ID, PreviewURL: o.previewBase + "/" + stored.ID}, nil
}

func (o *Outbox) Get(id string) (StoredMessage, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.messages[id]
	return m, ok
}

func (o *Outbox) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.order)
}
