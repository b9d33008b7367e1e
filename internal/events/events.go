package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeAccountRegistered = "account.registered"
	TypeAccountVerified   = "account.verified"
	TypeOTPResent         = "account.otp_resent"
)

// AccountEvent is the JSON payload published on every account lifecycle change.
// It never carries the OTP or password.
type AccountEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	AccountID  string    `json:"accountId"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewAccountEvent(typ, accountID, email, role string, at time.Time) AccountEvent {
	return AccountEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		AccountID:  accountID,
		Email:      email,
		Role:       role,
		OccurredAt: at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt AccountEvent) error
	Close() error
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, AccountEvent) error { return nil }
func (Noop) Close() error                                { return nil }
