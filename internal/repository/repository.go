package repository

import (
	"context"
	"errors"

	"github.com/fathima-sithara/edu-auth-service/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrAlreadyVerified = errors.New("user already verified")
	ErrPartialOTP      = errors.New("otp code and expiry must be set together")
	ErrOTPSuperseded   = errors.New("otp no longer matches the stored code")
)

// UserRepository is the account store consumed by the auth service.
// It is the only source of truth; implementations must not cache.
type UserRepository interface {
	// Create inserts a new account. It never overwrites: an existing email
	// yields ErrDuplicateEmail.
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// SaveOTP persists the pending OTP pair of an unverified account. It never
	// repopulates a verified account: that yields ErrAlreadyVerified.
	SaveOTP(ctx context.Context, u *models.User) error
	// MarkVerified flips an unverified account to verified and clears its OTP
	// pair, but only while the stored code still equals code. A code replaced
	// in the meantime yields ErrOTPSuperseded; an account verified in the
	// meantime yields ErrAlreadyVerified.
	MarkVerified(ctx context.Context, u *models.User, code string) error
}
