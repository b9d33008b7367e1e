package services

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/edu-auth-service/internal/mailer"
	"github.com/fathima-sithara/edu-auth-service/internal/models"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateAccount   = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrNoOTPSet           = errors.New("no otp set")
	ErrOTPExpired         = errors.New("otp expired")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrInternal           = errors.New("internal server error")
)

// ValidationError is returned for malformed requests. Message is safe to
// show to the client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Mailer delivers verification codes. Implementations log their own failures.
type Mailer interface {
	SendOTP(ctx context.Context, mail mailer.OTPMail) (mailer.Receipt, error)
}

type TokenIssuer interface {
	Issue(accountID string) (token string, expiresAt time.Time, err error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// DebugInfo carries the dev-only otp and previewUrl fields. Services leave
// it nil unless debug secrets are exposed.
type DebugInfo struct {
	OTP        string
	PreviewURL string
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email_format"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher"`
}

type RegisterResult struct {
	User  models.PublicUser
	Debug *DebugInfo
}

type VerifyEmailInput struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

type VerifyEmailResult struct {
	AlreadyVerified bool
	Token           string
	User            *models.PublicUser
}

type ResendOTPInput struct {
	Email string `json:"email" validate:"required"`
}

type ResendOTPResult struct {
	AlreadyVerified bool
	Debug           *DebugInfo
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string
	User  models.PublicUser
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, in VerifyEmailInput) (*VerifyEmailResult, error)
	ResendOTP(ctx context.Context, in ResendOTPInput) (*ResendOTPResult, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	GetAccount(ctx context.Context, id string) (*models.PublicUser, error)
}
