package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultHashCost = 10

	// MaxPasswordBytes is the longest input bcrypt reads.
	MaxPasswordBytes = 72
)

var ErrMismatchedPassword = errors.New("password does not match")

// PasswordHasher wraps bcrypt at a fixed cost.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Compare returns nil when password matches hash and ErrMismatchedPassword
// when it does not. Malformed hashes are reported as other errors.
// bcrypt ignores everything past MaxPasswordBytes, so longer inputs never match.
func (h *PasswordHasher) Compare(password, hash string) error {
	if len(password) > MaxPasswordBytes {
		return ErrMismatchedPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedPassword
		}
		return err
	}
	return nil
}
