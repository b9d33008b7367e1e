// Package otp issues and checks the six digit email verification codes.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/fathima-sithara/edu-auth-service/internal/models"
)

const (
	DefaultTTL = 15 * time.Minute

	minCode = 100000
	maxCode = 999999
)

// Outcome is the result of checking a supplied code against an account.
type Outcome int

const (
	NoOTPSet Outcome = iota
	Expired
	Mismatch
	Valid
)

func (o Outcome) String() string {
	switch o {
	case NoOTPSet:
		return "no_otp_set"
	case Expired:
		return "expired"
	case Mismatch:
		return "mismatch"
	case Valid:
		return "valid"
	}
	return "unknown"
}

type Issuer struct {
	ttl time.Duration
	now func() time.Time
}

// NewIssuer returns an issuer whose codes live for ttl. A nil clock means time.Now.
func NewIssuer(ttl time.Duration, now func() time.Time) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{ttl: ttl, now: now}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Generate draws a code uniformly from [100000, 999999] and computes its
// expiry. The expiry is truncated to milliseconds so it survives a BSON round trip.
func (i *Issuer) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}
	code := strconv.FormatInt(n.Int64()+minCode, 10)
	expiresAt := i.now().UTC().Add(i.ttl).Truncate(time.Millisecond)
	return code, expiresAt, nil
}

// Validate judges supplied against the snapshot in u. It never mutates u.
// A code is still valid at exactly its expiry instant.
func Validate(u *models.User, supplied string, now time.Time) Outcome {
	if u == nil || !u.HasPendingOTP() {
		return NoOTPSet
	}
	if now.After(*u.EmailVerificationExpires) {
		return Expired
	}
	if subtle.ConstantTimeCompare([]byte(*u.EmailVerificationOTP), []byte(supplied)) != 1 {
		return Mismatch
	}
	return Valid
}
