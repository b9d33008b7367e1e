package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the account role chosen at registration.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User is the persisted account document.
type User struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                     string             `bson:"name" json:"name"`
	Email                    string             `bson:"email" json:"email"`
	PasswordHash             string             `bson:"password" json:"-"`
	Role                     Role               `bson:"role" json:"role"`
	IsVerified               bool               `bson:"isVerified" json:"isVerified"`
	EmailVerificationOTP     *string            `bson:"emailVerificationOtp,omitempty" json:"-"`
	EmailVerificationExpires *time.Time         `bson:"emailVerificationExpires,omitempty" json:"-"`
	CreatedAt                time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt                time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SetVerificationOTP attaches a pending code and its expiry. Both fields are
// always written together.
func (u *User) SetVerificationOTP(code string, expiresAt time.Time) {
	u.EmailVerificationOTP = &code
	u.EmailVerificationExpires = &expiresAt
}

// HasPendingOTP reports whether both OTP fields are present.
func (u *User) HasPendingOTP() bool {
	return u.EmailVerificationOTP != nil && u.EmailVerificationExpires != nil
}

// MarkVerified flips the account to verified and clears the OTP pair.
// There is no inverse.
func (u *User) MarkVerified() {
	u.IsVerified = true
	u.EmailVerificationOTP = nil
	u.EmailVerificationExpires = nil
}

// PublicUser is the subset of account fields safe to return to clients.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
