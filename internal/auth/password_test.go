package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.NotContains(t, hash, "secret1")

	assert.NoError(t, h.Compare("secret1", hash))
	for _, other := range []string{"secret2", "Secret1", "secret1 ", ""} {
		assert.ErrorIs(t, h.Compare(other, hash), ErrMismatchedPassword, other)
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_Cost(t *testing.T) {
	hash, err := NewPasswordHasher(0).Hash("secret1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultHashCost, cost)
}

func TestPasswordHasher_Errors(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("x", 73))
	assert.Error(t, err)

	err = h.Compare("secret1", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatchedPassword)
}

func TestPasswordHasher_RejectsBytesPastLimit(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	pw := strings.Repeat("a", MaxPasswordBytes)

	hash, err := h.Hash(pw)
	require.NoError(t, err)
	require.NoError(t, h.Compare(pw, hash))

	for _, other := range []string{pw + "EXTRA-SUFFIX", pw + "a", strings.Repeat("b", 80)} {
		assert.ErrorIs(t, h.Compare(other, hash), ErrMismatchedPassword, len(other))
	}
}
