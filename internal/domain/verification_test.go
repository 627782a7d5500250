package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeErr(t *testing.T, err error) *Error {
	t.Helper()
	var de *Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %v", err)
	return de
}

func TestVerificationCode_ActiveIsValid(t *testing.T) {
	now := time.Now()
	c := &VerificationCode{CreatedAt: now.Add(-time.Minute)}
	assert.NoError(t, c.Validate(now))
}

func TestVerificationCode_UsedWinsOverEverything(t *testing.T) {
	now := time.Now()
	c := &VerificationCode{
		Used:             true,
		NumberOfAttempts: VerificationCodeMaxAttempts,
		CreatedAt:        now.Add(-2 * VerificationCodeMaxAge),
	}
	err := c.Validate(now)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, CodeCodeUsed, codeErr(t, err).Code)
}

func TestVerificationCode_AttemptsBeforeExpiry(t *testing.T) {
	now := time.Now()
	c := &VerificationCode{CreatedAt: now}
	for i := 0; i < VerificationCodeMaxAttempts; i++ {
		require.NoError(t, c.Validate(now))
		c.NumberOfAttempts++
	}
	err := c.Validate(now)
	assert.Equal(t, CodeTooManyAttempts, codeErr(t, err).Code)

	c.CreatedAt = now.Add(-2 * VerificationCodeMaxAge)
	assert.Equal(t, CodeTooManyAttempts, codeErr(t, c.Validate(now)).Code)
}

func TestVerificationCode_Expired(t *testing.T) {
	now := time.Now()
	c := &VerificationCode{CreatedAt: now.Add(-VerificationCodeMaxAge - time.Second)}
	err := c.Validate(now)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, CodeCodeExpired, codeErr(t, err).Code)

	c.CreatedAt = now.Add(-VerificationCodeMaxAge)
	assert.NoError(t, c.Validate(now))
}

func TestAPIKey_IsRevoked(t *testing.T) {
	now := time.Now()
	k := &APIKey{}
	assert.False(t, k.IsRevoked(now))

	past := now.Add(-time.Second)
	k.RevokedAt = &past
	assert.True(t, k.IsRevoked(now))

	future := now.Add(time.Hour)
	k.RevokedAt = &future
	assert.False(t, k.IsRevoked(now))
}

func TestUser_IsSignedUp(t *testing.T) {
	name, short := "Alice", "alice"
	u := &User{}
	assert.False(t, u.IsSignedUp())
	assert.Equal(t, "", u.ShortnameOrEmpty())

	u.Shortname = &short
	assert.False(t, u.IsSignedUp())
	u.PreferredName = &name
	assert.True(t, u.IsSignedUp())
	assert.Equal(t, "alice", u.ShortnameOrEmpty())
}
