package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndValidate(t *testing.T) {
	s, err := NewSessions("s3cret", "", "signing-key", time.Hour)
	require.NoError(t, err)

	token, expires, err := s.Login("s3cret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)
	assert.NoError(t, s.Validate(token))

	_, _, err = s.Login("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithPrecomputedHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	s, err := NewSessions("", hash, "signing-key", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, s.TTL())

	_, _, err = s.Login("s3cret")
	assert.NoError(t, err)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	s, err := NewSessions("s3cret", "", "signing-key", time.Hour)
	require.NoError(t, err)
	other, err := NewSessions("s3cret", "", "other-key", time.Hour)
	require.NoError(t, err)

	foreign, _, err := other.Login("s3cret")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Validate(foreign), ErrInvalidSession)

	token, _, err := s.Login("s3cret")
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, s.Validate(token), ErrInvalidSession)

	assert.ErrorIs(t, s.Validate(""), ErrInvalidSession)
	assert.ErrorIs(t, s.Validate("not-a-jwt"), ErrInvalidSession)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	s, err := NewSessions("s3cret", "", "signing-key", time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin", Issuer: "tekkistudio-site"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Validate(token), ErrInvalidSession)
}

func TestDisabledSessions(t *testing.T) {
	s, err := NewSessions("", "", "", time.Hour)
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	_, _, err = s.Login("anything")
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewSessions("s3cret", "", "", time.Hour)
	assert.Error(t, err)
}
