package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "Admin", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, "Admin", claims.Role)
}

func TestParseAccessTokenRejectsForeignSignature(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "User", 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "User", -1)
	require.NoError(t, err)

	_, err = ParseAccessToken("secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	rt, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
