package security_test

import (
	"testing"
	"time"

	"mylib-backend/internal/security"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := security.NewTokenManager(secret, time.Hour, 24*time.Hour)

	access, err := tm.GenerateAccessToken(7, "reader@library.org", []string{"ROLE_STUDENT"})
	require.NoError(t, err)
	assert.NotEmpty(t, access.ID)

	claims, err := tm.ValidateToken(access.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, security.TokenTypeAccess, claims.Type)
	assert.Equal(t, []string{"ROLE_STUDENT"}, claims.Roles)
	assert.Equal(t, access.ID, claims.ID)

	refresh, err := tm.GenerateRefreshToken(7, "reader@library.org")
	require.NoError(t, err)
	assert.NotEqual(t, access.ID, refresh.ID)

	claims, err = tm.ValidateToken(refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, security.TokenTypeRefresh, claims.Type)
	assert.Empty(t, claims.Roles)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := security.NewTokenManager(secret, time.Hour, time.Hour)

	t.Run("expired", func(t *testing.T) {
		short := security.NewTokenManager(secret, -time.Minute, time.Hour)
		tok, err := short.GenerateAccessToken(1, "a@b.c", nil)
		require.NoError(t, err)
		_, err = tm.ValidateToken(tok.Token)
		assert.ErrorIs(t, err, security.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := security.NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour, time.Hour)
		tok, err := other.GenerateAccessToken(1, "a@b.c", nil)
		require.NoError(t, err)
		_, err = tm.ValidateToken(tok.Token)
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.ValidateToken(s)
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	})
}
