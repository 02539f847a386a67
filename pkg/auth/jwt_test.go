package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adoptapaw/backend/internal/config"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		AccessTokenSecret:  "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		TokenIssuer:        "adoptapaw-api",
		TokenAudience:      "adoptapaw-client",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		MaxSessionsPerUser: 5,
		BcryptCost:         bcrypt.MinCost,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateAccessToken(42, "anna@example.com", "adopter", true, "sess-42")
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "anna@example.com", claims.Email)
	assert.Equal(t, "adopter", claims.Role)
	assert.True(t, claims.Verified)
	assert.Equal(t, "sess-42", claims.SessionID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateRefreshToken(7, "shelter@example.com", "shelter", false, "sess-7")
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.False(t, claims.Verified)
}

func TestAccessTokenRejectedAsRefresh(t *testing.T) {
	setTestConfig(t)

	// Distinct signing keys: an access token must never pass refresh
	// verification, and vice versa.
	accessToken, err := GenerateAccessToken(1, "a@example.com", "adopter", true, "sess-1")
	require.NoError(t, err)
	_, err = ValidateRefreshToken(accessToken)
	assert.Error(t, err)

	refreshToken, err := GenerateRefreshToken(1, "a@example.com", "adopter", true, "sess-1")
	require.NoError(t, err)
	_, err = ValidateAccessToken(refreshToken)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	setTestConfig(t)
	config.AppConfig.AccessTokenTTL = -1 * time.Second

	token, err := GenerateAccessToken(1, "a@example.com", "adopter", true, "sess-1")
	require.NoError(t, err)

	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestForeignIssuerRejected(t *testing.T) {
	setTestConfig(t)
	config.AppConfig.TokenIssuer = "some-other-service"

	token, err := GenerateAccessToken(1, "a@example.com", "adopter", true, "sess-1")
	require.NoError(t, err)

	// Same signing key, wrong issuer: must be rejected.
	config.AppConfig.TokenIssuer = "adoptapaw-api"
	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestForeignAudienceRejected(t *testing.T) {
	setTestConfig(t)
	config.AppConfig.TokenAudience = "some-other-client"

	token, err := GenerateAccessToken(1, "a@example.com", "adopter", true, "sess-1")
	require.NoError(t, err)

	config.AppConfig.TokenAudience = "adoptapaw-client"
	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestMalformedTokenRejected(t *testing.T) {
	setTestConfig(t)

	_, err := ValidateAccessToken("not.a.jwt")
	assert.Error(t, err)
}

func TestRemainingLifetime(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateAccessToken(1, "a@example.com", "adopter", true, "sess-1")
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)

	remaining := claims.RemainingLifetime()
	assert.Greater(t, remaining, 14*time.Minute)
	assert.LessOrEqual(t, remaining, 15*time.Minute)
}

func TestTokenKeyDerivation(t *testing.T) {
	keyA := TokenKey("first-token-with-shared-tail-abcdefghij")
	keyB := TokenKey("other-token-with-shared-tail-abcdefghij")

	// Tokens sharing a suffix must not collide on the derived key.
	assert.NotEqual(t, keyA, keyB)
	assert.Len(t, keyA, 16)
	assert.Equal(t, keyA, TokenKey("first-token-with-shared-tail-abcdefghij"))
}
