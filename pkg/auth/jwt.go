package auth

import (
	"errors"
	"time"

	"github.com/adoptapaw/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the identity claims carried by both token kinds.
// SessionID ties the token to its session ledger row so per-request activity
// tracking does not need a database lookup by token.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Verified  bool   `json:"verified"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// GenerateAccessToken creates a short-lived JWT access token
func GenerateAccessToken(userID int64, email, role string, verified bool, sessionID string) (string, error) {
	cfg := config.AppConfig
	return generate(userID, email, role, verified, sessionID, cfg.AccessTokenSecret, cfg.AccessTokenTTL)
}

// GenerateRefreshToken creates a long-lived JWT refresh token signed with a
// distinct key so access and refresh tokens are never interchangeable.
func GenerateRefreshToken(userID int64, email, role string, verified bool, sessionID string) (string, error) {
	cfg := config.AppConfig
	return generate(userID, email, role, verified, sessionID, cfg.RefreshTokenSecret, cfg.RefreshTokenTTL)
}

func generate(userID int64, email, role string, verified bool, sessionID, secret string, ttl time.Duration) (string, error) {
	cfg := config.AppConfig
	now := time.Now()

	claims := &Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		Verified:  verified,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			// Timestamps truncate to whole seconds; the ID keeps two
			// tokens minted in the same second from being identical.
			ID:        uuid.NewString(),
			Issuer:    cfg.TokenIssuer,
			Audience:  jwt.ClaimStrings{cfg.TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates a JWT access token and returns the claims
func ValidateAccessToken(tokenString string) (*Claims, error) {
	return validate(tokenString, config.AppConfig.AccessTokenSecret)
}

// ValidateRefreshToken validates a refresh token JWT and returns its claims
func ValidateRefreshToken(tokenString string) (*Claims, error) {
	return validate(tokenString, config.AppConfig.RefreshTokenSecret)
}

func validate(tokenString, secret string) (*Claims, error) {
	cfg := config.AppConfig

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(cfg.TokenIssuer),
		jwt.WithAudience(cfg.TokenAudience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// RemainingLifetime returns how long until the claims expire, floored at zero.
// Used to bound the blacklist TTL to the token's own remaining life.
func (c *Claims) RemainingLifetime() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
