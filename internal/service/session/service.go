package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/adoptapaw/backend/internal/config"
	"github.com/adoptapaw/backend/internal/domain"
	"github.com/adoptapaw/backend/pkg/auth"
	"github.com/adoptapaw/backend/pkg/uid"
)

// CredentialStore is the server-side state for refresh credentials. It is
// authoritative for whether a refresh token is still usable.
type CredentialStore interface {
	Store(ctx context.Context, userID int64, token, deviceInfo string) error
	Lookup(ctx context.Context, userID int64, token string) (*domain.CredentialRecord, error)
	Rotate(ctx context.Context, userID int64, oldToken, newToken, deviceInfo string) error
	Revoke(ctx context.Context, userID int64, token string) error
	RevokeAll(ctx context.Context, userID int64) error
}

// Blacklist revokes access tokens ahead of their natural expiry.
type Blacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

// SessionLedger is the durable audit trail in Postgres. It may lag the
// credential store and is never consulted for authorization.
type SessionLedger interface {
	CreateSession(userID int64, sessionID, refreshTokenKey, deviceInfo, ipAddress string, expiresAt time.Time) error
	GetSessionByRefreshTokenKey(userID int64, refreshTokenKey string) (*domain.UserSession, error)
	RotateSessionToken(userID int64, oldRefreshTokenKey, newRefreshTokenKey string, expiresAt time.Time) error
	DeactivateSessionByRefreshTokenKey(userID int64, refreshTokenKey string) error
	DeactivateAllUserSessions(userID int64) error
	UpdateSessionActivity(sessionID string) error
	GetUserSessionHistory(userID int64, limit int) ([]domain.UserSession, error)
}

type UserProvider interface {
	GetUserByEmail(email string) (*domain.User, error)
	GetUserByID(userID int64) (*domain.User, error)
}

// AuthService handles the credential lifecycle: login, rotation, logout and
// per-request verification.
type AuthService struct {
	users       UserProvider
	credentials CredentialStore
	blacklist   Blacklist
	ledger      SessionLedger
}

func NewAuthService(users UserProvider, credentials CredentialStore, blacklist Blacklist, ledger SessionLedger) *AuthService {
	return &AuthService{
		users:       users,
		credentials: credentials,
		blacklist:   blacklist,
		ledger:      ledger,
	}
}

// TokenPair bundles what a successful login or refresh hands to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// Login checks the password and issues an access/refresh pair. The refresh
// credential is persisted in the store and the login is recorded in the
// session ledger.
func (s *AuthService) Login(ctx context.Context, email, password, deviceInfo, ipAddress string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("user lookup failed: %v", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, domain.ErrAccountInactive
	}

	sessionID := uid.GenerateSessionID()
	pair, refreshToken, err := s.issuePair(user, sessionID)
	if err != nil {
		return nil, nil, err
	}

	// The credential store is authoritative: a failure here fails the login.
	if err := s.credentials.Store(ctx, user.ID, refreshToken, deviceInfo); err != nil {
		return nil, nil, fmt.Errorf("failed to store refresh credential: %v", err)
	}

	// The ledger is an audit trail; a write failure is logged, not fatal.
	expiresAt := time.Now().Add(config.AppConfig.RefreshTokenTTL)
	if err := s.ledger.CreateSession(user.ID, sessionID, auth.TokenKey(refreshToken), deviceInfo, ipAddress, expiresAt); err != nil {
		log.Printf("[SESSION] Warning: failed to record login in session ledger: %v", err)
	}

	return user, pair, nil
}

// Refresh rotates a refresh credential: the presented token must still be in
// the store, and swapping it for the replacement happens as one atomic unit
// so two concurrent refreshes of the same credential cannot both succeed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrCredentialNotFound
	}

	// Lookup carries the device info forward and refreshes last-used; the
	// authorization decision itself is the atomic Rotate below.
	record, err := s.credentials.Lookup(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %v", err)
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	// The session id survives rotation: the rotated pair still belongs to
	// the same ledger row. Tokens from before session ids existed get a
	// fresh one.
	sessionID := claims.SessionID
	if sessionID == "" {
		sessionID = uid.GenerateSessionID()
	}

	pair, newRefreshToken, err := s.issuePair(user, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.credentials.Rotate(ctx, user.ID, refreshToken, newRefreshToken, record.DeviceInfo); err != nil {
		return nil, err
	}

	s.recordRotation(user.ID, sessionID, refreshToken, newRefreshToken, record.DeviceInfo)

	return pair, nil
}

// recordRotation points the ledger at the rotated credential. If the login's
// ledger write was lost (ledger failures are non-fatal), the row is
// re-created here so session history picks the device back up.
func (s *AuthService) recordRotation(userID int64, sessionID, oldToken, newToken, deviceInfo string) {
	oldKey := auth.TokenKey(oldToken)
	newKey := auth.TokenKey(newToken)
	expiresAt := time.Now().Add(config.AppConfig.RefreshTokenTTL)

	row, err := s.ledger.GetSessionByRefreshTokenKey(userID, oldKey)
	if err != nil {
		log.Printf("[SESSION] Warning: failed to read session ledger on rotation: %v", err)
		return
	}
	if row == nil {
		if err := s.ledger.CreateSession(userID, sessionID, newKey, deviceInfo, "", expiresAt); err != nil {
			log.Printf("[SESSION] Warning: failed to backfill session ledger: %v", err)
		}
		return
	}
	if err := s.ledger.RotateSessionToken(userID, oldKey, newKey, expiresAt); err != nil {
		log.Printf("[SESSION] Warning: failed to update session ledger on rotation: %v", err)
	}
}

func (s *AuthService) issuePair(user *domain.User, sessionID string) (*TokenPair, string, error) {
	accessToken, err := auth.GenerateAccessToken(user.ID, user.Email, user.Role, user.Verified, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %v", err)
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, user.Email, user.Role, user.Verified, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate refresh token: %v", err)
	}
	pair := &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(config.AppConfig.AccessTokenTTL.Seconds()),
	}
	return pair, refreshToken, nil
}

// VerifyAccess authenticates one request. The blacklist is consulted before
// the signature result is trusted, and a blacklist error fails closed: an
// unreachable store means unauthenticated, never "assume fine".
func (s *AuthService) VerifyAccess(ctx context.Context, accessToken string) (*auth.Claims, error) {
	blacklisted, err := s.blacklist.Contains(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, domain.ErrTokenBlacklisted
	}
	claims, err := auth.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout blacklists the presented access token for its remaining lifetime
// and revokes refresh credentials: one if a refresh token is supplied, all
// of them when logoutFromAll is set.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, accessToken, refreshToken string, logoutFromAll bool) error {
	if err := s.blacklist.Add(ctx, accessToken, claims.RemainingLifetime()); err != nil {
		return fmt.Errorf("failed to blacklist access token: %v", err)
	}

	if logoutFromAll {
		if err := s.credentials.RevokeAll(ctx, claims.UserID); err != nil {
			return err
		}
		if err := s.ledger.DeactivateAllUserSessions(claims.UserID); err != nil {
			log.Printf("[SESSION] Warning: failed to deactivate sessions in ledger: %v", err)
		}
		return nil
	}

	if refreshToken != "" {
		if err := s.credentials.Revoke(ctx, claims.UserID, refreshToken); err != nil {
			return err
		}
		if err := s.ledger.DeactivateSessionByRefreshTokenKey(claims.UserID, auth.TokenKey(refreshToken)); err != nil {
			log.Printf("[SESSION] Warning: failed to deactivate session in ledger: %v", err)
		}
	}

	return nil
}

// TouchSession bumps the ledger's last-activity timestamp for a session.
// Best effort: the middleware fires it off the request path and a miss only
// leaves the session history view stale.
func (s *AuthService) TouchSession(sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.ledger.UpdateSessionActivity(sessionID); err != nil {
		log.Printf("[SESSION] Warning: failed to update session activity: %v", err)
	}
}

// GetUser loads the user behind verified claims, for GET /auth/verify.
func (s *AuthService) GetUser(userID int64) (*domain.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %v", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// GetUserSessionHistory returns the recent login audit rows for a user
func (s *AuthService) GetUserSessionHistory(userID int64, limit int) ([]domain.UserSession, error) {
	return s.ledger.GetUserSessionHistory(userID, limit)
}
