package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adoptapaw/backend/internal/service/session"
	"github.com/adoptapaw/backend/pkg/httputil"
)

const verifyTimeout = 5 * time.Second

// Context keys set for downstream handlers.
const (
	ContextUserID      = "user_id"
	ContextClaims      = "claims"
	ContextAccessToken = "access_token"
)

// AuthMiddleware authenticates a request with an access token. The
// blacklist is consulted inside VerifyAccess before the signature result is
// trusted, so a structurally valid token can still be rejected. Every
// failure is the same generic 401: the client cannot tell a revoked token
// from an invalid one.
func AuthMiddleware(authService *session.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), verifyTimeout)
		defer cancel()

		claims, err := authService.VerifyAccess(ctx, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		// Bump the ledger's activity timestamp off the request path.
		go authService.TouchSession(claims.SessionID)

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Set(ContextAccessToken, tokenString)
		c.Next()
	}
}
