package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adoptapaw/backend/internal/config"
)

func originAllowed(origin string) bool {
	for _, allowed := range config.AppConfig.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// CORSMiddleware gates cross-origin requests against the configured origin
// list. Requests without an Origin header (curl, same-origin, server-to-
// server) pass through untouched; browser requests from an unlisted origin
// are refused with a 403 before any handler runs.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" {
			if !originAllowed(origin) {
				log.Printf("[CORS] Rejected origin %q", origin)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Origin not allowed"})
				return
			}
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		// Preflights end here; the actual request follows separately.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityHeadersMiddleware sets baseline security headers on every response
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
