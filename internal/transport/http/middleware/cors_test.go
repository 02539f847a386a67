package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/adoptapaw/backend/internal/config"
)

func newCORSRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{
		AllowedOrigins: []string{"https://app.adoptapaw.example", "http://localhost:3000"},
	}

	router := gin.New()
	router.Use(CORSMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func corsGet(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	router := newCORSRouter(t)

	w := corsGet(router, http.MethodGet, "http://localhost:3000")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsUnlistedOrigin(t *testing.T) {
	router := newCORSRouter(t)

	w := corsGet(router, http.MethodGet, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPassesRequestsWithoutOrigin(t *testing.T) {
	router := newCORSRouter(t)

	// curl-style and same-origin requests carry no Origin header.
	w := corsGet(router, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	router := newCORSRouter(t)

	w := corsGet(router, http.MethodOptions, "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "OPTIONS")
	// The preflight never reaches the handler.
	assert.Empty(t, w.Body.String())
}
