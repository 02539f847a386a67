package httputil

import (
	"errors"
	"net/http"
	"strings"
)

const AuthCookieName = "auth_token"

// GetTokenFromRequest extracts the access token from the Authorization
// header, falling back to the auth cookie for browser clients.
func GetTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer "), nil
		}
		return authHeader, nil
	}

	cookie, err := r.Cookie(AuthCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", errors.New("no auth token found in header or cookie")
}
