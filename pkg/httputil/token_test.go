package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTokenFromBearerHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestGetTokenFromBareHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "abc.def.ghi")

	token, err := GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestGetTokenFromCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})

	token, err := GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", token)
}

func TestHeaderWinsOverCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})

	token, err := GetTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "header-token", token)
}

func TestNoTokenAnywhere(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	_, err := GetTokenFromRequest(r)
	assert.Error(t, err)
}
