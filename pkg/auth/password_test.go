package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	setTestConfig(t)

	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret!", hash)

	assert.True(t, CheckPasswordHash("Sup3rSecret!", hash))
	assert.False(t, CheckPasswordHash("sup3rsecret!", hash))
	assert.False(t, CheckPasswordHash("", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		missing  string // empty means the password is acceptable
	}{
		{"acceptable", "Sup3rSecret!", ""},
		{"too short", "S3cr!t", "at least 8 characters"},
		{"no uppercase", "sup3rsecret!", "at least 1 uppercase letter"},
		{"no lowercase", "SUP3RSECRET!", "at least 1 lowercase letter"},
		{"no digit", "SuperSecret!", "at least 1 digit"},
		{"no special", "Sup3rSecret", "at least 1 special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestValidatePasswordStrengthReportsEveryFailure(t *testing.T) {
	err := ValidatePasswordStrength("abc")
	require.Error(t, err)

	// One attempt, every missing rule named.
	for _, clause := range []string{
		"at least 8 characters",
		"at least 1 uppercase letter",
		"at least 1 digit",
		"at least 1 special character",
	} {
		assert.Contains(t, err.Error(), clause)
	}
	assert.False(t, strings.Contains(err.Error(), "lowercase"))
}
