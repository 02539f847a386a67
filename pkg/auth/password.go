package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/adoptapaw/backend/internal/config"
)

// HashPassword hashes a plaintext password with bcrypt at the configured cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.AppConfig.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether the password matches the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// passwordRules drive ValidatePasswordStrength. Each failing rule contributes
// one clause to the rejection message so the user sees everything missing at
// once rather than fixing one rule per attempt.
var passwordRules = []struct {
	clause string
	ok     func(string) bool
}{
	{"at least 8 characters", func(p string) bool { return len(p) >= 8 }},
	{"at least 1 uppercase letter", containsClass(unicode.IsUpper)},
	{"at least 1 lowercase letter", containsClass(unicode.IsLower)},
	{"at least 1 digit", containsClass(unicode.IsDigit)},
	{"at least 1 special character", func(p string) bool {
		return containsClass(unicode.IsPunct)(p) || containsClass(unicode.IsSymbol)(p)
	}},
}

func containsClass(class func(rune) bool) func(string) bool {
	return func(p string) bool {
		for _, r := range p {
			if class(r) {
				return true
			}
		}
		return false
	}
}

// ValidatePasswordStrength rejects passwords missing any complexity rule.
func ValidatePasswordStrength(password string) error {
	var failed []string
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			failed = append(failed, rule.clause)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("password must contain %s", strings.Join(failed, ", "))
	}
	return nil
}
