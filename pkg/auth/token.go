package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenKey derives the fixed-length cache key component for a token. A hash
// of the full token is used instead of a raw suffix so two tokens can never
// collide on a shared tail and the key does not depend on the token's
// serialization format.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:16]
}
