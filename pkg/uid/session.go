package uid

import "github.com/google/uuid"

// GenerateSessionID returns a unique id for a session ledger row.
func GenerateSessionID() string {
	return uuid.NewString()
}
