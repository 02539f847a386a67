package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/adoptapaw/backend/pkg/auth"
	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:"

// Blacklist is the revocation list for access tokens. Entries exist only to
// make logout immediate; each one expires no later than the token it shadows
// would have expired on its own.
type Blacklist struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func NewBlacklist(client *redis.Client, defaultTTL time.Duration) *Blacklist {
	return &Blacklist{client: client, defaultTTL: defaultTTL}
}

// Add inserts a revocation marker for the token. A non-positive ttl falls
// back to the default (the access token lifetime).
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = b.defaultTTL
	}
	key := blacklistKeyPrefix + auth.TokenKey(token)
	if err := b.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %v", err)
	}
	return nil
}

// Contains reports whether the token has been revoked. Errors are returned
// so callers can fail closed instead of treating an unreachable store as
// "not blacklisted".
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	key := blacklistKeyPrefix + auth.TokenKey(token)
	_, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %v", err)
	}
	return true, nil
}
