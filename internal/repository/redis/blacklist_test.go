package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*Blacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewBlacklist(client, 15*time.Minute), mr
}

func TestBlacklistAddAndContains(t *testing.T) {
	bl, _ := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "revoked-token", 10*time.Minute))

	revoked, err := bl.Contains(ctx, "revoked-token")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.Contains(ctx, "some-other-token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistEntryExpires(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "short-lived", 2*time.Minute))

	mr.FastForward(3 * time.Minute)

	revoked, err := bl.Contains(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistDefaultTTL(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	// Non-positive ttl falls back to the access token lifetime.
	require.NoError(t, bl.Add(ctx, "no-ttl-token", 0))

	revoked, err := bl.Contains(ctx, "no-ttl-token")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(16 * time.Minute)

	revoked, err = bl.Contains(ctx, "no-ttl-token")
	require.NoError(t, err)
	assert.False(t, revoked)
}
