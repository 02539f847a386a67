package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adoptapaw/backend/internal/domain"
	"github.com/adoptapaw/backend/pkg/auth"
	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix = "refresh:"
	indexKeyPrefix  = "refresh_index:"
)

// CredentialStore keeps the active refresh credentials per user in Redis.
// Each credential lives under a record key derived from a hash of the full
// token; an ordered list per user tracks insertion order so the oldest
// credential can be evicted when the cap is exceeded (FIFO, not LRU).
type CredentialStore struct {
	client *redis.Client
	ttl    time.Duration
	cap    int
}

func NewCredentialStore(client *redis.Client, ttl time.Duration, cap int) *CredentialStore {
	return &CredentialStore{client: client, ttl: ttl, cap: cap}
}

func recordKey(userID int64, tokenKey string) string {
	return fmt.Sprintf("%s%d:%s", recordKeyPrefix, userID, tokenKey)
}

func indexKey(userID int64) string {
	return fmt.Sprintf("%s%d", indexKeyPrefix, userID)
}

// storeScript inserts a credential record, appends it to the user's index
// and evicts the oldest entries past the cap, all in one atomic unit.
// KEYS[1]=record key, KEYS[2]=index key
// ARGV[1]=token key, ARGV[2]=record json, ARGV[3]=ttl seconds,
// ARGV[4]=cap, ARGV[5]=record key prefix for evictions
var storeScript = redis.NewScript(`
redis.call("SET", KEYS[1], ARGV[2], "EX", tonumber(ARGV[3]))
redis.call("RPUSH", KEYS[2], ARGV[1])
redis.call("EXPIRE", KEYS[2], tonumber(ARGV[3]))
while redis.call("LLEN", KEYS[2]) > tonumber(ARGV[4]) do
	local evicted = redis.call("LPOP", KEYS[2])
	if evicted then
		redis.call("DEL", ARGV[5] .. evicted)
	end
end
return 1
`)

// rotateScript swaps an old credential for a new one only if the old one is
// still present. Concurrent refreshes presenting the same credential race on
// this script; exactly one wins, the rest see 0 and are rejected.
// KEYS[1]=old record key, KEYS[2]=index key, KEYS[3]=new record key
// ARGV[1]=old token key, ARGV[2]=new token key, ARGV[3]=new record json,
// ARGV[4]=ttl seconds
var rotateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("DEL", KEYS[1])
redis.call("LREM", KEYS[2], 1, ARGV[1])
redis.call("SET", KEYS[3], ARGV[3], "EX", tonumber(ARGV[4]))
redis.call("RPUSH", KEYS[2], ARGV[2])
redis.call("EXPIRE", KEYS[2], tonumber(ARGV[4]))
return 1
`)

// Store persists a new refresh credential record for the user, evicting the
// oldest record when the per-user cap is exceeded.
func (s *CredentialStore) Store(ctx context.Context, userID int64, token, deviceInfo string) error {
	key := auth.TokenKey(token)
	record := domain.CredentialRecord{
		TokenKey:   key,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		LastUsedAt: time.Now(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal credential record: %v", err)
	}

	userPrefix := fmt.Sprintf("%s%d:", recordKeyPrefix, userID)
	err = storeScript.Run(ctx, s.client,
		[]string{recordKey(userID, key), indexKey(userID)},
		key, data, int(s.ttl.Seconds()), s.cap, userPrefix,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store refresh credential: %v", err)
	}
	return nil
}

// Lookup returns the record for the presented token and refreshes its
// last-used timestamp. Returns domain.ErrCredentialNotFound if the
// credential was rotated, revoked or evicted.
func (s *CredentialStore) Lookup(ctx context.Context, userID int64, token string) (*domain.CredentialRecord, error) {
	key := recordKey(userID, auth.TokenKey(token))

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, domain.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh credential: %v", err)
	}

	var record domain.CredentialRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to decode credential record: %v", err)
	}

	record.LastUsedAt = time.Now()
	if updated, err := json.Marshal(record); err == nil {
		// Best effort; the TTL of the record is preserved.
		s.client.Set(ctx, key, updated, redis.KeepTTL)
	}

	return &record, nil
}

// Rotate atomically replaces oldToken's record with a record for newToken.
// Returns domain.ErrCredentialNotFound if oldToken is no longer stored,
// which is how a concurrent rotation of the same credential loses the race.
func (s *CredentialStore) Rotate(ctx context.Context, userID int64, oldToken, newToken, deviceInfo string) error {
	oldKey := auth.TokenKey(oldToken)
	newKey := auth.TokenKey(newToken)

	record := domain.CredentialRecord{
		TokenKey:   newKey,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		LastUsedAt: time.Now(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal credential record: %v", err)
	}

	res, err := rotateScript.Run(ctx, s.client,
		[]string{recordKey(userID, oldKey), indexKey(userID), recordKey(userID, newKey)},
		oldKey, newKey, data, int(s.ttl.Seconds()),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to rotate refresh credential: %v", err)
	}
	if res == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}

// Revoke deletes the record for the presented token and drops it from the
// user's index.
func (s *CredentialStore) Revoke(ctx context.Context, userID int64, token string) error {
	key := auth.TokenKey(token)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordKey(userID, key))
	pipe.LRem(ctx, indexKey(userID), 1, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke refresh credential: %v", err)
	}
	return nil
}

// RevokeAll deletes every credential record for the user along with the
// index itself. Used for "log out of all devices".
func (s *CredentialStore) RevokeAll(ctx context.Context, userID int64) error {
	idx := indexKey(userID)

	keys, err := s.client.LRange(ctx, idx, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to list refresh credentials: %v", err)
	}

	pipe := s.client.TxPipeline()
	for _, key := range keys {
		pipe.Del(ctx, recordKey(userID, key))
	}
	pipe.Del(ctx, idx)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke refresh credentials: %v", err)
	}
	return nil
}

// List returns the stored records in insertion order. Used by tests and the
// session history view to cross-check active devices.
func (s *CredentialStore) List(ctx context.Context, userID int64) ([]domain.CredentialRecord, error) {
	keys, err := s.client.LRange(ctx, indexKey(userID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to list refresh credentials: %v", err)
	}

	var records []domain.CredentialRecord
	for _, key := range keys {
		data, err := s.client.Get(ctx, recordKey(userID, key)).Result()
		if err == redis.Nil {
			continue // record expired ahead of its index entry
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read credential record: %v", err)
		}
		var record domain.CredentialRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
