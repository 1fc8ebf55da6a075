// Package persist はセッションレコードの永続化コラボレーターを提供します。
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/oriem-gate/internal/session"
)

const (
	sessionKeyPrefix = "session:"
)

// RedisStore はセッションレコードを Redis に保存します。
// レコードは JSON で直列化し、TTL で自動失効させます。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// Load はセッションレコードを取得します。存在しない場合は (nil, nil) を返します。
func (s *RedisStore) Load(ctx context.Context, key string) (*session.Record, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	data, err := s.rdb.Get(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var record session.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Save はセッションレコードを保存します。
func (s *RedisStore) Save(ctx context.Context, key string, record *session.Record) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(key), payload, s.ttl).Err()
}

// Delete はセッションレコードを削除します。存在しない場合もエラーにしません。
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return s.rdb.Del(ctx, sessionKey(key)).Err()
}

func sessionKey(key string) string {
	return sessionKeyPrefix + key
}
