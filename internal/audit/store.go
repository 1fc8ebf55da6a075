package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	eventsKey = "audit:events"
)

// Store は監査イベントを Redis のリストに保存します。
// 新しいイベントが先頭に入り、maxEvents を超えた分は切り捨てます。
type Store struct {
	rdb       *redis.Client
	maxEvents int64
}

// NewStore は Store を作成します。maxEvents が 0 以下の場合は 1000 を使います。
func NewStore(rdb *redis.Client, maxEvents int64) *Store {
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	return &Store{
		rdb:       rdb,
		maxEvents: maxEvents,
	}
}

// Append はイベントを追記し、上限を超えた古いイベントを破棄します。
func (s *Store) Append(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, eventsKey, payload)
	pipe.LTrim(ctx, eventsKey, 0, s.maxEvents-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent は新しい順に最大 n 件のイベントを返します。
func (s *Store) Recent(ctx context.Context, n int64) ([]Event, error) {
	if n <= 0 {
		n = 50
	}
	values, err := s.rdb.LRange(ctx, eventsKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(values))
	for _, value := range values {
		var event Event
		if err := json.Unmarshal([]byte(value), &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
