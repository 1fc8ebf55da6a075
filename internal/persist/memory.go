package persist

import (
	"context"
	"sync"

	"github.com/yourusername/oriem-gate/internal/session"
)

// MemoryStore はプロセス内にセッションレコードを保持します。
// 開発・テスト用で、再起動をまたぐ永続性はありません。
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]session.Record
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]session.Record),
	}
}

// Load はセッションレコードを取得します。存在しない場合は (nil, nil) を返します。
func (s *MemoryStore) Load(_ context.Context, key string) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

// Save はセッションレコードを保存します。
func (s *MemoryStore) Save(_ context.Context, key string, record *session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = *record
	return nil
}

// Delete はセッションレコードを削除します。
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
