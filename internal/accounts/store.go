package accounts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	accountKeyPrefix = "account:"
	indexKeyPrefix   = "accounts:"
)

// Store は口座レコードを Redis に保存します。
// 本体は JSON、ユーザーごとの口座一覧はセットで管理します。
type Store struct {
	rdb *redis.Client
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Save は口座レコードと一覧インデックスを保存します。
func (s *Store) Save(ctx context.Context, account *Account) error {
	if account == nil {
		return fmt.Errorf("account is nil")
	}
	if account.AccountID == "" || account.UserID == "" {
		return fmt.Errorf("accountID and userID are required")
	}
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, accountKey(account.UserID, account.AccountID), payload, 0)
	pipe.SAdd(ctx, indexKey(account.UserID), account.AccountID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get は口座レコードを取得します。存在しない場合は (nil, nil) を返します。
func (s *Store) Get(ctx context.Context, userID, accountID string) (*Account, error) {
	if userID == "" || accountID == "" {
		return nil, fmt.Errorf("userID and accountID are required")
	}
	data, err := s.rdb.Get(ctx, accountKey(userID, accountID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var account Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// List はユーザーの全口座を返します（状態は問いません）。
func (s *Store) List(ctx context.Context, userID string) ([]Account, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}
	ids, err := s.rdb.SMembers(ctx, indexKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(ids))
	for _, id := range ids {
		account, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if account == nil {
			continue
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func accountKey(userID, accountID string) string {
	return accountKeyPrefix + userID + ":" + accountID
}

func indexKey(userID string) string {
	return indexKeyPrefix + userID
}
