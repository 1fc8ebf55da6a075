package accounts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAccountNotFound は口座が存在しない（または他ユーザーの口座である）ことを表します。
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAccountType は未対応の口座種別を表します。
	ErrInvalidAccountType = errors.New("invalid account type")
	// ErrMinimumDeposit は最低預入額に満たないことを表します。
	ErrMinimumDeposit = errors.New("initial deposit below minimum")
	// ErrInvalidStatus は未対応の口座状態を表します。
	ErrInvalidStatus = errors.New("invalid account status")
)

// Service は口座操作のビジネスルールを実装します。
type Service struct {
	store  *Store
	logger *log.Logger
}

// NewService は Service を作成します。
func NewService(store *Store, logger *log.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Service{
		store:  store,
		logger: logger,
	}, nil
}

// Create は口座種別と最低預入額を検証して口座を開設します。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*Account, error) {
	accountType := Type(strings.ToLower(string(input.Type)))
	minimum, ok := minimumDepositCents[accountType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccountType, input.Type)
	}
	if input.InitialDepositCents < minimum {
		return nil, fmt.Errorf("%w: %s requires at least %d cents", ErrMinimumDeposit, accountType, minimum)
	}

	now := time.Now().UTC()
	account := &Account{
		AccountID:    uuid.NewString(),
		UserID:       userID,
		Type:         accountType,
		Nickname:     input.Nickname,
		BalanceCents: input.InitialDepositCents,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return account, nil
}

// List はユーザーの口座一覧を返します。解約済みの口座は含めません。
func (s *Service) List(ctx context.Context, userID string) ([]Account, error) {
	all, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(all))
	for _, account := range all {
		if account.Status == StatusClosed {
			continue
		}
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Get は口座を 1 件取得します。
func (s *Service) Get(ctx context.Context, userID, accountID string) (*Account, error) {
	account, err := s.store.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// Update はニックネームと状態を更新します。
func (s *Service) Update(ctx context.Context, userID, accountID string, input UpdateInput) (*Account, error) {
	account, err := s.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	if input.Nickname != nil {
		account.Nickname = *input.Nickname
	}
	if input.Status != nil {
		switch *input.Status {
		case StatusActive, StatusFrozen, StatusClosed:
			account.Status = *input.Status
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *input.Status)
		}
	}

	account.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	return account, nil
}

// Close は口座を解約状態にします（レコードは消しません）。
func (s *Service) Close(ctx context.Context, userID, accountID string) error {
	account, err := s.Get(ctx, userID, accountID)
	if err != nil {
		return err
	}
	account.Status = StatusClosed
	account.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}
