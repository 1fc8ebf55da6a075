package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc, err := NewService(NewStore(rdb), nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestCreateCheckingAccount(t *testing.T) {
	svc := newTestService(t)

	account, err := svc.Create(context.Background(), "user-1", CreateInput{
		Type:                TypeChecking,
		Nickname:            "Main Checking",
		InitialDepositCents: 2500,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if account.AccountID == "" {
		t.Fatal("accountID must be assigned")
	}
	if account.Status != StatusActive {
		t.Fatalf("status = %s, want %s", account.Status, StatusActive)
	}
	if account.BalanceCents != 2500 {
		t.Fatalf("balance = %d, want 2500", account.BalanceCents)
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Type:                "brokerage",
		InitialDepositCents: 100000,
	})
	if !errors.Is(err, ErrInvalidAccountType) {
		t.Fatalf("error = %v, want ErrInvalidAccountType", err)
	}
}

func TestCreateEnforcesMinimumDeposit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// 普通口座の最低額は $100.00
	_, err := svc.Create(ctx, "user-1", CreateInput{
		Type:                TypeSavings,
		InitialDepositCents: 9999,
	})
	if !errors.Is(err, ErrMinimumDeposit) {
		t.Fatalf("error = %v, want ErrMinimumDeposit", err)
	}

	if _, err := svc.Create(ctx, "user-1", CreateInput{
		Type:                TypeSavings,
		InitialDepositCents: 10000,
	}); err != nil {
		t.Fatalf("Create at exact minimum returned error: %v", err)
	}
}

func TestListExcludesClosedAccounts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-1", CreateInput{Type: TypeChecking, InitialDepositCents: 2500})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(ctx, "user-1", CreateInput{Type: TypeSavings, InitialDepositCents: 10000}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Close(ctx, "user-1", first.AccountID); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	accounts, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(accounts))
	}
	if accounts[0].Type != TypeSavings {
		t.Fatalf("unexpected account: %+v", accounts[0])
	}

	// 解約済みでも直接参照はできる（ソフトデリート）
	closed, err := svc.Get(ctx, "user-1", first.AccountID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if closed.Status != StatusClosed {
		t.Fatalf("status = %s, want %s", closed.Status, StatusClosed)
	}
}

func TestGetIsScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, "user-1", CreateInput{Type: TypeChecking, InitialDepositCents: 2500})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Get(ctx, "user-2", account.AccountID); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestUpdateNicknameAndStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, "user-1", CreateInput{Type: TypeSavings, InitialDepositCents: 10000})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	nickname := "Vacation Savings"
	frozen := StatusFrozen
	updated, err := svc.Update(ctx, "user-1", account.AccountID, UpdateInput{
		Nickname: &nickname,
		Status:   &frozen,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Nickname != nickname || updated.Status != StatusFrozen {
		t.Fatalf("unexpected account: %+v", updated)
	}

	bogus := Status("suspended")
	if _, err := svc.Update(ctx, "user-1", account.AccountID, UpdateInput{Status: &bogus}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestCloseMissingAccount(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Close(context.Background(), "user-1", "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}
}
