package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/oriem-gate/internal/session"
)

func authenticatedSession() session.Session {
	return session.Session{
		State:      session.StateAuthenticated,
		Identity:   &session.Identity{UserID: "user-1", Username: "a"},
		Credential: "token-abc",
	}
}

func TestClassifyLogin(t *testing.T) {
	event := Classify(session.Session{State: session.StateAnonymous}, authenticatedSession())
	if event == nil || event.Kind != KindLogin {
		t.Fatalf("event = %+v, want kind %s", event, KindLogin)
	}
	if event.UserID != "user-1" {
		t.Fatalf("userId = %q", event.UserID)
	}
}

func TestClassifyLogout(t *testing.T) {
	event := Classify(authenticatedSession(), session.Session{State: session.StateAnonymous})
	if event == nil || event.Kind != KindLogout {
		t.Fatalf("event = %+v, want kind %s", event, KindLogout)
	}
	if event.UserID != "user-1" {
		t.Fatalf("logout event must carry the prior identity: %+v", event)
	}
}

func TestClassifySkipsRestore(t *testing.T) {
	// 復元は認証済みクライアントのリクエストごとに発生するため記録しない
	event := Classify(session.Session{State: session.StateUnknown}, authenticatedSession())
	if event != nil {
		t.Fatalf("event = %+v, want nil", event)
	}
}

func TestClassifySkipsVisitorRestore(t *testing.T) {
	// 訪問者の復元で未認証が確定しただけの遷移は記録しない
	event := Classify(session.Session{State: session.StateUnknown}, session.Session{State: session.StateAnonymous})
	if event != nil {
		t.Fatalf("event = %+v, want nil", event)
	}
}

// stubPersister は常に同じレコードを返す永続化ストアです。
type stubPersister struct {
	record *session.Record
}

func (s *stubPersister) Load(context.Context, string) (*session.Record, error) {
	return s.record, nil
}

func (s *stubPersister) Save(context.Context, string, *session.Record) error { return nil }

func (s *stubPersister) Delete(context.Context, string) error { return nil }

func TestRepeatedOpensRecordNoEvents(t *testing.T) {
	// 認証済みクライアントのナビゲーションごとの復元が
	// 監査証跡を埋め尽くしてはいけない
	persister := &stubPersister{record: &session.Record{
		Identity:   session.Identity{UserID: "user-1", Username: "a"},
		Credential: "token-abc",
	}}
	provider := session.NewProvider(nil, persister, nil) // ログインは発生しないため認証器は不要

	events := 0
	provider.Subscribe(func(prev, next session.Session) {
		if Classify(prev, next) != nil {
			events++
		}
	})

	for i := 0; i < 3; i++ {
		if _, err := provider.Open(context.Background(), "key-1"); err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
	}
	if events != 0 {
		t.Fatalf("events after repeated opens = %d, want 0", events)
	}
}

func newTestStore(t *testing.T, maxEvents int64) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, maxEvents)
}

func TestStoreAppendAndRecent(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Append(ctx, &Event{
			EventID: fmt.Sprintf("event-%d", i),
			Kind:    KindLogin,
			UserID:  "user-1",
		})
		if err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	// 新しい順に並ぶ
	if events[0].EventID != "event-2" || events[2].EventID != "event-0" {
		t.Fatalf("unexpected order: %+v", events)
	}
}

func TestStoreTrimsOldEvents(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := store.Append(ctx, &Event{
			EventID: fmt.Sprintf("event-%d", i),
			Kind:    KindLogin,
		})
		if err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].EventID != "event-4" || events[1].EventID != "event-3" {
		t.Fatalf("unexpected survivors: %+v", events)
	}
}

func TestStoreAppendRejectsNil(t *testing.T) {
	store := newTestStore(t, 10)
	if err := store.Append(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil event")
	}
}
