package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Authenticator は外部の認証コラボレーターを抽象化します。
// 失敗時は ErrTransport / ErrRejectedCredentials / ErrMalformedResponse の
// いずれかを（ラップして）返すことが期待されます。
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*Result, error)
}

// Record は永続化ストアに書き込むセッションレコードです。
// Identity と Credential の片方だけを持つレコードは不正とみなされ、
// 復元時に破棄されます。
type Record struct {
	Identity   Identity  `json:"identity"`
	Credential string    `json:"credential"`
	IssuedAt   time.Time `json:"issuedAt"`
}

// Persister はセッションの永続化コラボレーターです。
// Load はレコードが存在しない場合 (nil, nil) を返します。
type Persister interface {
	Load(ctx context.Context, key string) (*Record, error)
	Save(ctx context.Context, key string, record *Record) error
	Delete(ctx context.Context, key string) error
}

// Listener はセッション遷移の通知を受け取るコールバックです。
// 遷移前後のスナップショットが渡されます。通知は変更操作の中から
// 同期的に呼ばれるため、リスナー内で Login / Logout を呼び出してはいけません。
type Listener func(prev, next Session)

type listenerEntry struct {
	id int
	fn Listener
}

// DiscardListener は不変条件を満たさないセッションレコードが
// 復元時に破棄されたときに呼ばれるコールバックです。
// 破棄は unknown → anonymous の遷移として観測されるため、
// 通常のリスナーでは訪問者の復元と区別できません。
type DiscardListener func(key string)

// flightTable はセッションキーごとの進行中ログインを追跡します。
// 同じキーに対する Store はリクエストごとに作り直されるため、
// 進行中の判定は Store 単体ではなくキー単位で共有します。
type flightTable struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFlightTable() *flightTable {
	return &flightTable{keys: make(map[string]bool)}
}

func (f *flightTable) begin(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false
	}
	f.keys[key] = true
	return true
}

func (f *flightTable) end(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

// Store は単一クライアントのセッション状態を保持するコンテナです。
// 変更（と通知の配送）は mutateMu で直列化し、参照は mu のみを取るため
// Current は通知配送中でもブロックしません。
type Store struct {
	key     string
	auth    Authenticator
	persist Persister
	logger  *log.Logger

	mutateMu sync.Mutex // 変更と通知の順序を保証する
	mu       sync.Mutex // sess / listeners / discards を保護する

	sess      Session
	flights   *flightTable
	listeners []listenerEntry
	discards  []DiscardListener
	nextID    int
}

// NewStore は復元前（StateUnknown）の Store を作成します。
func NewStore(key string, auth Authenticator, persist Persister, logger *log.Logger) *Store {
	return &Store{
		key:     key,
		auth:    auth,
		persist: persist,
		logger:  logger,
		flights: newFlightTable(),
		sess:    Session{State: StateUnknown},
	}
}

// Key はこの Store に紐づくセッションキーを返します。
func (s *Store) Key() string {
	return s.key
}

// Current は現在のセッションのスナップショットを返します。ブロックしません。
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// Subscribe はセッション遷移ごとに呼ばれるリスナーを登録し、
// 登録解除用の関数を返します。参照操作では通知されません。
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.listeners {
			if entry.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// SubscribeDiscard は復元時にレコードが破棄されたときの通知を受け取る
// リスナーを登録します（監査ログ用途）。
func (s *Store) SubscribeDiscard(fn DiscardListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discards = append(s.discards, fn)
}

// Login は認証コラボレーターで資格情報を検証し、成功時に
// Identity と Credential を不可分に設定します。失敗時は状態を変更せず、
// 原因を表すエラーを返します。同じキーに対して進行中のログインがある場合は
// ErrLoginInProgress で拒否します（後勝ちにはしません）。
func (s *Store) Login(ctx context.Context, creds Credentials) (Session, error) {
	if !s.flights.begin(s.key) {
		return s.Current(), ErrLoginInProgress
	}
	defer s.flights.end(s.key)

	// 認証呼び出し中も Current は直前の状態を返し続ける。
	result, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		return s.Current(), classifyAuthError(err)
	}
	if result == nil || result.Identity.UserID == "" || result.Credential == "" {
		return s.Current(), fmt.Errorf("%w: identity or credential missing", ErrMalformedResponse)
	}

	identity := result.Identity
	next := Session{
		State:      StateAuthenticated,
		Identity:   &identity,
		Credential: result.Credential,
		IssuedAt:   time.Now().UTC(),
	}
	s.apply(ctx, next)
	return next, nil
}

// Logout は Identity と Credential を不可分に破棄します。
// すでに未認証の場合は何もしません（通知も発生しません）。
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	authenticated := s.sess.IsAuthenticated()
	known := s.sess.State != StateUnknown
	s.mu.Unlock()
	if known && !authenticated {
		return
	}
	s.apply(ctx, Session{State: StateAnonymous})
}

// Restore は永続化ストアからセッションを復元し、StateUnknown を解消します。
// 不変条件を満たさないレコードは破棄して未認証として扱います。
// 復元済みの Store に対しては何もしません。
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	if s.sess.State != StateUnknown {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	record, err := s.persist.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load session record: %w", err)
	}

	if record == nil {
		s.apply(ctx, Session{State: StateAnonymous})
		return nil
	}

	if record.Identity.UserID == "" || record.Credential == "" {
		s.logf("discarding partial session record key=%s", s.key)
		s.apply(ctx, Session{State: StateAnonymous})
		s.notifyDiscard()
		return nil
	}

	identity := record.Identity
	s.apply(ctx, Session{
		State:      StateAuthenticated,
		Identity:   &identity,
		Credential: record.Credential,
		IssuedAt:   record.IssuedAt,
	})
	return nil
}

// apply は状態遷移・永続化・通知を 1 つの直列区間として実行します。
func (s *Store) apply(ctx context.Context, next Session) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	prev := s.sess
	s.sess = next
	entries := make([]listenerEntry, len(s.listeners))
	copy(entries, s.listeners)
	s.mu.Unlock()

	if next.IsAuthenticated() {
		record := &Record{
			Identity:   *next.Identity,
			Credential: next.Credential,
			IssuedAt:   next.IssuedAt,
		}
		if err := s.persist.Save(ctx, s.key, record); err != nil {
			s.logf("failed to save session record key=%s: %v", s.key, err)
		}
	} else {
		if err := s.persist.Delete(ctx, s.key); err != nil {
			s.logf("failed to delete session record key=%s: %v", s.key, err)
		}
	}

	for _, entry := range entries {
		entry.fn(prev, next)
	}
}

func (s *Store) notifyDiscard() {
	s.mu.Lock()
	discards := make([]DiscardListener, len(s.discards))
	copy(discards, s.discards)
	s.mu.Unlock()
	for _, fn := range discards {
		fn(s.key)
	}
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// classifyAuthError は型なしのエラーを ErrTransport に寄せます。
// 既知のエラー種別はそのまま透過します。
func classifyAuthError(err error) error {
	switch {
	case errors.Is(err, ErrRejectedCredentials),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrTransport):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}
