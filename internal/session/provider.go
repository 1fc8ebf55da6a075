package session

import (
	"context"
	"log"
	"sync"
)

// Provider は認証コラボレーターと永続化ストアを束ね、
// クライアントごとの Store の生成と復元を担います。
// セッションサービスは常に Provider 経由で参照を受け渡し、
// 暗黙のグローバル状態にはしません。
type Provider struct {
	auth    Authenticator
	persist Persister
	logger  *log.Logger
	flights *flightTable

	mu             sync.Mutex
	global         []Listener
	globalDiscards []DiscardListener
}

// NewProvider は Provider を作成します。
func NewProvider(auth Authenticator, persist Persister, logger *log.Logger) *Provider {
	return &Provider{
		auth:    auth,
		persist: persist,
		logger:  logger,
		flights: newFlightTable(),
	}
}

// Subscribe は Provider が以後開くすべての Store に
// 接続されるグローバルリスナーを登録します（監査ログ用途）。
func (p *Provider) Subscribe(fn Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.global = append(p.global, fn)
}

// SubscribeDiscard は Provider が以後開くすべての Store に接続される
// レコード破棄リスナーを登録します。
func (p *Provider) SubscribeDiscard(fn DiscardListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.globalDiscards = append(p.globalDiscards, fn)
}

// New はキーに紐づく復元前の Store を作成します。
// グローバルリスナーは作成時点で接続され、進行中ログインの追跡は
// 同じキーの Store 間で共有されます。
func (p *Provider) New(key string) *Store {
	store := NewStore(key, p.auth, p.persist, p.logger)
	store.flights = p.flights
	p.mu.Lock()
	global := make([]Listener, len(p.global))
	copy(global, p.global)
	discards := make([]DiscardListener, len(p.globalDiscards))
	copy(discards, p.globalDiscards)
	p.mu.Unlock()
	for _, fn := range global {
		store.Subscribe(fn)
	}
	for _, fn := range discards {
		store.SubscribeDiscard(fn)
	}
	return store
}

// Open はキーに紐づく Store を作成し、永続化ストアから復元します。
// 復元に失敗した場合も Store は返します（StateUnknown のまま）。
// 呼び出し側は未知状態を未認証と同一視してはいけません。
func (p *Provider) Open(ctx context.Context, key string) (*Store, error) {
	store := p.New(key)
	if err := store.Restore(ctx); err != nil {
		return store, err
	}
	return store, nil
}
