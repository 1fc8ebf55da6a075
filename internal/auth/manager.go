package auth

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/oriem-gate/internal/guard"
	"github.com/yourusername/oriem-gate/internal/routes"
	"github.com/yourusername/oriem-gate/internal/session"
)

const (
	SessionCookieName = "og_session"
	sessionKeySID     = "session_key"
	sessionKeyCSRF    = "csrf_token"

	csrfHeader = "X-CSRF-Token"
)

var (
	maxSessionLifetime = 12 * time.Hour
	loginWindow        = 15 * time.Minute
	lockDuration       = 10 * time.Minute
	maxLoginAttempts   = 5
)

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func SessionMaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

// ContextSessionKey は、ハンドラー間でセッションスナップショットを共有するためのキーです。
const ContextSessionKey = "gate.session"

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// Manager はセッションゲートの HTTP 層をまとめた構造体です。
// セッション状態そのものは session.Provider が所有し、Manager は
// クッキーとの紐付けとログイン試行の制限だけを担います。
type Manager struct {
	provider *session.Provider
	table    *routes.Table
	guard    guard.Guard
	logger   *log.Logger

	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewManager は認証マネージャーを作成します。
func NewManager(provider *session.Provider, table *routes.Table, logger *log.Logger) *Manager {
	return &Manager{
		provider: provider,
		table:    table,
		guard:    guard.New(table.LoginPath()),
		logger:   logger,
		attempts: make(map[string]*attemptState),
	}
}

// openStore はクッキーからセッションキーを読み取り、対応する Store を開きます。
// キーが未発行の場合は新しいキーで復元前の Store を作成します。
func (m *Manager) openStore(c *gin.Context) (*session.Store, error) {
	cookie := sessions.Default(c)
	sid, ok := cookie.Get(sessionKeySID).(string)
	if !ok || sid == "" {
		sid = uuid.NewString()
	}
	return m.provider.Open(c.Request.Context(), sid)
}

func (m *Manager) checkLock(ip string) time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[ip]
	if !ok {
		return 0
	}
	now := time.Now()
	if now.After(state.lockedUntil) {
		return 0
	}
	return time.Until(state.lockedUntil)
}

func (m *Manager) recordFailure(ip string) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now()
	state, ok := m.attempts[ip]
	if !ok || now.Sub(state.firstAttempt) > loginWindow {
		state = &attemptState{firstAttempt: now}
		m.attempts[ip] = state
	}

	state.count++
	if state.count >= maxLoginAttempts {
		state.lockedUntil = now.Add(lockDuration)
		state.count = maxLoginAttempts
	}

	remaining := maxLoginAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (m *Manager) resetAttempts(ip string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, ip)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
