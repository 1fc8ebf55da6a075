package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/oriem-gate/internal/guard"
	"github.com/yourusername/oriem-gate/internal/routes"
	"github.com/yourusername/oriem-gate/internal/session"
)

// Gate はルートごとの判定を行うミドルウェアを返します。
// 保護されたビューは認証済みの場合のみ通過し、未認証は
// ログインパスへの 302 リダイレクト、復元未完了は保護コンテンツを
// 一切描画しない保留応答になります。
func (m *Manager) Gate(rt routes.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := m.resolveSession(c)
		verdict := m.guard.Decide(sess, rt)
		switch verdict.Decision {
		case guard.DecisionRedirect:
			c.Redirect(http.StatusFound, verdict.Target)
			c.Abort()
		case guard.DecisionPending:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"view":    "loading",
				"message": "セッションを確認しています",
			})
		default:
			c.Set(ContextSessionKey, sess)
			c.Next()
		}
	}
}

// resolveSession はリクエストのクッキーから現在のセッションを復元します。
// キー未発行は未認証の確定、復元失敗は未確定（StateUnknown）として返します。
func (m *Manager) resolveSession(c *gin.Context) session.Session {
	cookie := sessions.Default(c)
	sid, ok := cookie.Get(sessionKeySID).(string)
	if !ok || sid == "" {
		return session.Session{State: session.StateAnonymous}
	}

	store, err := m.provider.Open(c.Request.Context(), sid)
	if err != nil {
		m.logf("session restore failed sid=%s: %v", sid, err)
		return store.Current() // StateUnknown のまま
	}
	return store.Current()
}

// CurrentSession はゲート通過後のハンドラーでセッションスナップショットを取り出します。
func CurrentSession(c *gin.Context) (session.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return session.Session{}, false
	}
	sess, ok := value.(session.Session)
	return sess, ok
}

// RequireSession は API 向けにセッションを検証するミドルウェアを返します。
// ナビゲーションと違い、未認証はリダイレクトではなく 401 を返します。
func (m *Manager) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := m.resolveSession(c)
		if sess.State == session.StateUnknown {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":    "SESSION_RESTORING",
				"message": "セッションを確認しています",
			})
			return
		}
		if !sess.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "ログインが必要です",
			})
			return
		}
		c.Set(ContextSessionKey, sess)
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		cookie := sessions.Default(c)
		expected, ok := cookie.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF トークンが設定されていません",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF トークンが一致しません",
			})
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
