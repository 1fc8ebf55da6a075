// Package auth は認証・認可機能を提供します。
package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/oriem-gate/internal/session"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionView struct {
	State      session.State     `json:"state"`
	Identity   *session.Identity `json:"identity,omitempty"`
	IssuedAt   string            `json:"issuedAt,omitempty"`
	LoginPath  string            `json:"loginPath"`
	Authorized bool              `json:"isAuthenticated"`
}

func newSessionView(sess session.Session, loginPath string) sessionView {
	view := sessionView{
		State:      sess.State,
		Identity:   sess.Identity,
		LoginPath:  loginPath,
		Authorized: sess.IsAuthenticated(),
	}
	if !sess.IssuedAt.IsZero() {
		view.IssuedAt = sess.IssuedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return view
}

// Login は POST /api/auth/login のハンドラーです。
// 成功時はセッションキーと CSRF トークンをクッキーに保存し、
// セッションスナップショットを返します。失敗時はセッションを変更しません。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username と password を JSON で送ってください",
		})
		return
	}

	ip := c.ClientIP()
	if retryAfter := m.checkLock(ip); retryAfter > 0 {
		// Retry-After は秒数またはHTTP-Date形式が推奨されているため秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    "TOO_MANY_ATTEMPTS",
			"message": "一定時間後に再度お試しください",
		})
		return
	}

	store, err := m.openStore(c)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "SESSION_RESTORE_FAILED",
			"message": "セッションを復元できませんでした。時間をおいて再度お試しください",
		})
		return
	}

	sess, err := store.Login(c.Request.Context(), session.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		m.renderLoginError(c, ip, err)
		return
	}

	m.resetAttempts(ip)

	token, err := generateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "TOKEN_GENERATION_FAILED",
			"message": "CSRF トークンの生成に失敗しました",
		})
		return
	}

	cookie := sessions.Default(c)
	cookie.Set(sessionKeySID, store.Key())
	cookie.Set(sessionKeyCSRF, token)
	if err := cookie.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	c.Header(csrfHeader, token)
	c.JSON(http.StatusOK, newSessionView(sess, m.table.LoginPath()))
}

// renderLoginError はログイン失敗をエラー分類ごとの応答に変換します。
// ゲートの拒否（リダイレクト）とは異なり、ログイン失敗はエラー応答です。
func (m *Manager) renderLoginError(c *gin.Context, ip string, err error) {
	switch {
	case errors.Is(err, session.ErrRejectedCredentials):
		remaining := m.recordFailure(ip)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":              "INVALID_CREDENTIALS",
			"message":           "ユーザー名またはパスワードが正しくありません",
			"remainingAttempts": remaining,
		})
	case errors.Is(err, session.ErrLoginInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"code":    "LOGIN_IN_PROGRESS",
			"message": "ログイン処理が進行中です。完了までお待ちください",
		})
	case errors.Is(err, session.ErrMalformedResponse):
		m.logf("login failed with malformed auth response: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "AUTH_BACKEND_MALFORMED",
			"message": "認証サーバーの応答を解釈できませんでした",
		})
	default:
		m.logf("login failed with transport error: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "AUTH_BACKEND_ERROR",
			"message": "認証サーバーに接続できませんでした",
		})
	}
}

// Logout は POST /api/auth/logout のハンドラーです。
// 未認証の状態で呼ばれても冪等に成功します。
func (m *Manager) Logout(c *gin.Context) {
	cookie := sessions.Default(c)
	sid, ok := cookie.Get(sessionKeySID).(string)
	if ok && sid != "" {
		store, err := m.provider.Open(c.Request.Context(), sid)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    "SESSION_RESTORE_FAILED",
				"message": "セッションを復元できませんでした。時間をおいて再度お試しください",
			})
			return
		}
		store.Logout(c.Request.Context())
	}

	cookie.Clear()
	if err := cookie.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの削除に失敗しました",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// Me は GET /api/session のハンドラーです。
// 現在のセッション状態を返します（変更は発生しません）。
func (m *Manager) Me(c *gin.Context) {
	cookie := sessions.Default(c)
	sid, ok := cookie.Get(sessionKeySID).(string)
	if !ok || sid == "" {
		c.JSON(http.StatusOK, newSessionView(session.Session{State: session.StateAnonymous}, m.table.LoginPath()))
		return
	}

	store, err := m.provider.Open(c.Request.Context(), sid)
	if err != nil {
		// 復元が完了するまで未認証とは断定しない
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, newSessionView(session.Session{State: session.StateUnknown}, m.table.LoginPath()))
		return
	}
	c.JSON(http.StatusOK, newSessionView(store.Current(), m.table.LoginPath()))
}

func (m *Manager) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
