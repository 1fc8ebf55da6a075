// Package main はセッションゲートAPIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/oriem-gate/internal/accounts"
	"github.com/yourusername/oriem-gate/internal/audit"
	"github.com/yourusername/oriem-gate/internal/auth"
	"github.com/yourusername/oriem-gate/internal/config"
	"github.com/yourusername/oriem-gate/internal/routes"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// セッションキー連携用クッキーの設定（署名鍵は必須）
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowOrigins = origins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-CSRF-Token", // CSRF保護用ヘッダー
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	// セッションプロバイダーと監査の組み立て
	gate, err := setupGate(cfg)
	if err != nil {
		log.Fatalf("Failed to set up session gate: %v", err)
	}
	gate.audit.StartWorkers()

	// ルーティングの設定
	setupRoutes(router, cfg, gate)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRoutes はナビゲーション・認証・API の配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, gate *gateComponents) {
	// まずは誰でも叩けるヘルスチェックとバージョン情報を登録
	router.GET("/health", healthHandler(gate.redis))
	router.GET("/version", versionHandler(cfg))

	manager := auth.NewManager(gate.provider, gate.table, log.Default())

	// ナビゲーション可能なパス。保護の有無はテーブル側の宣言に従う
	for _, rt := range gate.table.Routes() {
		router.GET(rt.Path, manager.Gate(rt), viewHandler(rt))
	}
	// 未登録パスは 404 ビュー（ログインへのリダイレクトはしない）
	router.NoRoute(notFoundHandler())

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			// ログイン時はセッション未生成なので CSRF 検証は不要
			authRoutes.POST("/login", manager.Login)
			authRoutes.POST("/logout",
				manager.VerifyCSRF(),
				manager.Logout,
			)
		}

		// セッション状態の参照はログイン前でも可能
		api.GET("/session", manager.Me)

		protected := api.Group("")
		protected.Use(manager.RequireSession(), manager.VerifyCSRF())
		{
			accountService := gate.accounts
			protected.POST("/accounts", accounts.CreateHandler(accountService))
			protected.GET("/accounts", accounts.ListHandler(accountService))
			protected.GET("/accounts/:accountId", accounts.GetHandler(accountService))
			protected.PUT("/accounts/:accountId", accounts.UpdateHandler(accountService))
			protected.DELETE("/accounts/:accountId", accounts.CloseHandler(accountService))

			protected.GET("/audit/events", auditEventsHandler(gate.audit))
		}
	}
}

// auditEventsHandler は記録済みの監査イベントを新しい順に返します。
func auditEventsHandler(manager *audit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := manager.Recent(c.Request.Context(), 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "AUDIT_STORE_ERROR",
				"message": "監査イベントを取得できませんでした",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// viewHandler はルートテーブルのビュー識別子をそのまま描画します。
func viewHandler(rt routes.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := gin.H{
			"view":      string(rt.View),
			"path":      rt.Path,
			"protected": rt.Protected,
		}
		if sess, ok := auth.CurrentSession(c); ok && sess.Identity != nil {
			payload["identity"] = sess.Identity
		}
		c.JSON(http.StatusOK, payload)
	}
}

// notFoundHandler は未登録パスに対して 404 ビューを描画します。
func notFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"view":    string(routes.ViewNotFound),
			"code":    "NOT_FOUND",
			"message": "指定されたパスは存在しません",
		})
	}
}
