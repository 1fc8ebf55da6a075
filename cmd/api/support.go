package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/oriem-gate/internal/accounts"
	"github.com/yourusername/oriem-gate/internal/audit"
	"github.com/yourusername/oriem-gate/internal/authapi"
	"github.com/yourusername/oriem-gate/internal/config"
	"github.com/yourusername/oriem-gate/internal/persist"
	"github.com/yourusername/oriem-gate/internal/routes"
	"github.com/yourusername/oriem-gate/internal/session"
)

// gateComponents はセッションゲートを構成するコンポーネント一式です。
type gateComponents struct {
	table    *routes.Table
	provider *session.Provider
	audit    *audit.Manager
	accounts *accounts.Service
	redis    *redis.Client
}

// setupGate は設定から認証器・永続化・監査・口座サービスを組み立てます。
func setupGate(cfg *config.Config) (*gateComponents, error) {
	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		return nil, err
	}
	redisClient := redis.NewClient(opt)

	sessionTTL := time.Duration(cfg.SessionExpireMins) * time.Minute
	persister := persist.NewRedisStore(redisClient, sessionTTL)

	authenticator, err := setupAuthenticator(cfg)
	if err != nil {
		return nil, err
	}

	provider := session.NewProvider(authenticator, persister, log.Default())

	queueOpt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, err
	}
	auditStore := audit.NewStore(redis.NewClient(queueOpt), cfg.AuditMaxEvents)
	auditManager, err := audit.NewManager(cfg.QueueRedisURL, auditStore, log.Default())
	if err != nil {
		return nil, err
	}
	// セッション遷移と破棄されたレコードを監査証跡として記録する
	provider.Subscribe(auditManager.Recorder())
	provider.SubscribeDiscard(auditManager.DiscardRecorder())

	accountStore := accounts.NewStore(redisClient)
	accountService, err := accounts.NewService(accountStore, log.Default())
	if err != nil {
		return nil, err
	}

	return &gateComponents{
		table:    routes.DefaultTable(),
		provider: provider,
		audit:    auditManager,
		accounts: accountService,
		redis:    redisClient,
	}, nil
}

// setupAuthenticator は外部認証APIと組み込み認証器を構成に応じて切り替えます。
func setupAuthenticator(cfg *config.Config) (session.Authenticator, error) {
	if cfg.AuthAPIURL != "" {
		timeout := time.Duration(cfg.AuthTimeoutSecs) * time.Second
		return authapi.NewClient(cfg.AuthAPIURL, timeout), nil
	}

	if cfg.AppUsername == "" || cfg.AppPasswordHash == "" || cfg.TokenSecret == "" {
		// ローカル開発では未構成のまま起動を許し、ログイン時に失敗させる
		log.Printf("authenticator is not configured; logins will fail until APP_USERNAME / APP_PASSWORD_HASH / TOKEN_SECRET are set")
		return authapi.Unconfigured{}, nil
	}

	return authapi.NewStatic(authapi.StaticConfig{
		Username:     cfg.AppUsername,
		PasswordHash: cfg.AppPasswordHash,
		Email:        cfg.AppUsername + "@oriemcapital.local",
		TokenSecret:  []byte(cfg.TokenSecret),
		TokenTTL:     time.Duration(cfg.TokenExpireMins) * time.Minute,
	})
}

// healthHandler はヘルスチェックエンドポイントのハンドラーを返します。
// セッションストレージ（Redis）への疎通を確認します。
func healthHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusOK, gin.H{
				"status":  "error",
				"storage": "unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"storage": "connected",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler はバージョンと実行環境を返すハンドラーを返します。
func versionHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     cfg.Version,
			"environment": cfg.GinMode,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
