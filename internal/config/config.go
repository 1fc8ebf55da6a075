// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// アプリケーション設定
	AppUsername     string // ログイン用ユーザー名（組み込み認証器を使う場合）
	AppPasswordHash string // bcryptでハッシュ化されたパスワード
	SessionSecret   string // セッションクッキー署名用の秘密鍵
	TokenSecret     string // クレデンシャル（JWT）署名用の秘密鍵

	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)
	Version string // バージョン表記（/version で返す）

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// 認証コラボレーター設定
	AuthAPIURL        string // 外部認証APIのベースURL（空なら組み込み認証器を使う）
	AuthTimeoutSecs   int    // 外部認証API呼び出しのタイムアウト（秒）
	TokenExpireMins   int    // 発行するクレデンシャルの有効期限（分）
	SessionExpireMins int    // 永続化セッションの有効期限（分）

	// Redis設定
	SessionRedisURL string // セッション・口座レコード保存用Redis接続URL
	QueueRedisURL   string // Asynq（監査キュー）用Redis接続URL

	// 監査設定
	AuditMaxEvents int64 // 保持する監査イベントの最大件数
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// アプリケーション設定
		AppUsername:     getEnv("APP_USERNAME", ""),
		AppPasswordHash: getEnv("APP_PASSWORD_HASH", ""),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		TokenSecret:     getEnv("TOKEN_SECRET", ""),

		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),
		Version: getEnv("VERSION", "1.0.0"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// 認証コラボレーター設定
		AuthAPIURL:        getEnv("AUTH_API_URL", ""),
		AuthTimeoutSecs:   getEnvAsInt("AUTH_TIMEOUT_SECONDS", 10),
		TokenExpireMins:   getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		SessionExpireMins: getEnvAsInt("SESSION_EXPIRE_MINUTES", 720), // 12時間

		// Redis設定
		SessionRedisURL: getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),
		QueueRedisURL:   getEnv("QUEUE_REDIS_URL", "redis://127.0.0.1:6379/1"),

		// 監査設定
		AuditMaxEvents: getEnvAsInt64("AUDIT_MAX_EVENTS", 1000),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	// ローカル開発では認証設定は任意
	// 本番環境では厳格にチェックする想定
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.SessionRedisURL == "" {
			return fmt.Errorf("SESSION_REDIS_URL is required in release mode")
		}
		if c.QueueRedisURL == "" {
			return fmt.Errorf("QUEUE_REDIS_URL is required in release mode")
		}
		if c.AuthAPIURL == "" {
			// 外部認証APIを使わない場合は組み込み認証器の設定が必須
			if c.AppUsername == "" {
				return fmt.Errorf("APP_USERNAME is required in release mode when AUTH_API_URL is unset")
			}
			if c.AppPasswordHash == "" {
				return fmt.Errorf("APP_PASSWORD_HASH is required in release mode when AUTH_API_URL is unset")
			}
			if c.TokenSecret == "" {
				return fmt.Errorf("TOKEN_SECRET is required in release mode when AUTH_API_URL is unset")
			}
		}
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
