package authapi

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/oriem-gate/internal/session"
)

const credentialIssuer = "oriem-gate"

// StaticConfig は Static 認証器の構成です。
type StaticConfig struct {
	Username     string        // ログイン用ユーザー名
	PasswordHash string        // bcrypt でハッシュ化されたパスワード
	Email        string        // 発行する Identity のメールアドレス
	Role         string        // 発行する Identity のロール（省略時 "admin"）
	TokenSecret  []byte        // クレデンシャル署名用の秘密鍵
	TokenTTL     time.Duration // クレデンシャルの有効期間（省略時 30 分）
}

// Static は外部 API を使わずに資格情報を検証する認証器です。
// 検証成功時は HS256 署名の JWT をクレデンシャルとして発行します。
type Static struct {
	cfg StaticConfig
}

// NewStatic は Static を作成します。
func NewStatic(cfg StaticConfig) (*Static, error) {
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if cfg.PasswordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	if len(cfg.TokenSecret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.Role == "" {
		cfg.Role = "admin"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	return &Static{cfg: cfg}, nil
}

// Authenticate は構成済みの資格情報と照合します。
func (s *Static) Authenticate(_ context.Context, creds session.Credentials) (*session.Result, error) {
	if creds.Username != s.cfg.Username || !s.verifyPassword(creds.Password) {
		return nil, session.ErrRejectedCredentials
	}

	credential, err := s.mintCredential()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign credential: %v", session.ErrTransport, err)
	}

	return &session.Result{
		Identity: session.Identity{
			UserID:   s.cfg.Username,
			Username: s.cfg.Username,
			Email:    s.cfg.Email,
			Role:     s.cfg.Role,
		},
		Credential: credential,
	}, nil
}

// Unconfigured は認証器が構成されていない環境で使うプレースホルダーです。
// すべてのログインを失敗させますが、クラッシュはさせません。
type Unconfigured struct{}

// Authenticate は常に構成不備のエラーを返します。
func (Unconfigured) Authenticate(context.Context, session.Credentials) (*session.Result, error) {
	return nil, fmt.Errorf("%w: authenticator is not configured", session.ErrTransport)
}

func (s *Static) verifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)) == nil
}

func (s *Static) mintCredential() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    credentialIssuer,
		Subject:   s.cfg.Username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.TokenSecret)
}
