// Package authapi は資格情報を検証する認証コラボレーターを提供します。
// Client は外部の ORiem Capital バックエンドを呼び出し、Static は
// 環境変数で構成した単一オペレーターをローカルに検証します。
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/oriem-gate/internal/session"
)

const loginEndpoint = "/api/v1/auth/login"

// Client は認証 API を呼び出すネットワークコラボレーターです。
// トランスポート失敗・ステータス失敗のいずれもログイン失敗として
// 型付きエラーに写像し、クラッシュにはしません。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient は Client を作成します。timeout が 0 の場合は 10 秒を使います。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

// Authenticate は資格情報を認証 API に送信し、結果をセッション要素に変換します。
func (c *Client) Authenticate(ctx context.Context, creds session.Credentials) (*session.Result, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode credentials: %v", session.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", session.ErrRejectedCredentials, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: unexpected status %d", session.ErrTransport, resp.StatusCode)
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrMalformedResponse, err)
	}
	if payload.AccessToken == "" || payload.User.ID == "" {
		return nil, fmt.Errorf("%w: access token or user missing", session.ErrMalformedResponse)
	}

	return &session.Result{
		Identity: session.Identity{
			UserID:   payload.User.ID,
			Username: payload.User.Username,
			Email:    payload.User.Email,
			Role:     payload.User.Role,
		},
		Credential: payload.AccessToken,
	}, nil
}
