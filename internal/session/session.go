// Package session はログインセッションの状態管理機能を提供します。
// UIフレームワークや HTTP 層に依存しない純粋な状態コンテナとして実装し、
// 変更は Login / Logout、参照は Current / Subscribe のみに限定します。
package session

import "time"

// State はセッションの判定状態を表します。
type State string

const (
	// StateUnknown は永続化ストアからの復元が完了していない状態です。
	// 未認証と同一視してはいけません（リダイレクトのちらつき防止）。
	StateUnknown State = "unknown"
	// StateAuthenticated は認証済みの状態です。
	StateAuthenticated State = "authenticated"
	// StateAnonymous は未認証が確定した状態です。
	StateAnonymous State = "anonymous"
)

// Identity は認証済みユーザーの識別情報です。
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Session は現在の認証状態のスナップショットです。
// Identity と Credential は必ず同時に設定・同時に破棄されます。
type Session struct {
	State      State     `json:"state"`
	Identity   *Identity `json:"identity,omitempty"`
	Credential string    `json:"-"`
	IssuedAt   time.Time `json:"issuedAt"`
}

// IsAuthenticated は Identity と Credential が両方存在する場合のみ true を返します。
// 認証済みフラグは保持せず、常にここで導出します。
func (s Session) IsAuthenticated() bool {
	return s.Identity != nil && s.Credential != ""
}

// Credentials はログイン要求に使う資格情報です。
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Result は Authenticator が返す認証結果です。
type Result struct {
	Identity   Identity
	Credential string
}
