// Package audit はセッション遷移の監査証跡を非同期に記録します。
package audit

import "time"

// Kind は監査イベントの種別を表します。
type Kind string

const (
	KindLogin  Kind = "login"
	KindLogout Kind = "logout"
	// KindRestoreRejected は不変条件を満たさない永続化レコードが
	// 復元時に破棄されたことを表します。
	KindRestoreRejected Kind = "restore_rejected"
)

// Event は 1 件の監査イベントです。
type Event struct {
	EventID    string    `json:"eventId"`
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"userId,omitempty"`
	Username   string    `json:"username,omitempty"`
	SessionKey string    `json:"sessionKey,omitempty"`
	At         time.Time `json:"at"`
}
