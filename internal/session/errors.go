package session

import "errors"

var (
	// ErrTransport は認証コラボレーターへのリクエストが完了しなかったことを表します。
	ErrTransport = errors.New("auth transport failure")
	// ErrRejectedCredentials は資格情報が拒否されたことを表します。
	ErrRejectedCredentials = errors.New("credentials rejected")
	// ErrMalformedResponse は認証応答をセッションに解釈できなかったことを表します。
	ErrMalformedResponse = errors.New("malformed auth response")
	// ErrLoginInProgress は別のログインが進行中であることを表します。
	// 進行中のログインは後続の呼び出しに置き換えられません。
	ErrLoginInProgress = errors.New("login already in progress")
)
