// Package guard はセッション状態からルートの描画可否を判定します。
// 判定はレンダリング層から独立した純粋関数で、HTTP への変換は
// 呼び出し側（internal/auth のミドルウェア）が行います。
package guard

import (
	"github.com/yourusername/oriem-gate/internal/routes"
	"github.com/yourusername/oriem-gate/internal/session"
)

// Decision は判定結果の種別です。
type Decision string

const (
	// DecisionAllow はビューをそのまま描画してよいことを表します。
	DecisionAllow Decision = "allow"
	// DecisionRedirect はログインパスへ誘導することを表します。
	// 拒否はエラーではなく制御フローのリダイレクトです。
	DecisionRedirect Decision = "redirect"
	// DecisionPending はセッションが未確定であることを表します。
	// 保護されたビューも描画せず、リダイレクトもしません。
	DecisionPending Decision = "pending"
)

// Verdict は判定結果です。Target は DecisionRedirect のときのみ有効です。
type Verdict struct {
	Decision Decision
	Target   string
}

// Guard はルート判定器です。
type Guard struct {
	LoginPath string
}

// New は Guard を作成します。
func New(loginPath string) Guard {
	return Guard{LoginPath: loginPath}
}

// Decide はセッションとルートから描画可否を判定します。
// 未保護のルートは常に許可します。保護されたルートは認証済みの
// 場合のみ許可し、StateUnknown は未認証と同一視せず保留にします。
func (g Guard) Decide(sess session.Session, rt routes.Route) Verdict {
	if !rt.Protected {
		return Verdict{Decision: DecisionAllow}
	}
	if sess.State == session.StateUnknown {
		return Verdict{Decision: DecisionPending}
	}
	if sess.IsAuthenticated() {
		return Verdict{Decision: DecisionAllow}
	}
	return Verdict{Decision: DecisionRedirect, Target: g.LoginPath}
}
