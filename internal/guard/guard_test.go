package guard

import (
	"testing"

	"github.com/yourusername/oriem-gate/internal/routes"
	"github.com/yourusername/oriem-gate/internal/session"
)

func authenticated() session.Session {
	return session.Session{
		State:      session.StateAuthenticated,
		Identity:   &session.Identity{UserID: "user-1", Username: "a"},
		Credential: "token-abc",
	}
}

func TestDecide(t *testing.T) {
	g := New("/")
	login := routes.Route{Path: "/", View: routes.ViewLogin, Protected: false}
	dashboard := routes.Route{Path: "/dashboard", View: routes.ViewDashboard, Protected: true}

	cases := []struct {
		name string
		sess session.Session
		rt   routes.Route
		want Decision
	}{
		{"unprotected route always allowed", session.Session{State: session.StateAnonymous}, login, DecisionAllow},
		{"unprotected route allowed while unknown", session.Session{State: session.StateUnknown}, login, DecisionAllow},
		{"protected route allowed when authenticated", authenticated(), dashboard, DecisionAllow},
		{"protected route redirects when anonymous", session.Session{State: session.StateAnonymous}, dashboard, DecisionRedirect},
		{"protected route pending while unknown", session.Session{State: session.StateUnknown}, dashboard, DecisionPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := g.Decide(tc.sess, tc.rt)
			if verdict.Decision != tc.want {
				t.Fatalf("decision = %s, want %s", verdict.Decision, tc.want)
			}
			if tc.want == DecisionRedirect && verdict.Target != "/" {
				t.Fatalf("redirect target = %q, want %q", verdict.Target, "/")
			}
		})
	}
}

func TestDecideNeverAllowsPartialSessionOnProtectedRoute(t *testing.T) {
	g := New("/")
	dashboard := routes.Route{Path: "/dashboard", View: routes.ViewDashboard, Protected: true}

	// 不変条件が壊れたスナップショットでも保護ビューは描画されない
	partial := session.Session{
		State:    session.StateAuthenticated,
		Identity: &session.Identity{UserID: "user-1"},
		// Credential が欠けている
	}
	verdict := g.Decide(partial, dashboard)
	if verdict.Decision == DecisionAllow {
		t.Fatal("partial session must not render a protected view")
	}
}

func TestDecideRevokesAfterLogout(t *testing.T) {
	g := New("/")
	dashboard := routes.Route{Path: "/dashboard", View: routes.ViewDashboard, Protected: true}

	sess := authenticated()
	if verdict := g.Decide(sess, dashboard); verdict.Decision != DecisionAllow {
		t.Fatalf("authenticated session must render: %+v", verdict)
	}

	// ログアウト後の再判定は即座にリダイレクトになる
	sess = session.Session{State: session.StateAnonymous}
	if verdict := g.Decide(sess, dashboard); verdict.Decision != DecisionRedirect {
		t.Fatalf("logged-out session must redirect: %+v", verdict)
	}
}
