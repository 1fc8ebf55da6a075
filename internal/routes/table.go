// Package routes はパスとビューの静的な対応表を提供します。
// 保護の有無はルートごとに構成時に宣言し、パターンによる動的な
// 保護ルールは持ちません。
package routes

// View はレンダリング対象のビュー識別子です。
type View string

const (
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
	ViewAdmin     View = "admin"
	ViewNotFound  View = "not_found"
)

// Route はナビゲーション可能な 1 つのパスを表します。
type Route struct {
	Path      string
	View      View
	Protected bool
}

// Table はパスからルートを解決する静的テーブルです。
type Table struct {
	routes    []Route
	index     map[string]Route
	loginPath string
}

// NewTable はルート一覧からテーブルを構築します。
// loginPath は保護されたビューへの未認証アクセスのリダイレクト先です。
func NewTable(loginPath string, routes []Route) *Table {
	index := make(map[string]Route, len(routes))
	for _, rt := range routes {
		index[rt.Path] = rt
	}
	return &Table{
		routes:    routes,
		index:     index,
		loginPath: loginPath,
	}
}

// DefaultTable はアプリケーションの固定ルートを返します。
func DefaultTable() *Table {
	return NewTable("/", []Route{
		{Path: "/", View: ViewLogin, Protected: false},
		{Path: "/dashboard", View: ViewDashboard, Protected: true},
		{Path: "/admin", View: ViewAdmin, Protected: true},
	})
}

// Resolve はパスに対応するルートを返します。
// 未登録のパスは ok=false を返し、呼び出し側は 404 ビューを描画します
// （リダイレクトはしません）。
func (t *Table) Resolve(path string) (Route, bool) {
	rt, ok := t.index[path]
	return rt, ok
}

// Routes は登録順のルート一覧を返します。
func (t *Table) Routes() []Route {
	routes := make([]Route, len(t.routes))
	copy(routes, t.routes)
	return routes
}

// LoginPath はログインビューのパスを返します。
func (t *Table) LoginPath() string {
	return t.loginPath
}
