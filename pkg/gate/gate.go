package gate

import (
	"context"
	"fmt"
	"net/http"
	"slices"
)

// Policy はルートに適用するチェックの順序付きリスト。
// 空のPolicyは公開ルートを表す。
type Policy struct {
	Checks []CheckName `yaml:"checks" json:"checks"`
}

// Public はチェックを持たない公開ルートのPolicy。
var Public = Policy{}

// Require は指定した順序でチェックを要求するPolicyを返す。
func Require(checks ...CheckName) Policy {
	return Policy{Checks: checks}
}

// Validate はPolicyの構成を検証する。
// 未知のチェック名、重複、認証チェックより前（または無し）の支払いチェックを拒否する。
func (p Policy) Validate() error {
	seen := make(map[CheckName]bool, len(p.Checks))
	for _, name := range p.Checks {
		if !slices.Contains(KnownChecks(), name) {
			return fmt.Errorf("未知のチェック %q", name)
		}
		if seen[name] {
			return fmt.Errorf("チェック %q が重複しています", name)
		}
		if name == CheckPayment && !seen[CheckAuth] {
			return fmt.Errorf("チェック %q の前に %q が必要です", CheckPayment, CheckAuth)
		}
		seen[name] = true
	}
	return nil
}

// Decision はゲートの評価結果。Allowed か Denial のどちらか一方だけが有効。
type Decision struct {
	// Allowed はすべてのチェックを通過したことを表す。
	Allowed bool
	// State は評価終了時点のState。
	State State
	// Denial は拒否時の理由。
	Denial *Denial
}

// Gate は登録済みのチェックをPolicyに従って順に実行するディスパッチャ。
type Gate struct {
	checks map[CheckName]Check
}

// New はGateを生成する。nilのチェックは登録しない。
func New(checks ...Check) *Gate {
	g := &Gate{checks: make(map[CheckName]Check, len(checks))}
	for _, c := range checks {
		if c == nil {
			continue
		}
		g.checks[c.Name()] = c
	}
	return g
}

// Has は指定のチェックが登録されているかを返す。
func (g *Gate) Has(name CheckName) bool {
	_, ok := g.checks[name]
	return ok
}

// Evaluate はPolicyのチェックを宣言順に実行する。
// 最初に失敗したチェックで打ち切り、以降のチェックは実行しない。
func (g *Gate) Evaluate(ctx context.Context, p Policy, header http.Header) Decision {
	st := State{Header: header}
	for _, name := range p.Checks {
		c, ok := g.checks[name]
		if !ok {
			return Decision{State: st, Denial: deny(KindInternal, name, ReasonUnknownCheck, nil)}
		}

		next, d := c.Run(ctx, st)
		if d != nil {
			return Decision{State: next, Denial: d}
		}
		next.Passed = append(slices.Clip(st.Passed), name)
		st = next
	}
	return Decision{Allowed: true, State: st}
}
