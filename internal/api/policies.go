package api

import (
	"net/http"

	"github.com/HarshHariyani/HiringBull/pkg/gate"
	"github.com/HarshHariyani/HiringBull/pkg/policy"
)

var (
	public       = gate.Public
	serviceOnly  = gate.Require(gate.CheckAPIKey)
	signedIn     = gate.Require(gate.CheckAuth)
	subscription = gate.Require(gate.CheckAuth, gate.CheckPayment)
)

// DefaultPolicies はAPIサーバーの既定のルートポリシー表を返す。
// ROUTE_POLICY_FILE が指定された場合はその内容で上書きされる。
func DefaultPolicies() policy.Table {
	return policy.Table{
		policy.Key(http.MethodGet, "/health"):          public,
		policy.Key(http.MethodGet, "/api/v1/plans"):    public,
		policy.Key(http.MethodPost, "/auth/dev-token"): public,

		// 有料プラン会員向けの閲覧ルート
		policy.Key(http.MethodGet, "/api/v1/companies"): subscription,
		policy.Key(http.MethodGet, "/api/v1/jobs"):      subscription,
		policy.Key(http.MethodGet, "/api/v1/jobs/:id"):  subscription,

		// ログインユーザー向けのルート
		policy.Key(http.MethodGet, "/api/v1/social-posts"):     signedIn,
		policy.Key(http.MethodGet, "/api/v1/social-posts/:id"): signedIn,
		policy.Key(http.MethodGet, "/api/v1/me/subscription"):  signedIn,

		// スクレイパー・決済Webhookなどサーバー間連携のルート
		policy.Key(http.MethodPost, "/api/v1/companies"):               serviceOnly,
		policy.Key(http.MethodPost, "/api/v1/companies/bulk"):          serviceOnly,
		policy.Key(http.MethodPost, "/api/v1/jobs/bulk"):               serviceOnly,
		policy.Key(http.MethodPost, "/api/v1/social-posts/bulk"):       serviceOnly,
		policy.Key(http.MethodPut, "/api/v1/entitlements/:user_id"):    serviceOnly,
		policy.Key(http.MethodDelete, "/api/v1/entitlements/:user_id"): serviceOnly,
	}
}

// loadPolicies は既定の表にポリシーファイルの内容を重ねて検証する。
func loadPolicies(path string) (policy.Table, error) {
	table := DefaultPolicies()
	if path != "" {
		override, err := policy.Load(path)
		if err != nil {
			return nil, err
		}
		table = table.Merge(override)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
