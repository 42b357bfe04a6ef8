package gate

import (
	"net/http"

	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
)

// EntitlementStatus はIdentityの利用権の確認状態。
type EntitlementStatus string

const (
	// StatusUnknown は支払いチェックがまだ実行されていないことを表す。
	StatusUnknown EntitlementStatus = "unknown"
	// StatusActive は有効なエンタイトルメントが確認されたことを表す。
	StatusActive EntitlementStatus = "active"
	// StatusInactive はエンタイトルメントが無い、または失効していることを表す。
	StatusInactive EntitlementStatus = "inactive"
)

// Identity は認証チェックで解決されたリクエストの主体。
// リクエストごとに導出され、リクエストをまたいでキャッシュしない。
type Identity struct {
	// UserID はユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email,omitempty"`
	// Status は利用権の確認状態。
	Status EntitlementStatus `json:"entitlement_status"`
	// Entitlement は支払いチェックで確認された有効なエンタイトルメント。
	Entitlement *entitlement.Entitlement `json:"entitlement,omitempty"`
}

// State はチェックの入力であり、チェックを通過するたびに更新される。
// チェックは受け取ったStateを変更せず、新しい値を返す。
type State struct {
	// Header はリクエストヘッダー。
	Header http.Header
	// ServiceAuthenticated はAPIキーチェックを通過したことを表す。
	ServiceAuthenticated bool
	// APIKeyLabel は一致したAPIキーのラベル。
	APIKeyLabel string
	// Identity は認証チェックで解決された主体。未解決の場合はnil。
	Identity *Identity
	// Passed は通過したチェック名を実行順に保持する。
	Passed []CheckName
}

// withIdentity はIdentityを差し替えたStateを返す。
func (s State) withIdentity(id Identity) State {
	s.Identity = &id
	return s
}
