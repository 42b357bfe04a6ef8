package gate

import "context"

// CheckName はチェックの識別名。ルートポリシーで使用する。
type CheckName string

const (
	CheckAPIKey  CheckName = "api_key"
	CheckAuth    CheckName = "auth"
	CheckPayment CheckName = "payment"
)

// KnownChecks は定義済みのチェック名を返す。
func KnownChecks() []CheckName {
	return []CheckName{CheckAPIKey, CheckAuth, CheckPayment}
}

// Check はゲートを構成する1つのチェック。
type Check interface {
	// Name はチェック名を返す。
	Name() CheckName
	// Run はStateを検査し、通過なら更新後のStateとnilを、失敗ならDenialを返す。
	Run(ctx context.Context, st State) (State, *Denial)
}
