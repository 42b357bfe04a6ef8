package gate

import (
	"fmt"
	"net/http"
)

// Kind は拒否理由の分類。
type Kind string

const (
	// KindUnauthenticated はクレデンシャルやAPIキーの問題。再ログインで回復しうる。
	KindUnauthenticated Kind = "unauthenticated"
	// KindForbidden は本人確認済みだが利用権が無いことを表す。購入しない限り回復しない。
	KindForbidden Kind = "forbidden"
	// KindUnavailable は依存先の障害。時間をおいた再試行で回復しうる。
	KindUnavailable Kind = "unavailable"
	// KindInternal はチェック順序の誤りなどサーバー側の構成不備。
	KindInternal Kind = "internal"
)

// HTTPStatus は分類に対応するHTTPステータスコードを返す。
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// label はメッセージ先頭に付ける分類名。
func (k Kind) label() string {
	switch k {
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindForbidden:
		return "Forbidden"
	case KindUnavailable:
		return "Unavailable"
	default:
		return "Internal"
	}
}

// 拒否理由。
const (
	ReasonMissingAPIKey          = "missing API key"
	ReasonInvalidAPIKey          = "invalid API key"
	ReasonMissingCredential      = "missing credential"
	ReasonInvalidCredential      = "invalid or expired credential"
	ReasonCredentialUnavailable  = "credential verification failed"
	ReasonSubscriptionRequired   = "subscription required"
	ReasonSubscriptionExpired    = "subscription expired"
	ReasonEntitlementUnavailable = "entitlement check failed"
	ReasonIdentityRequired       = "payment check requires a resolved identity"
	ReasonUnknownCheck           = "unknown check"
)

// Denial はチェックがリクエストを拒否した結果。
type Denial struct {
	// Kind は拒否理由の分類。
	Kind Kind
	// Check は拒否したチェック名。
	Check CheckName
	// Reason はクライアントに返す理由。
	Reason string
	// Err は原因となったエラー。クライアントには返さない。
	Err error
}

func deny(kind Kind, check CheckName, reason string, err error) *Denial {
	return &Denial{Kind: kind, Check: check, Reason: reason, Err: err}
}

// Message は "Forbidden: subscription required" 形式のメッセージを返す。
func (d *Denial) Message() string {
	return d.Kind.label() + ": " + d.Reason
}

func (d *Denial) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("%s (%s): %v", d.Message(), d.Check, d.Err)
	}
	return fmt.Sprintf("%s (%s)", d.Message(), d.Check)
}

func (d *Denial) Unwrap() error { return d.Err }
