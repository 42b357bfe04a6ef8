// Package entitlement はユーザーの有料プラン利用権（エンタイトルメント）と、
// その保存先となるストア実装を提供する。
//
// 認可ゲートの支払いチェックは Store の読み取りだけを行う。
// 付与・取り消し・期限切れレコードの削除は Repository を通じて
// コントローラと定期ジョブが行う。
package entitlement

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound は指定ユーザーのエンタイトルメントが存在しないことを表す。
var ErrNotFound = errors.New("エンタイトルメントが見つかりません")

// Entitlement はユーザーに付与された有料プランの利用権を表す。
type Entitlement struct {
	// UserID は付与先ユーザーのID。
	UserID string `json:"user_id"`
	// PlanID はプランID（starter / popular / best_value）。
	PlanID string `json:"plan_id"`
	// ExpiresAt は有効期限。
	ExpiresAt time.Time `json:"expires_at"`
	// RevokedAt は取り消し日時。取り消されていない場合はnil。
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	// Source は付与元（決済プロバイダ名など）。
	Source string `json:"source,omitempty"`
	// CreatedAt は付与日時。
	CreatedAt time.Time `json:"created_at"`
}

// ActiveAt は時刻tにおいてエンタイトルメントが有効かどうかを返す。
// 取り消し済み、または期限切れの場合はfalse。
func (e *Entitlement) ActiveAt(t time.Time) bool {
	if e == nil {
		return false
	}
	if e.RevokedAt != nil && !t.Before(*e.RevokedAt) {
		return false
	}
	return t.Before(e.ExpiresAt)
}

// Store はエンタイトルメントの読み取り専用インターフェース。
type Store interface {
	// Get はユーザーの現在のエンタイトルメントを返す。
	// 存在しない場合は ErrNotFound を返す。
	Get(ctx context.Context, userID string) (*Entitlement, error)
}

// Repository はエンタイトルメントの読み書きを行うインターフェース。
type Repository interface {
	Store
	// Put はユーザーのエンタイトルメントを作成または置き換える。
	Put(ctx context.Context, e Entitlement) error
	// Revoke はユーザーのエンタイトルメントを時刻atで取り消す。
	// 存在しない場合は ErrNotFound を返す。
	Revoke(ctx context.Context, userID string, at time.Time) error
	// PruneExpired は before より前に失効または取り消されたレコードを削除し、削除件数を返す。
	PruneExpired(ctx context.Context, before time.Time) (int64, error)
}
