// Package credential はクライアントが提示するBearerクレデンシャル（JWT）の検証を提供する。
//
// 開発・自前発行向けのHS256検証（HMACVerifier）と、Firebase Auth等の
// 外部IdPが発行したトークンをJWKSで検証するJWKSVerifierを含む。
// どちらもステートレスであり、サーバー側にクレデンシャルを保存しない。
package credential

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalid は署名不正・形式不正・期限切れ等でクレデンシャルを受け入れられないことを表す。
	ErrInvalid = errors.New("credential: 無効または期限切れのクレデンシャル")
	// ErrUnavailable は検証鍵の取得に失敗し、検証そのものが実行できないことを表す。
	ErrUnavailable = errors.New("credential: 検証鍵を取得できません")
)

// Claims は検証済みクレデンシャルから取り出したクレーム。
type Claims struct {
	// Subject はユーザーの一意識別子（subクレーム）。
	Subject string
	// Email はユーザーのメールアドレス。存在しない場合は空文字列。
	Email string
	// IssuedAt は発行日時。
	IssuedAt time.Time
	// ExpiresAt は有効期限。
	ExpiresAt time.Time
}

// Verifier は生のトークン文字列を検証してクレームを返す。
// 検証失敗時は ErrInvalid または ErrUnavailable をラップしたエラーを返す。
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}
