package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer はHMACVerifierが発行・検証するトークンのissクレーム。
const DefaultIssuer = "hiringbull-api"

// DefaultTTL は発行するトークンの有効期間。
const DefaultTTL = 24 * time.Hour

// tokenClaims はHS256トークンのペイロード。
type tokenClaims struct {
	jwt.RegisteredClaims
	// Email はユーザーのメールアドレス。
	Email string `json:"email,omitempty"`
}

// HMACVerifier は共有シークレットで署名されたHS256トークンを発行・検証する。
type HMACVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// HMACOption はHMACVerifierの設定を変更する。
type HMACOption func(*HMACVerifier)

// WithIssuer は発行・検証に使うissクレームを指定する。
func WithIssuer(issuer string) HMACOption {
	return func(v *HMACVerifier) { v.issuer = issuer }
}

// WithTTL は発行するトークンの有効期間を指定する。
func WithTTL(ttl time.Duration) HMACOption {
	return func(v *HMACVerifier) { v.ttl = ttl }
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) HMACOption {
	return func(v *HMACVerifier) { v.now = now }
}

// NewHMACVerifier は新しいHMACVerifierを生成する。
func NewHMACVerifier(secret string, opts ...HMACOption) *HMACVerifier {
	v := &HMACVerifier{
		secret: []byte(secret),
		issuer: DefaultIssuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Issue はユーザー情報から署名済みトークンを生成する。
// 開発用トークン発行エンドポイントから呼び出される。
func (v *HMACVerifier) Issue(userID, email string) (string, error) {
	now := v.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はHS256トークンの署名・有効期限・発行者を検証する。
func (v *HMACVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subクレームがありません", ErrInvalid)
	}

	out := &Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
