package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// JWKSConfig は外部IdPのトークンを検証するための設定。
type JWKSConfig struct {
	// URL はJWKSドキュメントのURL。
	URL string
	// Issuer は期待するissクレーム。空の場合は検証しない。
	Issuer string
	// Audience は期待するaudクレーム。空の場合は検証しない。
	Audience string
	// RefreshInterval は鍵セットの最小再取得間隔。
	RefreshInterval time.Duration
	// Skew は時刻検証で許容するずれ。
	Skew time.Duration
}

// JWKSVerifier はリモートJWKSの公開鍵で署名されたトークンを検証する。
// 鍵セットはjwk.Cacheでバックグラウンド更新される。
type JWKSVerifier struct {
	cfg   JWKSConfig
	cache *jwk.Cache
	set   jwk.Set
}

// NewJWKSVerifier はJWKSVerifierを生成する。
// ctxがキャンセルされるとバックグラウンドの鍵更新も停止する。
func NewJWKSVerifier(ctx context.Context, cfg JWKSConfig) (*JWKSVerifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("JWKS URLが指定されていません")
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 15 * time.Minute
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(cfg.URL, jwk.WithMinRefreshInterval(cfg.RefreshInterval)); err != nil {
		return nil, fmt.Errorf("JWKSの登録に失敗: %w", err)
	}

	return &JWKSVerifier{
		cfg:   cfg,
		cache: cache,
		set:   jwk.NewCachedSet(cache, cfg.URL),
	}, nil
}

// Verify はトークンの署名・有効期限・発行者・対象者を検証する。
// 鍵セットを取得できない場合は ErrUnavailable を返し、トークン不正とは区別する。
func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if _, err := v.cache.Get(ctx, v.cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(v.set),
		jwt.WithValidate(true),
		jwt.WithContext(ctx),
		jwt.WithAcceptableSkew(v.cfg.Skew),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.ParseString(raw, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if token.Subject() == "" {
		return nil, fmt.Errorf("%w: subクレームがありません", ErrInvalid)
	}
	// jwxは exp が無いトークンも受け入れるため明示的に拒否する
	if token.Expiration().IsZero() {
		return nil, fmt.Errorf("%w: expクレームがありません", ErrInvalid)
	}

	claims := &Claims{
		Subject:   token.Subject(),
		IssuedAt:  token.IssuedAt(),
		ExpiresAt: token.Expiration(),
	}
	if rawEmail, ok := token.Get("email"); ok {
		if email, ok := rawEmail.(string); ok {
			claims.Email = email
		}
	}
	return claims, nil
}
