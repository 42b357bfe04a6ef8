package gate

import (
	"context"
	"errors"
	"strings"

	"github.com/HarshHariyani/HiringBull/pkg/credential"
)

// AuthCheck は Authorization: Bearer ヘッダーのクレデンシャルを検証し、Identityを解決する。
type AuthCheck struct {
	verifier credential.Verifier
}

// NewAuthCheck はAuthCheckを生成する。
func NewAuthCheck(verifier credential.Verifier) *AuthCheck {
	return &AuthCheck{verifier: verifier}
}

func (c *AuthCheck) Name() CheckName { return CheckAuth }

func (c *AuthCheck) Run(ctx context.Context, st State) (State, *Denial) {
	token, ok := bearerToken(st.Header.Get("Authorization"))
	if !ok {
		return st, deny(KindUnauthenticated, CheckAuth, ReasonMissingCredential, nil)
	}

	claims, err := c.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, credential.ErrUnavailable) {
			return st, deny(KindUnavailable, CheckAuth, ReasonCredentialUnavailable, err)
		}
		return st, deny(KindUnauthenticated, CheckAuth, ReasonInvalidCredential, err)
	}
	if claims == nil || claims.Subject == "" {
		return st, deny(KindUnauthenticated, CheckAuth, ReasonInvalidCredential, nil)
	}

	return st.withIdentity(Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Status: StatusUnknown,
	}), nil
}

// bearerToken は "Bearer <token>" 形式からトークンを取り出す。スキーム名は大文字小文字を区別しない。
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
