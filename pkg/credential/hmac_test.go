package credential

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// TestHMACVerifierIssue はIssueメソッドを検証する。
func TestHMACVerifierIssue(t *testing.T) {
	t.Parallel()

	t.Run("正常にJWTトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		v := NewHMACVerifier(testSecret)
		tokenStr, err := v.Issue("user-123", "test@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if !token.Valid {
			t.Fatal("トークンが無効")
		}
		if claims.Subject != "user-123" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
		}
		if claims.Email != "test@example.com" {
			t.Errorf("Email = %q, want %q", claims.Email, "test@example.com")
		}
		if claims.Issuer != DefaultIssuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, DefaultIssuer)
		}
	})

	t.Run("トークンの有効期限がTTL後であること", func(t *testing.T) {
		t.Parallel()

		fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		v := NewHMACVerifier(testSecret, WithTTL(2*time.Hour), WithClock(func() time.Time { return fixed }))
		tokenStr, err := v.Issue("user-exp", "exp@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims, err := v.Verify(context.Background(), tokenStr)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if !claims.ExpiresAt.Equal(fixed.Add(2 * time.Hour)) {
			t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, fixed.Add(2*time.Hour))
		}
		if !claims.IssuedAt.Equal(fixed) {
			t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, fixed)
		}
	})

	t.Run("署名アルゴリズムがHS256であること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewHMACVerifier(testSecret).Issue("user-alg", "alg@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		token, _, err := new(jwt.Parser).ParseUnverified(tokenStr, &tokenClaims{})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if token.Method.Alg() != "HS256" {
			t.Errorf("署名アルゴリズム = %q, want %q", token.Method.Alg(), "HS256")
		}
	})
}

// TestHMACVerifierVerify はVerifyメソッドを検証する。
func TestHMACVerifierVerify(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンからクレームを取得できること", func(t *testing.T) {
		t.Parallel()

		v := NewHMACVerifier(testSecret)
		tokenStr, err := v.Issue("user-ok", "ok@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims, err := v.Verify(context.Background(), tokenStr)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if claims.Subject != "user-ok" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "user-ok")
		}
		if claims.Email != "ok@example.com" {
			t.Errorf("Email = %q, want %q", claims.Email, "ok@example.com")
		}
	})

	t.Run("異なるシークレットで署名されたトークンはErrInvalidになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewHMACVerifier("different-secret").Issue("user-diff", "diff@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		_, err = NewHMACVerifier(testSecret).Verify(context.Background(), tokenStr)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("形式が不正なトークンはErrInvalidになること", func(t *testing.T) {
		t.Parallel()

		_, err := NewHMACVerifier(testSecret).Verify(context.Background(), "invalid-token-string")
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("期限切れトークンはErrInvalidになること", func(t *testing.T) {
		t.Parallel()

		past := time.Now().Add(-25 * time.Hour)
		issuer := NewHMACVerifier(testSecret, WithClock(func() time.Time { return past }))
		tokenStr, err := issuer.Issue("user-expired", "expired@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		_, err = NewHMACVerifier(testSecret).Verify(context.Background(), tokenStr)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("発行者が異なるトークンはErrInvalidになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewHMACVerifier(testSecret, WithIssuer("someone-else")).Issue("user-iss", "iss@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		_, err = NewHMACVerifier(testSecret).Verify(context.Background(), tokenStr)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("expクレームが無いトークンはErrInvalidになること", func(t *testing.T) {
		t.Parallel()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-noexp",
				Issuer:  DefaultIssuer,
			},
		})
		tokenStr, err := token.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		_, err = NewHMACVerifier(testSecret).Verify(context.Background(), tokenStr)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("subクレームが無いトークンはErrInvalidになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewHMACVerifier(testSecret).Issue("", "nosub@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		_, err = NewHMACVerifier(testSecret).Verify(context.Background(), tokenStr)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("none署名のトークンはErrInvalidになること", func(t *testing.T) {
		t.Parallel()

		token := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-none",
				Issuer:    DefaultIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		tokenStr, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		_, err = NewHMACVerifier(testSecret).Verify(context.Background(), tokenStr)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Verify() error = %v, want ErrInvalid", err)
		}
	})
}
