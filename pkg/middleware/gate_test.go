package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/HarshHariyani/HiringBull/pkg/credential"
	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
	"github.com/HarshHariyani/HiringBull/pkg/gate"
)

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*entitlement.Entitlement, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type gateRouter struct {
	router  *gin.Engine
	hook    *test.Hook
	issuer  *credential.HMACVerifier
	reached *bool
	seen    **gate.Identity
}

func newGateRouter(t *testing.T, store entitlement.Store, policy gate.Policy) *gateRouter {
	t.Helper()

	issuer := credential.NewHMACVerifier(testSecret)
	g := gate.New(
		gate.NewAPIKeyCheck([]gate.APIKey{{Label: "scraper", Value: "svc-key"}}),
		gate.NewAuthCheck(issuer),
		gate.NewPaymentCheck(store),
	)
	logger, hook := test.NewNullLogger()

	reached := false
	var seen *gate.Identity
	router := gin.New()
	router.GET("/resource", Gate(g, policy, logger), func(c *gin.Context) {
		reached = true
		seen, _ = GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "api_key": GetAPIKeyLabel(c)})
	})
	return &gateRouter{router: router, hook: hook, issuer: issuer, reached: &reached, seen: &seen}
}

func (r *gateRouter) do(t *testing.T, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.router.ServeHTTP(w, req)
	return w
}

func (r *gateRouter) bearer(t *testing.T, userID string) http.Header {
	t.Helper()
	tok, err := r.issuer.Issue(userID, "")
	if err != nil {
		t.Fatalf("Issue()でエラーが発生: %v", err)
	}
	return http.Header{"Authorization": {"Bearer " + tok}}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v", err)
	}
	return body
}

func paidStore(t *testing.T, userID string) *entitlement.MemoryStore {
	t.Helper()
	store := entitlement.NewMemoryStore()
	if err := store.Put(context.Background(), entitlement.Entitlement{
		UserID:    userID,
		PlanID:    "starter",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}); err != nil {
		t.Fatalf("Put()でエラーが発生: %v", err)
	}
	return store
}

// TestGate はGateミドルウェアを検証する。
func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("APIキーのみのポリシーで正しいキーなら許可されること", func(t *testing.T) {
		t.Parallel()
		r := newGateRouter(t, entitlement.NewMemoryStore(), gate.Require(gate.CheckAPIKey))

		w := r.do(t, http.Header{"X-Api-Key": {"svc-key"}})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := decodeError(t, w)
		if body["api_key"] != "scraper" {
			t.Errorf("api_key = %q, want %q", body["api_key"], "scraper")
		}
		if body["user_id"] != "" {
			t.Errorf("user_id = %q, want empty", body["user_id"])
		}
	})

	t.Run("APIキーが無い場合は401でハンドラーが呼ばれないこと", func(t *testing.T) {
		t.Parallel()
		r := newGateRouter(t, entitlement.NewMemoryStore(), gate.Require(gate.CheckAPIKey))

		w := r.do(t, http.Header{})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if *r.reached {
			t.Error("ハンドラーが呼ばれるべきではない")
		}
		body := decodeError(t, w)
		if body["error"] != "Unauthenticated: missing API key" {
			t.Errorf("error = %q", body["error"])
		}
		if body["code"] != "unauthenticated" {
			t.Errorf("code = %q", body["code"])
		}
		if e := r.hook.LastEntry(); e == nil || e.Level != logrus.InfoLevel {
			t.Errorf("拒否ログ = %+v, want Infoレベル", e)
		}
	})

	t.Run("プラン未購入のユーザーは403になること", func(t *testing.T) {
		t.Parallel()
		r := newGateRouter(t, entitlement.NewMemoryStore(), gate.Require(gate.CheckAuth, gate.CheckPayment))

		w := r.do(t, r.bearer(t, "free-user"))
		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
		if got := decodeError(t, w)["error"]; got != "Forbidden: subscription required" {
			t.Errorf("error = %q", got)
		}
		if *r.reached {
			t.Error("ハンドラーが呼ばれるべきではない")
		}
	})

	t.Run("有効なプランのユーザーは許可されIdentityが渡されること", func(t *testing.T) {
		t.Parallel()
		r := newGateRouter(t, paidStore(t, "paid-user"), gate.Require(gate.CheckAuth, gate.CheckPayment))

		w := r.do(t, r.bearer(t, "paid-user"))
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := decodeError(t, w)["user_id"]; got != "paid-user" {
			t.Errorf("user_id = %q, want %q", got, "paid-user")
		}
		id := *r.seen
		if id == nil || id.Status != gate.StatusActive || id.Entitlement == nil {
			t.Errorf("Identity = %+v", id)
		}
	})

	t.Run("不正なトークンは401になること", func(t *testing.T) {
		t.Parallel()
		r := newGateRouter(t, paidStore(t, "paid-user"), gate.Require(gate.CheckAuth, gate.CheckPayment))

		w := r.do(t, http.Header{"Authorization": {"Bearer invalid"}})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if got := decodeError(t, w)["error"]; got != "Unauthenticated: invalid or expired credential" {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("ストア障害は503になりErrorログが出力されること", func(t *testing.T) {
		t.Parallel()
		r := newGateRouter(t, brokenStore{}, gate.Require(gate.CheckAuth, gate.CheckPayment))

		w := r.do(t, r.bearer(t, "paid-user"))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		body := decodeError(t, w)
		if body["error"] != "Unavailable: entitlement check failed" {
			t.Errorf("error = %q", body["error"])
		}
		e := r.hook.LastEntry()
		if e == nil {
			t.Fatal("ログが出力されていない")
		}
		if e.Level != logrus.ErrorLevel {
			t.Errorf("Level = %v, want %v", e.Level, logrus.ErrorLevel)
		}
		if e.Data["user_id"] != "paid-user" {
			t.Errorf("user_id = %v", e.Data["user_id"])
		}
		if _, ok := e.Data[logrus.ErrorKey]; !ok {
			t.Error("原因エラーがログに含まれていない")
		}
	})

	t.Run("公開ポリシーはヘッダー無しで許可されること", func(t *testing.T) {
		t.Parallel()
		r := newGateRouter(t, brokenStore{}, gate.Public)

		w := r.do(t, http.Header{})
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if _, ok := GetIdentity(&gin.Context{}); ok {
			t.Error("空のコンテキストでIdentityが取得できた")
		}
	})
}

// TestAbortWithDenial は拒否応答の形式を検証する。
func TestAbortWithDenial(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		AbortWithDenial(c, &gate.Denial{Kind: gate.KindUnavailable, Reason: gate.ReasonEntitlementUnavailable})
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v", err)
	}
	if body["error"] != "Unavailable: entitlement check failed" || body["code"] != "unavailable" {
		t.Errorf("body = %v", body)
	}
}
