package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// TestRequestLogger はRequestLoggerミドルウェアを検証する。
func TestRequestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		level  logrus.Level
	}{
		{name: "2xx", status: http.StatusOK, level: logrus.InfoLevel},
		{name: "4xx", status: http.StatusNotFound, level: logrus.WarnLevel},
		{name: "5xx", status: http.StatusBadGateway, level: logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name+"のレスポンスが対応するレベルで出力されること", func(t *testing.T) {
			t.Parallel()

			logger, hook := test.NewNullLogger()
			router := gin.New()
			router.Use(RequestID(), RequestLogger(logger))
			router.GET("/x", func(c *gin.Context) {
				c.Set(ctxKeyUserID, "u-1")
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			e := hook.LastEntry()
			if e == nil {
				t.Fatal("ログが出力されていない")
			}
			if e.Level != tt.level {
				t.Errorf("Level = %v, want %v", e.Level, tt.level)
			}
			if e.Data["status"] != tt.status {
				t.Errorf("status = %v, want %d", e.Data["status"], tt.status)
			}
			if e.Data["user_id"] != "u-1" {
				t.Errorf("user_id = %v, want u-1", e.Data["user_id"])
			}
			if e.Data["request_id"] != w.Header().Get(HeaderRequestID) {
				t.Errorf("request_id = %v, header = %q", e.Data["request_id"], w.Header().Get(HeaderRequestID))
			}
		})
	}
}

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("クライアントのリクエストIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(HeaderRequestID, "req-abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Body.String() != "req-abc" {
			t.Errorf("request_id = %q, want %q", w.Body.String(), "req-abc")
		}
	})

	t.Run("リクエストIDが無い場合は生成されること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		got := w.Header().Get(HeaderRequestID)
		if len(got) != 36 {
			t.Errorf("生成されたリクエストID = %q, UUID形式であること", got)
		}
		if w.Body.String() != got {
			t.Errorf("コンテキストの値 = %q, ヘッダー = %q", w.Body.String(), got)
		}
	})
}
