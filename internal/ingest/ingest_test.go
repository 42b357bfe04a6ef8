package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/HarshHariyani/HiringBull/pkg/httpclient"
)

// fakeBulkAPI は一括登録APIを模したテスト用サーバー。
type fakeBulkAPI struct {
	mu      sync.Mutex
	paths   []string
	batches []int
}

func (f *fakeBulkAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthenticated: invalid API key","code":"unauthenticated"}`))
			return
		}
		var body struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("リクエストボディのパースに失敗: %v", err)
		}

		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.batches = append(f.batches, len(body.Items))
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"inserted":%d,"skipped":0}`, len(body.Items))
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"companies", "jobs", "social-posts"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q)でエラーが発生: %v", s, err)
		}
	}
	if _, err := ParseKind("users"); err == nil {
		t.Error("未知の種別でエラーが返されなかった")
	}
}

// TestUploader はファイルの分割送信を検証する。
func TestUploader(t *testing.T) {
	t.Parallel()

	t.Run("件数が上限を超える場合は分割して送信されること", func(t *testing.T) {
		t.Parallel()

		api := &fakeBulkAPI{}
		srv := httptest.NewServer(api.handler(t))
		defer srv.Close()

		items := make([]string, batchSize+1)
		for i := range items {
			items[i] = fmt.Sprintf(`{"company":"Acme","title":"Engineer %d"}`, i)
		}
		path := filepath.Join(t.TempDir(), "jobs.json")
		if err := os.WriteFile(path, []byte("["+strings.Join(items, ",")+"]"), 0o600); err != nil {
			t.Fatalf("ファイル作成に失敗: %v", err)
		}

		logger, hook := test.NewNullLogger()
		u := NewUploader(httpclient.New(srv.URL, httpclient.WithAPIKey("k")), logger)
		res, err := u.UploadFile(context.Background(), KindJobs, path)
		if err != nil {
			t.Fatalf("UploadFile()でエラーが発生: %v", err)
		}
		if res.Inserted != int64(batchSize+1) {
			t.Errorf("Inserted = %d, want %d", res.Inserted, batchSize+1)
		}
		if len(api.batches) != 2 || api.batches[0] != batchSize || api.batches[1] != 1 {
			t.Errorf("batches = %v", api.batches)
		}
		if api.paths[0] != "/api/v1/jobs/bulk" {
			t.Errorf("path = %q", api.paths[0])
		}
		if len(hook.AllEntries()) != 2 {
			t.Errorf("ログ件数 = %d, want 2", len(hook.AllEntries()))
		}
	})

	t.Run("APIキーが拒否された場合はステータスエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		api := &fakeBulkAPI{}
		srv := httptest.NewServer(api.handler(t))
		defer srv.Close()

		logger, _ := test.NewNullLogger()
		u := NewUploader(httpclient.New(srv.URL, httpclient.WithAPIKey("wrong")), logger)
		_, err := u.Upload(context.Background(), KindCompanies, []json.RawMessage{json.RawMessage(`{"name":"Acme"}`)})
		if !httpclient.IsStatus(err, http.StatusUnauthorized) {
			t.Fatalf("エラー = %v, want 401", err)
		}
	})

	t.Run("JSON配列でないファイルはエラーになること", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte(`{"items":[]}`), 0o600); err != nil {
			t.Fatalf("ファイル作成に失敗: %v", err)
		}
		logger, _ := test.NewNullLogger()
		u := NewUploader(httpclient.New("http://127.0.0.1:0"), logger)
		if _, err := u.UploadFile(context.Background(), KindJobs, path); err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})
}
