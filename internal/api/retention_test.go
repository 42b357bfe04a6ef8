package api

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
)

// TestRetentionJob は失効済みエンタイトルメントの定期削除を検証する。
func TestRetentionJob(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("保持期間を過ぎたレコードだけが削除されること", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore()
		for id, exp := range map[string]time.Time{
			"old":     now.AddDate(0, 0, -100),
			"recent":  now.AddDate(0, 0, -10),
			"current": now.AddDate(0, 1, 0),
		} {
			if err := store.Put(ctx, entitlement.Entitlement{UserID: id, PlanID: "starter", ExpiresAt: exp}); err != nil {
				t.Fatalf("Put()でエラーが発生: %v", err)
			}
		}

		logger, hook := test.NewNullLogger()
		job := &retentionJob{
			store:     store,
			retention: 90 * 24 * time.Hour,
			timeout:   time.Second,
			now:       func() time.Time { return now },
			logger:    logger,
		}
		n, err := job.sweep(ctx)
		if err != nil {
			t.Fatalf("sweep()でエラーが発生: %v", err)
		}
		if n != 1 {
			t.Errorf("削除件数 = %d, want 1", n)
		}
		if _, err := store.Get(ctx, "old"); err != entitlement.ErrNotFound {
			t.Errorf("old が削除されていない: %v", err)
		}
		if _, err := store.Get(ctx, "recent"); err != nil {
			t.Errorf("recent が削除された: %v", err)
		}
		if e := hook.LastEntry(); e == nil || e.Data["deleted"] != int64(1) {
			t.Errorf("ログ = %+v", e)
		}
	})

	t.Run("不正なスケジュールはエラーになること", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t)
		if err := ts.startRetention("every tuesday", time.Hour); err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})

	t.Run("正しいスケジュールで開始し停止できること", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t)
		if err := ts.startRetention("@daily", time.Hour); err != nil {
			t.Fatalf("startRetention()でエラーが発生: %v", err)
		}
		if len(ts.cron.Entries()) != 1 {
			t.Errorf("登録ジョブ数 = %d, want 1", len(ts.cron.Entries()))
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := ts.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown()でエラーが発生: %v", err)
		}
	})
}
