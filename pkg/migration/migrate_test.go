package migration

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus/hooks/test"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRun はマイグレーションの適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"m/000002_add_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"m/000001_add_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER); CREATE INDEX idx_a ON a (id);")},
		"m/000001_add_a.down.sql": {Data: []byte("DROP TABLE a;")},
		"m/README.md":             {Data: []byte("ignored")},
		"m/notanumber_x.up.sql":   {Data: []byte("invalid sql")},
	}

	t.Run("バージョン順に適用され再実行しても重複適用されないこと", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)
		logger, hook := test.NewNullLogger()

		if err := Run(ctx, db, fsys, "m", logger); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
		if err := Run(ctx, db, fsys, "m", logger); err != nil {
			t.Fatalf("2回目のRun()でエラーが発生: %v", err)
		}

		versions, err := Applied(ctx, db)
		if err != nil {
			t.Fatalf("Applied()でエラーが発生: %v", err)
		}
		if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
			t.Errorf("適用済みバージョン = %v, want [1 2]", versions)
		}
		if n := len(hook.AllEntries()); n != 2 {
			t.Errorf("ログ件数 = %d, want 2", n)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO a (id) VALUES (1)"); err != nil {
			t.Errorf("テーブルaが作成されていない: %v", err)
		}
	})

	t.Run("不正なSQLは適用されずエラーになること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db := openTestDB(t)
		bad := fstest.MapFS{
			"m/000001_ok.up.sql":  {Data: []byte("CREATE TABLE ok (id INTEGER);")},
			"m/000002_bad.up.sql": {Data: []byte("CREATE TABLE (")},
		}

		if err := Run(ctx, db, bad, "m", nil); err == nil {
			t.Fatal("エラーが返されなかった")
		}
		versions, err := Applied(ctx, db)
		if err != nil {
			t.Fatalf("Applied()でエラーが発生: %v", err)
		}
		if len(versions) != 1 || versions[0] != 1 {
			t.Errorf("適用済みバージョン = %v, want [1]", versions)
		}
	})
}

// TestCollect はファイル収集を検証する。
func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("バージョンが重複する場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"m/000001_a.up.sql": {Data: []byte("")},
			"m/1_b.up.sql":      {Data: []byte("")},
		}
		if _, err := Collect(fsys, "m"); err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})

	t.Run("存在しないディレクトリはエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := Collect(fstest.MapFS{}, "missing"); err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})
}
