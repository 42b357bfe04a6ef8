package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqliteSchema はエンタイトルメントテーブルの定義。
// 時刻は範囲比較を行うためUNIXミリ秒で保持する。
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entitlements (
    -- 付与先ユーザーのID
    user_id TEXT PRIMARY KEY,
    -- プランID
    plan_id TEXT NOT NULL,
    -- 有効期限（UNIXミリ秒）
    expires_at INTEGER NOT NULL,
    -- 取り消し日時（UNIXミリ秒）。未取り消しはNULL
    revoked_at INTEGER,
    -- 付与元
    source TEXT NOT NULL DEFAULT '',
    -- 付与日時（UNIXミリ秒）
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entitlements_expires_at
    ON entitlements(expires_at);
`

// SQLiteStore はSQLiteに保存するRepository実装。
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore は新しいSQLiteStoreを生成する。
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// InitSchema はエンタイトルメントテーブルを作成する。
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("エンタイトルメントスキーマの適用に失敗: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (*Entitlement, error) {
	var (
		e         Entitlement
		expiresAt int64
		revokedAt sql.NullInt64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, plan_id, expires_at, revoked_at, source, created_at
		   FROM entitlements WHERE user_id = ?`, userID,
	).Scan(&e.UserID, &e.PlanID, &expiresAt, &revokedAt, &e.Source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("エンタイトルメントの取得に失敗: %w", err)
	}

	e.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	if revokedAt.Valid {
		t := time.UnixMilli(revokedAt.Int64).UTC()
		e.RevokedAt = &t
	}
	return &e, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e Entitlement) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var revokedAt sql.NullInt64
	if e.RevokedAt != nil {
		revokedAt = sql.NullInt64{Int64: e.RevokedAt.UnixMilli(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entitlements (user_id, plan_id, expires_at, revoked_at, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     plan_id = excluded.plan_id,
		     expires_at = excluded.expires_at,
		     revoked_at = excluded.revoked_at,
		     source = excluded.source,
		     created_at = excluded.created_at`,
		e.UserID, e.PlanID, e.ExpiresAt.UnixMilli(), revokedAt, e.Source, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("エンタイトルメントの保存に失敗: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Revoke(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entitlements SET revoked_at = ? WHERE user_id = ?`, at.UnixMilli(), userID)
	if err != nil {
		return fmt.Errorf("エンタイトルメントの取り消しに失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	ms := before.UnixMilli()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entitlements
		  WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)`, ms, ms)
	if err != nil {
		return 0, fmt.Errorf("期限切れエンタイトルメントの削除に失敗: %w", err)
	}
	return res.RowsAffected()
}
