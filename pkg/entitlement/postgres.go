package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore はPostgreSQLに保存するRepository実装。
// 決済基盤とエンタイトルメントテーブルを共有する構成で使用する。
type PostgresStore struct {
	pg     *pgxpool.Pool
	schema string
}

// NewPostgresStore は新しいPostgresStoreを生成する。schemaが空の場合は "billing"。
func NewPostgresStore(pg *pgxpool.Pool, schema string) *PostgresStore {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "billing"
	}
	return &PostgresStore{pg: pg, schema: s}
}

func (s *PostgresStore) table() string { return s.schema + ".entitlements" }

// InitSchema はスキーマとエンタイトルメントテーブルを作成する。
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	ddl := `CREATE SCHEMA IF NOT EXISTS ` + s.schema + `;
CREATE TABLE IF NOT EXISTS ` + s.table() + ` (
    user_id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ,
    source TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if _, err := s.pg.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("エンタイトルメントスキーマの適用に失敗: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Entitlement, error) {
	var e Entitlement
	err := s.pg.QueryRow(ctx,
		`SELECT user_id, plan_id, expires_at, revoked_at, source, created_at FROM `+s.table()+` WHERE user_id=$1`,
		userID,
	).Scan(&e.UserID, &e.PlanID, &e.ExpiresAt, &e.RevokedAt, &e.Source, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("エンタイトルメントの取得に失敗: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) Put(ctx context.Context, e Entitlement) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.pg.Exec(ctx,
		`INSERT INTO `+s.table()+` (user_id, plan_id, expires_at, revoked_at, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		     plan_id = EXCLUDED.plan_id,
		     expires_at = EXCLUDED.expires_at,
		     revoked_at = EXCLUDED.revoked_at,
		     source = EXCLUDED.source,
		     created_at = EXCLUDED.created_at`,
		e.UserID, e.PlanID, e.ExpiresAt, e.RevokedAt, e.Source, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("エンタイトルメントの保存に失敗: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, userID string, at time.Time) error {
	tag, err := s.pg.Exec(ctx, `UPDATE `+s.table()+` SET revoked_at=$2 WHERE user_id=$1`, userID, at)
	if err != nil {
		return fmt.Errorf("エンタイトルメントの取り消しに失敗: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pg.Exec(ctx,
		`DELETE FROM `+s.table()+` WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)`, before)
	if err != nil {
		return 0, fmt.Errorf("期限切れエンタイトルメントの削除に失敗: %w", err)
	}
	return tag.RowsAffected(), nil
}
