package api

import (
	"context"
	"database/sql"
	"embed"

	"github.com/sirupsen/logrus"

	"github.com/HarshHariyani/HiringBull/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// initSchema はマイグレーションを実行して企業・求人・SNS投稿のスキーマを適用する。
func initSchema(ctx context.Context, db *sql.DB, logger logrus.FieldLogger) error {
	return migration.Run(ctx, db, migrationsFS, "migrations", logger)
}
