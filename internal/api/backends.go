package api

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/HarshHariyani/HiringBull/pkg/credential"
	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
)

// openEntitlementStore は設定に従ってエンタイトルメントストアを開く。
// 返り値のclose関数はストア固有の接続を閉じる。SQLiteの場合はAPIと同じ接続を共有する。
func openEntitlementStore(ctx context.Context, cfg Config, sqlDB *sql.DB) (entitlement.Repository, func(), error) {
	noop := func() {}

	switch cfg.EntitlementStore {
	case StoreMemory:
		return entitlement.NewMemoryStore(), noop, nil

	case StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQL接続プールの作成に失敗: %w", err)
		}
		store := entitlement.NewPostgresStore(pool, "")
		if err := store.InitSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("エンタイトルメントスキーマの初期化に失敗: %w", err)
		}
		return store, pool.Close, nil

	case StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
		}
		return entitlement.NewRedisStore(rdb, "", cfg.Retention), func() { _ = rdb.Close() }, nil

	default:
		store := entitlement.NewSQLiteStore(sqlDB)
		if err := store.InitSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("エンタイトルメントスキーマの初期化に失敗: %w", err)
		}
		return store, noop, nil
	}
}

// newVerifier は設定に従ってクレデンシャル検証器を生成する。
// HMACモードの場合は開発用トークンの発行にも使用する検証器を合わせて返す。
func newVerifier(ctx context.Context, cfg Config) (credential.Verifier, *credential.HMACVerifier, error) {
	if cfg.AuthMode == AuthModeJWKS {
		v, err := credential.NewJWKSVerifier(ctx, credential.JWKSConfig{
			URL:      cfg.JWKSURL,
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("JWKS検証器の初期化に失敗: %w", err)
		}
		return v, nil, nil
	}

	var opts []credential.HMACOption
	if cfg.Issuer != "" {
		opts = append(opts, credential.WithIssuer(cfg.Issuer))
	}
	v := credential.NewHMACVerifier(cfg.JWTSecret, opts...)
	return v, v, nil
}
