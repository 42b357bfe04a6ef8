package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore はRedisにJSONで保存するRepository実装。
// キーには有効期限＋保持期間のTTLを設定し、期限切れ後も保持期間中は
// 「期限切れ」として判定できるようにする。
type RedisStore struct {
	rdb       *redis.Client
	keyNS     string
	retention time.Duration
}

// NewRedisStore は新しいRedisStoreを生成する。
// keyPrefixが空の場合は "hiringbull:entitlement:"、retentionが0以下の場合は90日。
func NewRedisStore(rdb *redis.Client, keyPrefix string, retention time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "hiringbull:entitlement:"
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, keyNS: keyPrefix, retention: retention}
}

func (s *RedisStore) key(userID string) string { return s.keyNS + userID }

func (s *RedisStore) Get(ctx context.Context, userID string) (*Entitlement, error) {
	val, err := s.rdb.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("エンタイトルメントの取得に失敗: %w", err)
	}
	var e Entitlement
	if err := json.Unmarshal(val, &e); err != nil {
		return nil, fmt.Errorf("エンタイトルメントのデシリアライズに失敗: %w", err)
	}
	return &e, nil
}

func (s *RedisStore) Put(ctx context.Context, e Entitlement) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("エンタイトルメントのシリアライズに失敗: %w", err)
	}
	ttl := time.Until(e.ExpiresAt) + s.retention
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.rdb.Set(ctx, s.key(e.UserID), b, ttl).Err(); err != nil {
		return fmt.Errorf("エンタイトルメントの保存に失敗: %w", err)
	}
	return nil
}

func (s *RedisStore) Revoke(ctx context.Context, userID string, at time.Time) error {
	e, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	e.RevokedAt = &at
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("エンタイトルメントのシリアライズに失敗: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(userID), b, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("エンタイトルメントの取り消しに失敗: %w", err)
	}
	return nil
}

// PruneExpired はキーのTTLで失効するため何もしない。
func (s *RedisStore) PruneExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
