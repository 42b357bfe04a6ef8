package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/HarshHariyani/HiringBull/pkg/gate"
)

// 認証モード。
const (
	// AuthModeHMAC は共有シークレットによるHS256トークンを検証する。
	AuthModeHMAC = "hmac"
	// AuthModeJWKS は外部IdPのJWKSで署名を検証する。
	AuthModeJWKS = "jwks"
)

// エンタイトルメントストアの種類。
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Config はAPIサーバーの設定。起動時に一度だけ読み込み、以後変更しない。
type Config struct {
	// Port はリッスンポート。
	Port string
	// DatabasePath はSQLiteデータベースのパス。
	DatabasePath string
	// APIKeys はサーバー間連携用のAPIキー集合。
	APIKeys []gate.APIKey
	// AuthMode はクレデンシャルの検証方式（hmac / jwks）。
	AuthMode string
	// JWTSecret はHMACモードの署名シークレット。
	JWTSecret string
	// JWKSURL はJWKSモードの公開鍵セットのURL。
	JWKSURL string
	// Issuer は期待するissクレーム。
	Issuer string
	// Audience は期待するaudクレーム。
	Audience string
	// EnableDevToken は開発用トークン発行エンドポイントを有効にする。
	EnableDevToken bool
	// EntitlementStore はエンタイトルメントの保存先。
	EntitlementStore string
	// PostgresDSN はPostgreSQLの接続文字列。
	PostgresDSN string
	// RedisAddr はRedisのアドレス。
	RedisAddr string
	// RoutePolicyFile は既定のルートポリシーを上書きするYAMLファイル。
	RoutePolicyFile string
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
	// RetentionSchedule は失効済みエンタイトルメント削除のcronスケジュール。空なら無効。
	RetentionSchedule string
	// Retention は失効後にエンタイトルメントを保持する期間。
	Retention time.Duration
	// LogLevel はログレベル。
	LogLevel string
	// LogFormat はログ形式（json / text）。
	LogFormat string
}

// LoadConfig は環境変数から設定を読み込み、検証する。
func LoadConfig() (Config, error) {
	days, err := strconv.Atoi(getEnvOr("RETENTION_DAYS", "90"))
	if err != nil || days < 0 {
		return Config{}, fmt.Errorf("RETENTION_DAYS が不正です: %q", os.Getenv("RETENTION_DAYS"))
	}
	devToken, err := strconv.ParseBool(getEnvOr("ENABLE_DEV_TOKEN", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("ENABLE_DEV_TOKEN が不正です: %w", err)
	}

	cfg := Config{
		Port:              getEnvOr("PORT", "8080"),
		DatabasePath:      getEnvOr("DATABASE_PATH", "/data/hiringbull.db"),
		APIKeys:           gate.ParseAPIKeys(os.Getenv("API_KEYS")),
		AuthMode:          strings.ToLower(getEnvOr("AUTH_MODE", AuthModeHMAC)),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWKSURL:           os.Getenv("AUTH_JWKS_URL"),
		Issuer:            os.Getenv("AUTH_ISSUER"),
		Audience:          os.Getenv("AUTH_AUDIENCE"),
		EnableDevToken:    devToken,
		EntitlementStore:  strings.ToLower(getEnvOr("ENTITLEMENT_STORE", StoreSQLite)),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		RedisAddr:         getEnvOr("REDIS_ADDR", "localhost:6379"),
		RoutePolicyFile:   os.Getenv("ROUTE_POLICY_FILE"),
		AllowedOrigins:    splitList(getEnvOr("FRONTEND_URL", "http://localhost:3000")),
		RetentionSchedule: getEnvOr("RETENTION_SCHEDULE", "@daily"),
		Retention:         time.Duration(days) * 24 * time.Hour,
		LogLevel:          getEnvOr("LOG_LEVEL", "info"),
		LogFormat:         getEnvOr("LOG_FORMAT", "json"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値の組み合わせを検証する。
func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthModeHMAC:
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=%s には JWT_SECRET が必要です", c.AuthMode)
		}
	case AuthModeJWKS:
		if c.JWKSURL == "" {
			return fmt.Errorf("AUTH_MODE=%s には AUTH_JWKS_URL が必要です", c.AuthMode)
		}
		if c.EnableDevToken {
			return fmt.Errorf("ENABLE_DEV_TOKEN は AUTH_MODE=%s では使用できません", c.AuthMode)
		}
	default:
		return fmt.Errorf("未知の AUTH_MODE %q", c.AuthMode)
	}

	switch c.EntitlementStore {
	case StoreSQLite, StoreMemory, StoreRedis:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("ENTITLEMENT_STORE=%s には POSTGRES_DSN が必要です", c.EntitlementStore)
		}
	default:
		return fmt.Errorf("未知の ENTITLEMENT_STORE %q", c.EntitlementStore)
	}
	return nil
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
