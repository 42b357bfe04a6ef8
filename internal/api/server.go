package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	apidb "github.com/HarshHariyani/HiringBull/internal/api/db"
	"github.com/HarshHariyani/HiringBull/pkg/credential"
	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
	"github.com/HarshHariyani/HiringBull/pkg/gate"
	"github.com/HarshHariyani/HiringBull/pkg/middleware"
	"github.com/HarshHariyani/HiringBull/pkg/policy"
)

// serviceName はヘルスチェックで返すサービス名。
const serviceName = "hiringbull-api"

// Server はHiringBull APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はリッスン中のHTTPサーバー。
	httpServer *http.Server
	// db はSQLiteデータベース接続。
	db *sql.DB
	// queries は企業・求人・SNS投稿のクエリ実行オブジェクト。
	queries *apidb.Queries
	// store はエンタイトルメントの読み書き先。
	store entitlement.Repository
	// gate はルートポリシーを評価する認可ゲート。
	gate *gate.Gate
	// policies はルートポリシー表。
	policies policy.Table
	// registered は登録済みのルート。
	registered map[policy.RouteKey]bool
	// routeErrs はルート登録時のエラー。
	routeErrs []error
	// devIssuer は開発用トークンの発行者。nilの場合は発行エンドポイントを登録しない。
	devIssuer *credential.HMACVerifier
	// logger は構造化ロガー。
	logger *logrus.Logger
	// now は現在時刻の取得関数。
	now func() time.Time
	// cron は定期ジョブのスケジューラ。
	cron *cron.Cron
	// closers は停止時に閉じる外部接続。
	closers []func()
}

// serverDeps はServerの依存関係。
type serverDeps struct {
	port      string
	db        *sql.DB
	store     entitlement.Repository
	verifier  credential.Verifier
	devIssuer *credential.HMACVerifier
	apiKeys   []gate.APIKey
	policies  policy.Table
	origins   []string
	logger    *logrus.Logger
	now       func() time.Time
}

// NewServer は設定に従ってAPIサーバーを生成する。
// データベースのマイグレーション、ルートポリシーの検証、エンタイトルメントストアへの接続を行う。
func NewServer(ctx context.Context, cfg Config, logger *logrus.Logger) (*Server, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.DatabasePath)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	fail := func(err error) (*Server, error) {
		_ = sqlDB.Close()
		return nil, err
	}

	if err := initSchema(ctx, sqlDB, logger); err != nil {
		return fail(fmt.Errorf("スキーマ初期化に失敗: %w", err))
	}

	policies, err := loadPolicies(cfg.RoutePolicyFile)
	if err != nil {
		return fail(fmt.Errorf("ルートポリシーの読み込みに失敗: %w", err))
	}

	verifier, issuer, err := newVerifier(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if !cfg.EnableDevToken {
		issuer = nil
	}

	store, closeStore, err := openEntitlementStore(ctx, cfg, sqlDB)
	if err != nil {
		return fail(err)
	}

	if len(cfg.APIKeys) == 0 {
		logger.Warn("API_KEYS が設定されていないため、APIキーが必要なルートはすべて拒否されます")
	}

	s, err := newServer(serverDeps{
		port:      cfg.Port,
		db:        sqlDB,
		store:     store,
		verifier:  verifier,
		devIssuer: issuer,
		apiKeys:   cfg.APIKeys,
		policies:  policies,
		origins:   cfg.AllowedOrigins,
		logger:    logger,
		now:       time.Now,
	})
	if err != nil {
		closeStore()
		return fail(err)
	}
	s.closers = append(s.closers, closeStore)

	if cfg.RetentionSchedule != "" {
		if err := s.startRetention(cfg.RetentionSchedule, cfg.Retention); err != nil {
			_ = s.Shutdown(ctx)
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"auth_mode":         cfg.AuthMode,
		"entitlement_store": cfg.EntitlementStore,
		"api_keys":          len(cfg.APIKeys),
		"dev_token":         issuer != nil,
	}).Info("APIサーバーを初期化しました")
	return s, nil
}

// newServer は依存関係からServerを組み立て、ルートを登録する。
// ポリシーが登録されていないルートがある場合はエラーを返す。
func newServer(d serverDeps) (*Server, error) {
	if d.now == nil {
		d.now = time.Now
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	// RequestLoggerはRecoveryより外側に置く
	router.Use(middleware.RequestLogger(d.logger))
	router.Use(middleware.Recovery(d.logger))
	router.Use(middleware.CORS(d.origins))

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              ":" + d.port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		db:       d.db,
		queries:  apidb.New(d.db),
		store:    d.store,
		policies: d.policies,
		gate: gate.New(
			gate.NewAPIKeyCheck(d.apiKeys),
			gate.NewAuthCheck(d.verifier),
			gate.NewPaymentCheck(d.store).WithClock(d.now),
		),
		registered: make(map[policy.RouteKey]bool),
		devIssuer:  d.devIssuer,
		logger:     d.logger,
		now:        d.now,
	}
	s.setupRoutes()
	if err := errors.Join(s.routeErrs...); err != nil {
		return nil, err
	}

	for _, k := range s.policies.Keys() {
		if !s.registered[k] {
			s.logger.WithField("route", k.String()).Debug("ポリシーに対応するルートが登録されていません")
		}
	}
	return s, nil
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。Shutdownが呼ばれた場合はnilを返す。
func (s *Server) Run() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("APIサーバーを起動します")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown はサーバーを停止する。
// 処理中のリクエストと定期ジョブの完了を待ち、外部接続とデータベース接続を閉じる。
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.cron != nil {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
		}
	}
	for _, c := range s.closers {
		c()
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.logger.WithError(cerr).Error("データベースのクローズに失敗")
		}
	}
	return err
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.handle(http.MethodGet, "/health", s.handleHealth())
	// プラン一覧
	s.handle(http.MethodGet, "/api/v1/plans", s.handleListPlans())
	if s.devIssuer != nil {
		// 開発用トークン発行
		s.handle(http.MethodPost, "/auth/dev-token", s.handleDevToken())
	}

	// 企業
	s.handle(http.MethodGet, "/api/v1/companies", s.handleListCompanies())
	s.handle(http.MethodPost, "/api/v1/companies", s.handleCreateCompany())
	s.handle(http.MethodPost, "/api/v1/companies/bulk", s.handleBulkCreateCompanies())

	// 求人
	s.handle(http.MethodGet, "/api/v1/jobs", s.handleListJobs())
	s.handle(http.MethodGet, "/api/v1/jobs/:id", s.handleGetJob())
	s.handle(http.MethodPost, "/api/v1/jobs/bulk", s.handleBulkCreateJobs())

	// SNS投稿
	s.handle(http.MethodGet, "/api/v1/social-posts", s.handleListSocialPosts())
	s.handle(http.MethodGet, "/api/v1/social-posts/:id", s.handleGetSocialPost())
	s.handle(http.MethodPost, "/api/v1/social-posts/bulk", s.handleBulkCreateSocialPosts())

	// エンタイトルメント
	s.handle(http.MethodGet, "/api/v1/me/subscription", s.handleGetSubscription())
	s.handle(http.MethodPut, "/api/v1/entitlements/:user_id", s.handleGrantEntitlement())
	s.handle(http.MethodDelete, "/api/v1/entitlements/:user_id", s.handleRevokeEntitlement())
}

// handle はルートポリシーを引いてゲート付きでハンドラーを登録する。
// ポリシーが無いルートは登録せずエラーとして記録する。
func (s *Server) handle(method, path string, h gin.HandlerFunc) {
	key := policy.Key(method, path)
	p, ok := s.policies[key]
	if !ok {
		s.routeErrs = append(s.routeErrs, fmt.Errorf("%s: ルートポリシーが登録されていません", key))
		return
	}
	s.registered[key] = true
	s.router.Handle(method, path, middleware.Gate(s.gate, p, s.logger), h)
}

// handleHealth はヘルスチェックを処理するハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			s.logger.WithError(err).Error("データベースのヘルスチェックに失敗")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	}
}

// handleListPlans はプラン一覧を返すハンドラを返す。
func (s *Server) handleListPlans() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, entitlement.Plans())
	}
}
