// HiringBull APIサーバーのエントリポイント。
// 企業・求人・SNS投稿のAPIを提供し、すべてのルートを認可ゲート経由で公開する。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HarshHariyani/HiringBull/internal/api"
)

// shutdownTimeout は停止時に処理中のリクエストを待つ時間。
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := api.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("設定の読み込みに失敗")
	}
	logger, err := api.NewLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("ロガーの初期化に失敗")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := api.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("APIサーバーの初期化に失敗")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("APIサーバーが異常終了しました")
		}
	case <-ctx.Done():
		logger.Info("停止シグナルを受信しました")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("APIサーバーの停止に失敗")
		os.Exit(1)
	}
	logger.Info("APIサーバーを停止しました")
}
