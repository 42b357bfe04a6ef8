// スクレイパーが出力したJSONファイルをHiringBull APIへ一括登録するコマンド。
//
//	API_KEY=... ingest -kind jobs -file jobs.json
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HarshHariyani/HiringBull/internal/ingest"
	"github.com/HarshHariyani/HiringBull/pkg/httpclient"
)

func main() {
	baseURL := flag.String("url", envOr("API_URL", "http://localhost:8080"), "APIサーバーのURL")
	kindFlag := flag.String("kind", "", "登録するリソース (companies / jobs / social-posts)")
	file := flag.String("file", "", "JSON配列のファイル")
	timeout := flag.Duration("timeout", httpclient.DefaultTimeout, "1リクエストのタイムアウト")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	kind, err := ingest.ParseKind(*kindFlag)
	if err != nil {
		logger.WithError(err).Fatal("-kind が不正です")
	}
	if *file == "" {
		logger.Fatal("-file は必須です")
	}
	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		logger.Fatal("API_KEY が設定されていません")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := httpclient.New(*baseURL, httpclient.WithAPIKey(apiKey), httpclient.WithTimeout(*timeout))
	started := time.Now()
	res, err := ingest.NewUploader(client, logger).UploadFile(ctx, kind, *file)
	entry := logger.WithFields(logrus.Fields{
		"kind":     kind,
		"file":     *file,
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
		"elapsed":  time.Since(started).Round(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).Fatal("一括登録に失敗しました")
	}
	entry.Info("一括登録が完了しました")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
