// Package ingest はスクレイパーが収集したJSONファイルをAPIサーバーの一括登録エンドポイントへ送信する。
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/HarshHariyani/HiringBull/pkg/httpclient"
)

// Kind は送信先のリソース種別。
type Kind string

const (
	KindCompanies   Kind = "companies"
	KindJobs        Kind = "jobs"
	KindSocialPosts Kind = "social-posts"
)

// batchSize は1リクエストで送信する最大件数。サーバー側の上限に合わせる。
const batchSize = 500

// ParseKind は文字列をKindに変換する。
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCompanies, KindJobs, KindSocialPosts:
		return k, nil
	default:
		return "", fmt.Errorf("未知のリソース種別 %q (companies / jobs / social-posts)", s)
	}
}

func (k Kind) path() string {
	return "/api/v1/" + string(k) + "/bulk"
}

// Result は送信結果の集計。
type Result struct {
	Inserted int64 `json:"inserted"`
	Skipped  int64 `json:"skipped"`
}

// Uploader は一括登録APIのクライアント。
type Uploader struct {
	client *httpclient.Client
	logger logrus.FieldLogger
}

// NewUploader はUploaderを生成する。
func NewUploader(client *httpclient.Client, logger logrus.FieldLogger) *Uploader {
	return &Uploader{client: client, logger: logger}
}

// UploadFile はJSON配列のファイルを読み込んで送信する。
func (u *Uploader) UploadFile(ctx context.Context, kind Kind, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return Result{}, fmt.Errorf("%s はJSON配列ではありません: %w", path, err)
	}
	return u.Upload(ctx, kind, items)
}

// Upload は要素をbatchSizeごとに分割して送信する。
// 途中で失敗した場合はそれまでの集計とエラーを返す。
func (u *Uploader) Upload(ctx context.Context, kind Kind, items []json.RawMessage) (Result, error) {
	var total Result
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))

		var res Result
		body := map[string]any{"items": items[start:end]}
		if err := u.client.PostJSON(ctx, kind.path(), body, &res); err != nil {
			return total, fmt.Errorf("items[%d:%d] の送信に失敗: %w", start, end, err)
		}
		total.Inserted += res.Inserted
		total.Skipped += res.Skipped

		u.logger.WithFields(logrus.Fields{
			"kind":     kind,
			"batch":    fmt.Sprintf("%d-%d", start, end),
			"inserted": res.Inserted,
			"skipped":  res.Skipped,
		}).Info("バッチを送信しました")
	}
	return total, nil
}
