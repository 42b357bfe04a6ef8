package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HarshHariyani/HiringBull/pkg/gate"
)

// defaultPageSize は一覧取得の既定件数。
const defaultPageSize = 20

// pageResponse は一覧取得のJSONレスポンス構造。
type pageResponse[T any] struct {
	// Items は取得した要素。
	Items []T `json:"items"`
	// Total は条件に一致する全件数。
	Total int64 `json:"total"`
	// Limit は取得件数の上限。
	Limit int `json:"limit"`
	// Offset は取得開始位置。
	Offset int `json:"offset"`
}

// bulkResponse は一括登録のJSONレスポンス構造。
type bulkResponse struct {
	// Inserted は新規に登録した件数。
	Inserted int64 `json:"inserted"`
	// Skipped は既に存在したため登録しなかった件数。
	Skipped int64 `json:"skipped"`
}

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return limit
}

// abortBadRequest はバリデーションエラーを400で返す。
func abortBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
}

// abortUnavailable は依存先障害を503で返す。codeはゲートの拒否応答と同じ分類を使う。
func abortUnavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": message, "code": gate.KindUnavailable})
}
