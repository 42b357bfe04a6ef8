package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apidb "github.com/HarshHariyani/HiringBull/internal/api/db"
)

// socialPostItem はSNS投稿一括登録の1件分のJSON構造。
type socialPostItem struct {
	// Platform は投稿元プラットフォーム（linkedin / twitter / reddit など）。
	Platform string `json:"platform" binding:"required,max=32"`
	// Author は投稿者名。
	Author string `json:"author" binding:"max=200"`
	// Content は本文。
	Content string `json:"content" binding:"required,max=10000"`
	// URL は元投稿のURL。
	URL string `json:"url" binding:"required,url"`
	// CompanyID は関連企業のID。
	CompanyID string `json:"company_id" binding:"omitempty,max=64"`
	// PostedAt は元投稿の投稿日時。
	PostedAt *time.Time `json:"posted_at"`
}

// bulkSocialPostsRequest はSNS投稿一括登録リクエストのJSON構造。
type bulkSocialPostsRequest struct {
	Items []socialPostItem `json:"items" binding:"required,min=1,max=500,dive"`
}

// listSocialPostsQuery はSNS投稿一覧のクエリパラメータ。
type listSocialPostsQuery struct {
	Platform  string `form:"platform" binding:"omitempty,max=32"`
	CompanyID string `form:"company_id" binding:"omitempty,max=64"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// socialPostResponse はSNS投稿のJSONレスポンス構造。
type socialPostResponse struct {
	ID        string     `json:"id"`
	Platform  string     `json:"platform"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	URL       string     `json:"url"`
	CompanyID string     `json:"company_id,omitempty"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toSocialPostResponse(p apidb.SocialPost) socialPostResponse {
	return socialPostResponse{
		ID:        p.ID,
		Platform:  p.Platform,
		Author:    p.Author,
		Content:   p.Content,
		URL:       p.URL,
		CompanyID: p.CompanyID,
		PostedAt:  p.PostedAt,
		CreatedAt: p.CreatedAt,
	}
}

// handleListSocialPosts はSNS投稿一覧取得を処理するハンドラを返す。
func (s *Server) handleListSocialPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q listSocialPostsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			abortBadRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		limit := pageLimit(q.Limit)
		platform := strings.ToLower(q.Platform)

		posts, err := s.queries.ListSocialPosts(ctx, apidb.ListSocialPostsParams{
			Platform:  platform,
			CompanyID: q.CompanyID,
			Limit:     limit,
			Offset:    q.Offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "SNS投稿一覧の取得に失敗しました"})
			s.logger.WithError(err).Error("SNS投稿一覧取得エラー")
			return
		}
		total, err := s.queries.CountSocialPosts(ctx, platform, q.CompanyID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "SNS投稿一覧の取得に失敗しました"})
			s.logger.WithError(err).Error("SNS投稿件数取得エラー")
			return
		}

		items := make([]socialPostResponse, 0, len(posts))
		for _, p := range posts {
			items = append(items, toSocialPostResponse(p))
		}
		c.JSON(http.StatusOK, pageResponse[socialPostResponse]{Items: items, Total: total, Limit: limit, Offset: q.Offset})
	}
}

// handleGetSocialPost はSNS投稿詳細取得を処理するハンドラを返す。
func (s *Server) handleGetSocialPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := s.queries.GetSocialPostByID(c.Request.Context(), c.Param("id"))
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "SNS投稿が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "SNS投稿の取得に失敗しました"})
			s.logger.WithError(err).Error("SNS投稿取得エラー")
			return
		}
		c.JSON(http.StatusOK, toSocialPostResponse(p))
	}
}

// handleBulkCreateSocialPosts はSNS投稿の一括登録を処理するハンドラを返す。
// 1つのトランザクションで登録し、URLが重複する投稿はスキップする。
// 存在しない企業を参照する要素があれば全件ロールバックする。
func (s *Server) handleBulkCreateSocialPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkSocialPostsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, err)
			return
		}

		var res bulkResponse
		err := s.withTx(c, func(q *apidb.Queries) error {
			ctx := c.Request.Context()
			now := s.now()
			for i, item := range req.Items {
				if item.CompanyID != "" {
					if _, err := resolveCompany(ctx, q, i, item.CompanyID, ""); err != nil {
						return err
					}
				}
				n, err := q.InsertSocialPostIgnore(ctx, apidb.InsertSocialPostParams{
					ID:        uuid.NewString(),
					Platform:  strings.ToLower(item.Platform),
					Author:    item.Author,
					Content:   item.Content,
					URL:       item.URL,
					CompanyID: item.CompanyID,
					PostedAt:  item.PostedAt,
					CreatedAt: now,
				})
				if err != nil {
					return err
				}
				res.Inserted += n
			}
			return nil
		})

		var unknown *unknownCompanyError
		switch {
		case errors.As(err, &unknown):
			c.JSON(http.StatusBadRequest, gin.H{"error": unknown.Error()})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "SNS投稿の一括登録に失敗しました"})
			s.logger.WithError(err).Error("SNS投稿一括登録エラー")
			return
		}
		res.Skipped = int64(len(req.Items)) - res.Inserted
		c.JSON(http.StatusCreated, res)
	}
}
