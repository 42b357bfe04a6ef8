package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apidb "github.com/HarshHariyani/HiringBull/internal/api/db"
)

// companyRequest は企業作成リクエストのJSON構造。
type companyRequest struct {
	// Name は企業名。
	Name string `json:"name" binding:"required,max=200"`
	// CompanyType は企業区分。
	CompanyType string `json:"company_type" binding:"required,oneof=MNC 'Global Startup' 'Indian Startup'"`
	// Description は企業の説明。
	Description string `json:"description" binding:"max=2000"`
	// LogoURL はロゴ画像のURL。
	LogoURL string `json:"logo_url" binding:"omitempty,url"`
	// CareerPageURL は採用ページのURL。
	CareerPageURL string `json:"career_page_url" binding:"omitempty,url"`
}

// bulkCompaniesRequest は企業一括登録リクエストのJSON構造。
type bulkCompaniesRequest struct {
	Items []companyRequest `json:"items" binding:"required,min=1,max=500,dive"`
}

// listCompaniesQuery は企業一覧のクエリパラメータ。
type listCompaniesQuery struct {
	CompanyType string `form:"company_type" binding:"omitempty,oneof=MNC 'Global Startup' 'Indian Startup'"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset      int    `form:"offset" binding:"omitempty,min=0"`
}

// companyResponse は企業のJSONレスポンス構造。
type companyResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CompanyType   string    `json:"company_type"`
	Description   string    `json:"description"`
	LogoURL       string    `json:"logo_url"`
	CareerPageURL string    `json:"career_page_url"`
	CreatedAt     time.Time `json:"created_at"`
}

func toCompanyResponse(c apidb.Company) companyResponse {
	return companyResponse{
		ID:            c.ID,
		Name:          c.Name,
		CompanyType:   c.CompanyType,
		Description:   c.Description,
		LogoURL:       c.LogoURL,
		CareerPageURL: c.CareerPageURL,
		CreatedAt:     c.CreatedAt,
	}
}

func (r companyRequest) params(now time.Time) apidb.CreateCompanyParams {
	return apidb.CreateCompanyParams{
		ID:            uuid.NewString(),
		Name:          r.Name,
		CompanyType:   r.CompanyType,
		Description:   r.Description,
		LogoURL:       r.LogoURL,
		CareerPageURL: r.CareerPageURL,
		CreatedAt:     now,
	}
}

// handleListCompanies は企業一覧取得を処理するハンドラを返す。
func (s *Server) handleListCompanies() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q listCompaniesQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			abortBadRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		limit := pageLimit(q.Limit)

		companies, err := s.queries.ListCompanies(ctx, apidb.ListCompaniesParams{
			CompanyType: q.CompanyType,
			Limit:       limit,
			Offset:      q.Offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "企業一覧の取得に失敗しました"})
			s.logger.WithError(err).Error("企業一覧取得エラー")
			return
		}
		total, err := s.queries.CountCompanies(ctx, q.CompanyType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "企業一覧の取得に失敗しました"})
			s.logger.WithError(err).Error("企業件数取得エラー")
			return
		}

		items := make([]companyResponse, 0, len(companies))
		for _, co := range companies {
			items = append(items, toCompanyResponse(co))
		}
		c.JSON(http.StatusOK, pageResponse[companyResponse]{Items: items, Total: total, Limit: limit, Offset: q.Offset})
	}
}

// handleCreateCompany は企業作成を処理するハンドラを返す。
// 同名の企業が既に存在する場合は409を返す。
func (s *Server) handleCreateCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req companyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, err)
			return
		}
		ctx := c.Request.Context()

		params := req.params(s.now())
		n, err := s.queries.InsertCompanyIgnore(ctx, params)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "企業の作成に失敗しました"})
			s.logger.WithError(err).Error("企業作成エラー")
			return
		}
		if n == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "同名の企業が既に存在します"})
			return
		}

		created, err := s.queries.GetCompanyByID(ctx, params.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成した企業の取得に失敗しました"})
			s.logger.WithError(err).Error("企業取得エラー")
			return
		}
		c.JSON(http.StatusCreated, toCompanyResponse(created))
	}
}

// handleBulkCreateCompanies は企業の一括登録を処理するハンドラを返す。
// 1つのトランザクションで登録し、同名の企業はスキップする。
func (s *Server) handleBulkCreateCompanies() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkCompaniesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, err)
			return
		}

		var res bulkResponse
		err := s.withTx(c, func(q *apidb.Queries) error {
			now := s.now()
			for _, item := range req.Items {
				n, err := q.InsertCompanyIgnore(c.Request.Context(), item.params(now))
				if err != nil {
					return err
				}
				res.Inserted += n
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "企業の一括登録に失敗しました"})
			s.logger.WithError(err).Error("企業一括登録エラー")
			return
		}
		res.Skipped = int64(len(req.Items)) - res.Inserted
		c.JSON(http.StatusCreated, res)
	}
}

// withTx はトランザクション内でfnを実行する。fnがエラーを返した場合はロールバックする。
func (s *Server) withTx(c *gin.Context, fn func(q *apidb.Queries) error) error {
	tx, err := s.db.BeginTx(c.Request.Context(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// isNotFound はクエリ結果が0件であることを表すエラーかどうかを返す。
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
