package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apidb "github.com/HarshHariyani/HiringBull/internal/api/db"
	"github.com/HarshHariyani/HiringBull/pkg/middleware"
)

// jobItem は求人一括登録の1件分のJSON構造。
// 企業はIDまたは企業名のどちらかで指定する。
type jobItem struct {
	// CompanyID は募集企業のID。
	CompanyID string `json:"company_id" binding:"required_without=Company"`
	// Company は募集企業の名前。
	Company string `json:"company" binding:"required_without=CompanyID"`
	// Title は職種名。
	Title string `json:"title" binding:"required,max=300"`
	// Segment は求人区分。
	Segment string `json:"segment" binding:"max=64"`
	// CareerPageLink は応募ページのURL。
	CareerPageLink string `json:"career_page_link" binding:"omitempty,url"`
}

// bulkJobsRequest は求人一括登録リクエストのJSON構造。
type bulkJobsRequest struct {
	Items []jobItem `json:"items" binding:"required,min=1,max=500,dive"`
}

// listJobsQuery は求人一覧のクエリパラメータ。
type listJobsQuery struct {
	CompanyID string `form:"company_id" binding:"omitempty,max=64"`
	Segment   string `form:"segment" binding:"omitempty,max=64"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// jobResponse は求人のJSONレスポンス構造。
type jobResponse struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	Company        string    `json:"company"`
	CompanyType    string    `json:"company_type"`
	Title          string    `json:"title"`
	Segment        string    `json:"segment"`
	CareerPageLink string    `json:"career_page_link"`
	CreatedAt      time.Time `json:"created_at"`
}

func toJobResponse(j apidb.Job) jobResponse {
	return jobResponse{
		ID:             j.ID,
		CompanyID:      j.CompanyID,
		Company:        j.CompanyName,
		CompanyType:    j.CompanyType,
		Title:          j.Title,
		Segment:        j.Segment,
		CareerPageLink: j.CareerPageLink,
		CreatedAt:      j.CreatedAt,
	}
}

// handleListJobs は求人一覧取得を処理するハンドラを返す。
func (s *Server) handleListJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q listJobsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			abortBadRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		limit := pageLimit(q.Limit)

		jobs, err := s.queries.ListJobs(ctx, apidb.ListJobsParams{
			CompanyID: q.CompanyID,
			Segment:   q.Segment,
			Limit:     limit,
			Offset:    q.Offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人一覧の取得に失敗しました"})
			s.logger.WithError(err).Error("求人一覧取得エラー")
			return
		}
		total, err := s.queries.CountJobs(ctx, q.CompanyID, q.Segment)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人一覧の取得に失敗しました"})
			s.logger.WithError(err).Error("求人件数取得エラー")
			return
		}

		items := make([]jobResponse, 0, len(jobs))
		for _, j := range jobs {
			items = append(items, toJobResponse(j))
		}
		c.JSON(http.StatusOK, pageResponse[jobResponse]{Items: items, Total: total, Limit: limit, Offset: q.Offset})
	}
}

// handleGetJob は求人詳細取得を処理するハンドラを返す。
func (s *Server) handleGetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		j, err := s.queries.GetJobByID(c.Request.Context(), c.Param("id"))
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "求人が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人の取得に失敗しました"})
			s.logger.WithError(err).Error("求人取得エラー")
			return
		}
		c.JSON(http.StatusOK, toJobResponse(j))
	}
}

// unknownCompanyError は一括登録で指定された企業が存在しないことを表す。
type unknownCompanyError struct {
	index int
	ref   string
}

func (e *unknownCompanyError) Error() string {
	return fmt.Sprintf("items[%d]: 企業 %q が見つかりません", e.index, e.ref)
}

// handleBulkCreateJobs は求人の一括登録を処理するハンドラを返す。
// 1つのトランザクションで登録し、存在しない企業を参照する要素があれば全件ロールバックする。
func (s *Server) handleBulkCreateJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkJobsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, err)
			return
		}
		createdBy := middleware.GetAPIKeyLabel(c)

		var res bulkResponse
		err := s.withTx(c, func(q *apidb.Queries) error {
			ctx := c.Request.Context()
			now := s.now()
			for i, item := range req.Items {
				companyID, err := resolveCompany(ctx, q, i, item.CompanyID, item.Company)
				if err != nil {
					return err
				}
				n, err := q.InsertJobIgnore(ctx, apidb.InsertJobParams{
					ID:             uuid.NewString(),
					CompanyID:      companyID,
					Title:          item.Title,
					Segment:        item.Segment,
					CareerPageLink: item.CareerPageLink,
					CreatedBy:      createdBy,
					CreatedAt:      now,
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
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人の一括登録に失敗しました"})
			s.logger.WithError(err).Error("求人一括登録エラー")
			return
		}
		res.Skipped = int64(len(req.Items)) - res.Inserted
		c.JSON(http.StatusCreated, res)
	}
}

// resolveCompany は一括登録要素の企業参照を企業IDに解決する。IDの指定を優先する。
// 該当する企業が無い場合は unknownCompanyError を返す。
func resolveCompany(ctx context.Context, q *apidb.Queries, index int, companyID, name string) (string, error) {
	var (
		co  apidb.Company
		err error
		ref string
	)
	if companyID != "" {
		ref = companyID
		co, err = q.GetCompanyByID(ctx, companyID)
	} else {
		ref = name
		co, err = q.GetCompanyByName(ctx, name)
	}
	if isNotFound(err) {
		return "", &unknownCompanyError{index: index, ref: ref}
	}
	if err != nil {
		return "", err
	}
	return co.ID, nil
}
