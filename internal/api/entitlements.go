package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/HarshHariyani/HiringBull/pkg/entitlement"
	"github.com/HarshHariyani/HiringBull/pkg/gate"
	"github.com/HarshHariyani/HiringBull/pkg/middleware"
)

// grantRequest はプラン付与リクエストのJSON構造。決済Webhookから送信される。
type grantRequest struct {
	// PlanID は購入されたプランのID。
	PlanID string `json:"plan_id" binding:"required,oneof=starter popular best_value"`
	// Source は付与元（決済プロバイダ名など）。省略時はAPIキーのラベル。
	Source string `json:"source" binding:"max=64"`
	// StartsAt は利用開始日時。省略時は現在時刻。
	StartsAt *time.Time `json:"starts_at"`
}

// subscriptionResponse は自分のプラン状態のJSONレスポンス構造。
type subscriptionResponse struct {
	UserID      string                   `json:"user_id"`
	Status      gate.EntitlementStatus   `json:"status"`
	Active      bool                     `json:"active"`
	Entitlement *entitlement.Entitlement `json:"entitlement,omitempty"`
	Plan        *entitlement.Plan        `json:"plan,omitempty"`
}

// handleGetSubscription はログインユーザーのプラン状態を返すハンドラを返す。
// 有効なプランが無い場合も200で inactive を返す。
func (s *Server) handleGetSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.GetIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		res := subscriptionResponse{UserID: id.UserID, Status: gate.StatusInactive}
		ent, err := s.store.Get(c.Request.Context(), id.UserID)
		switch {
		case errors.Is(err, entitlement.ErrNotFound):
			c.JSON(http.StatusOK, res)
			return
		case err != nil:
			middleware.AbortWithDenial(c, &gate.Denial{
				Kind:   gate.KindUnavailable,
				Check:  gate.CheckPayment,
				Reason: gate.ReasonEntitlementUnavailable,
				Err:    err,
			})
			s.logger.WithError(err).WithField("user_id", id.UserID).Error("エンタイトルメント取得エラー")
			return
		}

		res.Entitlement = ent
		if plan, ok := entitlement.LookupPlan(ent.PlanID); ok {
			res.Plan = &plan
		}
		if ent.ActiveAt(s.now()) {
			res.Active = true
			res.Status = gate.StatusActive
		}
		c.JSON(http.StatusOK, res)
	}
}

// handleGrantEntitlement はユーザーへのプラン付与を処理するハンドラを返す。
// 有効なプランが残っている場合は、その有効期限から延長する。
func (s *Server) handleGrantEntitlement() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		var req grantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, err)
			return
		}
		plan, _ := entitlement.LookupPlan(req.PlanID)
		ctx := c.Request.Context()

		now := s.now().UTC()
		start := now
		if req.StartsAt != nil {
			start = req.StartsAt.UTC()
		}

		current, err := s.store.Get(ctx, userID)
		switch {
		case errors.Is(err, entitlement.ErrNotFound):
		case err != nil:
			abortUnavailable(c, "エンタイトルメントの取得に失敗しました")
			s.logger.WithError(err).WithField("user_id", userID).Error("エンタイトルメント取得エラー")
			return
		default:
			if current.ActiveAt(start) {
				start = current.ExpiresAt
			}
		}

		source := req.Source
		if source == "" {
			source = middleware.GetAPIKeyLabel(c)
		}
		ent := entitlement.Entitlement{
			UserID:    userID,
			PlanID:    plan.ID,
			ExpiresAt: plan.ExpiresFrom(start),
			Source:    source,
			CreatedAt: now,
		}
		if err := s.store.Put(ctx, ent); err != nil {
			abortUnavailable(c, "エンタイトルメントの保存に失敗しました")
			s.logger.WithError(err).WithField("user_id", userID).Error("エンタイトルメント保存エラー")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"user_id":    userID,
			"plan_id":    ent.PlanID,
			"expires_at": ent.ExpiresAt,
			"source":     source,
		}).Info("プランを付与しました")
		c.JSON(http.StatusOK, ent)
	}
}

// handleRevokeEntitlement はユーザーのプラン取り消しを処理するハンドラを返す。
func (s *Server) handleRevokeEntitlement() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		err := s.store.Revoke(c.Request.Context(), userID, s.now().UTC())
		if errors.Is(err, entitlement.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "エンタイトルメントが見つかりません"})
			return
		}
		if err != nil {
			abortUnavailable(c, "エンタイトルメントの取り消しに失敗しました")
			s.logger.WithError(err).WithField("user_id", userID).Error("エンタイトルメント取り消しエラー")
			return
		}

		s.logger.WithField("user_id", userID).Info("プランを取り消しました")
		c.JSON(http.StatusOK, gin.H{"message": "プランを取り消しました"})
	}
}
