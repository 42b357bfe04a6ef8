package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// devTokenRequest は開発用トークン発行リクエストのJSON構造。
type devTokenRequest struct {
	// UserID はトークンのsubクレームに設定するユーザーID。
	UserID string `json:"user_id" binding:"required,max=128"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email" binding:"omitempty,email"`
}

// handleDevToken は開発用のBearerトークンを発行するハンドラを返す。
// HMACモードかつ ENABLE_DEV_TOKEN=true の場合のみ登録される。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req devTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, err)
			return
		}

		token, err := s.devIssuer.Issue(req.UserID, req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			s.logger.WithError(err).Error("トークン発行エラー")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token, "token_type": "Bearer"})
	}
}
