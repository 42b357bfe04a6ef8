package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/HarshHariyani/HiringBull/pkg/gate"
)

// コンテキストキー。
const (
	ctxKeyIdentity    = "identity"
	ctxKeyUserID      = "user_id"
	ctxKeyAPIKeyLabel = "api_key_label"
)

// Gate はルートポリシーに従って認可ゲートを評価するGinミドルウェアを返す。
// 拒否された場合はハンドラーを呼ばずに {"error": ..., "code": ...} を返す。
// 許可された場合は解決済みのIdentityとAPIキーのラベルをコンテキストに設定する。
func Gate(g *gate.Gate, p gate.Policy, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Evaluate(c.Request.Context(), p, c.Request.Header)
		if !d.Allowed {
			logDenial(logger, c, d)
			AbortWithDenial(c, d.Denial)
			return
		}

		if d.State.ServiceAuthenticated {
			c.Set(ctxKeyAPIKeyLabel, d.State.APIKeyLabel)
		}
		if id := d.State.Identity; id != nil {
			c.Set(ctxKeyIdentity, id)
			c.Set(ctxKeyUserID, id.UserID)
		}
		c.Next()
	}
}

// AbortWithDenial は拒否理由を {"error": ..., "code": ...} 形式で返して処理を中断する。
func AbortWithDenial(c *gin.Context, d *gate.Denial) {
	c.AbortWithStatusJSON(d.Kind.HTTPStatus(), gin.H{
		"error": d.Message(),
		"code":  d.Kind,
	})
}

// logDenial は拒否をログに出力する。
// 依存先障害と構成不備は運用上の障害としてErrorで、それ以外はInfoで出力する。
func logDenial(logger logrus.FieldLogger, c *gin.Context, d gate.Decision) {
	entry := logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"route":  c.FullPath(),
		"check":  d.Denial.Check,
		"kind":   d.Denial.Kind,
		"reason": d.Denial.Reason,
	})
	if id := d.State.Identity; id != nil {
		entry = entry.WithField("user_id", id.UserID)
	}
	if d.Denial.Err != nil {
		entry = entry.WithError(d.Denial.Err)
	}

	switch d.Denial.Kind {
	case gate.KindUnavailable, gate.KindInternal:
		entry.Error("リクエストを拒否")
	default:
		entry.Info("リクエストを拒否")
	}
}

// GetIdentity はGinコンテキストから解決済みのIdentityを取得する。
// 認証チェックを含むポリシーのGateミドルウェアが事前に適用されている必要がある。
func GetIdentity(c *gin.Context) (*gate.Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return nil, false
	}
	id, ok := v.(*gate.Identity)
	return id, ok && id != nil
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// GetAPIKeyLabel はGinコンテキストから一致したAPIキーのラベルを取得する。
func GetAPIKeyLabel(c *gin.Context) string {
	return c.GetString(ctxKeyAPIKeyLabel)
}
