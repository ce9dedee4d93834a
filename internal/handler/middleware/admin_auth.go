package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proposal-core/internal/handler/response"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/logger"
)

// AdminTokenHeader 管理接口令牌所在的请求头，gRPC 使用同名小写 metadata
const AdminTokenHeader = "X-Admin-Token"

// ValidAdminToken 未配置令牌时一律拒绝
func ValidAdminToken(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// AdminAuth 管理接口鉴权
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ValidAdminToken(token, c.GetHeader(AdminTokenHeader)) {
			logger.Warn("[Admin] 拒绝未授权的管理请求",
				zap.String("path", c.FullPath()), zap.String("client_ip", c.ClientIP()))
			response.Error(c, errno.ErrPermissionDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}
