package routes

import (
	"github.com/gin-gonic/gin"

	"proposal-core/internal/handler"
	"proposal-core/internal/handler/middleware"
)

// RegisterAdminRoutes 管理接口，需携带 X-Admin-Token
func RegisterAdminRoutes(rg *gin.RouterGroup, h *handler.ProposalHandler, token string) {
	adminGroup := rg.Group("/admin", middleware.AdminAuth(token))
	{
		// 手动触发批量关闭，与定时任务互斥
		adminGroup.POST("/proposals/sweep", h.SweepExpired)
	}
}
