package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"proposal-core/internal/handler"
	"proposal-core/internal/handler/response"
	"proposal-core/internal/server/routes"
	"proposal-core/pkg/monitor"
	"proposal-core/pkg/validator"
)

// Handlers HTTP 路由依赖的处理器
type Handlers struct {
	Health   *handler.HealthHandler
	Proposal *handler.ProposalHandler

	// AdminToken 为空时 /api/v1/admin 下的接口全部拒绝
	AdminToken string
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	// 0. 初始化监控指标与自定义校验规则
	monitor.Init()
	validator.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", h.Health.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, gin.H{"pong": true})
		})

		routes.RegisterProposalRoutes(api, h.Proposal)
		routes.RegisterAdminRoutes(api, h.Proposal, h.AdminToken)
	}

	return r
}
