package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"proposal-core/internal/handler/response"
)

// Pinger 健康检查依赖，接入节点、数据库等
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	ledger Pinger
}

func NewHealthHandler(ledger Pinger) *HealthHandler {
	return &HealthHandler{ledger: ledger}
}

// HealthCheck godoc
// @Summary Check system health
// @Description Get the current health status of the server and its ledger connection
// @Tags system
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ledger := "UNKNOWN"
	if h.ledger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		ledger = "UP"
		if err := h.ledger.Ping(ctx); err != nil {
			ledger = "DOWN"
		}
	}
	response.Success(c, gin.H{
		"status":  "UP",
		"ledger":  ledger,
		"version": "1.0.0",
		"service": "proposal-server",
	})
}
