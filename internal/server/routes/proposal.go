package routes

import (
	"github.com/gin-gonic/gin"

	"proposal-core/internal/handler"
)

func RegisterProposalRoutes(rg *gin.RouterGroup, h *handler.ProposalHandler) {
	proposals := rg.Group("/proposals")
	{
		proposals.POST("", h.CreateProposal)
		proposals.GET("/active", h.ListActiveProposals)
		proposals.GET("/:id", h.GetProposal)
	}
	rg.GET("/contract", h.GetContractInfo)
}
