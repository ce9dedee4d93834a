package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"proposal-core/internal/handler/request"
	"proposal-core/internal/handler/response"
	"proposal-core/internal/model"
	"proposal-core/internal/service"
	"proposal-core/pkg/errno"
	pkgvalidator "proposal-core/pkg/validator"
)

// ProposalSubmitter 提案提交与合约信息
type ProposalSubmitter interface {
	CreateProposal(ctx context.Context, draft model.ProposalDraft) (*model.SubmissionResult, error)
	GetContractInfo() model.ContractInfo
}

// ProposalReader 只读查询
type ProposalReader interface {
	GetProposal(ctx context.Context, id uint64) *model.ProposalRecord
	GetAllActiveProposalIDs(ctx context.Context) []uint64
}

// ProposalSweeper 手动触发批量关闭
type ProposalSweeper interface {
	SweepExpiredProposals(ctx context.Context) (*model.SweepReport, error)
}

type ProposalHandler struct {
	submitter ProposalSubmitter
	reader    ProposalReader
	sweeper   ProposalSweeper
}

func NewProposalHandler(submitter ProposalSubmitter, reader ProposalReader, sweeper ProposalSweeper) *ProposalHandler {
	return &ProposalHandler{submitter: submitter, reader: reader, sweeper: sweeper}
}

// ActiveProposals 活跃提案列表
type ActiveProposals struct {
	IDs       []uint64               `json:"ids"`
	Proposals []*model.ProposalRecord `json:"proposals,omitempty"`
}

// CreateProposal 提交提案
// @Summary 提交提案
// @Description 将提案草稿写入链上合约，等待交易封存后返回提案 ID
// @Tags Proposal
// @Accept json
// @Produce json
// @Param request body request.CreateProposalRequest true "Proposal Draft"
// @Success 200 {object} response.Response{data=model.SubmissionResult}
// @Router /api/v1/proposals [post]
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	// 1. 绑定参数
	var req request.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	// 2. 调用 Service
	result, err := h.submitter.CreateProposal(c.Request.Context(), req.ToDraft())
	if err != nil {
		// 已提交的交易把 tx id 与浏览器链接带回去，方便用户自行核对
		if se := service.AsSubmissionError(err); se != nil && se.TxID != "" {
			response.ErrorWithData(c, err, gin.H{"txId": se.TxID, "explorerUrl": se.ExplorerURL})
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetProposal 查询提案
// @Summary 查询提案
// @Tags Proposal
// @Produce json
// @Param id path int true "Proposal ID"
// @Success 200 {object} response.Response{data=model.ProposalRecord}
// @Router /api/v1/proposals/{id} [get]
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errno.ErrBind.WithDetail("invalid proposal id"))
		return
	}

	rec := h.reader.GetProposal(c.Request.Context(), id)
	if rec == nil {
		response.Error(c, errno.ErrProposalNotFound)
		return
	}
	response.Success(c, rec)
}

// ListActiveProposals 活跃提案
// @Summary 活跃提案列表
// @Description expand=true 时同时返回提案详情
// @Tags Proposal
// @Produce json
// @Param expand query bool false "Include proposal records"
// @Success 200 {object} response.Response{data=ActiveProposals}
// @Router /api/v1/proposals/active [get]
func (h *ProposalHandler) ListActiveProposals(c *gin.Context) {
	ctx := c.Request.Context()
	out := ActiveProposals{IDs: h.reader.GetAllActiveProposalIDs(ctx)}

	if expand, _ := strconv.ParseBool(c.Query("expand")); expand {
		out.Proposals = make([]*model.ProposalRecord, 0, len(out.IDs))
		for _, id := range out.IDs {
			if rec := h.reader.GetProposal(ctx, id); rec != nil {
				out.Proposals = append(out.Proposals, rec)
			}
		}
	}
	response.Success(c, out)
}

// SweepExpired 手动关闭过期提案
// @Summary 关闭过期提案
// @Description 立即执行一轮批量关闭，与定时任务互斥
// @Tags Proposal
// @Produce json
// @Success 200 {object} response.Response{data=model.SweepReport}
// @Param X-Admin-Token header string true "admin token"
// @Router /api/v1/admin/proposals/sweep [post]
func (h *ProposalHandler) SweepExpired(c *gin.Context) {
	report, err := h.sweeper.SweepExpiredProposals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}

// GetContractInfo 合约信息
// @Summary 合约与网络信息
// @Tags Proposal
// @Produce json
// @Success 200 {object} response.Response{data=model.ContractInfo}
// @Router /api/v1/contract [get]
func (h *ProposalHandler) GetContractInfo(c *gin.Context) {
	response.Success(c, h.submitter.GetContractInfo())
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return errno.ErrValidation.WithDetail(pkgvalidator.GetErrorMsg(verrs))
	}
	return errno.ErrBind
}
