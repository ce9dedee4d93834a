package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"proposal-core/internal/handler"
	"proposal-core/internal/handler/request"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/logger"
	pkgvalidator "proposal-core/pkg/validator"
)

// ProposalHandler implements ProposalServiceServer
type ProposalHandler struct {
	submitter handler.ProposalSubmitter
	reader    handler.ProposalReader
	sweeper   handler.ProposalSweeper
	validate  *validator.Validate
}

func NewProposalHandler(submitter handler.ProposalSubmitter, reader handler.ProposalReader, sweeper handler.ProposalSweeper) *ProposalHandler {
	v := pkgvalidator.New()
	// 与 HTTP 共用同一组请求结构体
	v.SetTagName("binding")
	return &ProposalHandler{submitter: submitter, reader: reader, sweeper: sweeper, validate: v}
}

func (h *ProposalHandler) CreateProposal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var req request.CreateProposalRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, toStatus(errno.ErrBind.WithDetail(err.Error()))
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, toStatus(errno.ErrValidation.WithDetail(pkgvalidator.GetErrorMsg(err)))
	}

	logger.Info("[gRPC] CreateProposal", zap.String("park", req.ParkName))
	result, err := h.submitter.CreateProposal(ctx, req.ToDraft())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

func (h *ProposalHandler) GetProposal(ctx context.Context, in *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	rec := h.reader.GetProposal(ctx, in.GetValue())
	if rec == nil {
		return nil, toStatus(errno.ErrProposalNotFound)
	}
	return toStruct(rec)
}

func (h *ProposalHandler) ListActiveProposals(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(handler.ActiveProposals{IDs: h.reader.GetAllActiveProposalIDs(ctx)})
}

func (h *ProposalHandler) SweepExpired(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	report, err := h.sweeper.SweepExpiredProposals(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(report)
}

func (h *ProposalHandler) GetContractInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(h.submitter.GetContractInfo())
}

// toStruct 按 JSON tag 转成 structpb，与 HTTP 响应字段一致
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

var codeMapping = []struct {
	err  errno.Errno
	code codes.Code
}{
	{errno.ErrPermissionDenied, codes.PermissionDenied},
	{errno.ErrBind, codes.InvalidArgument},
	{errno.ErrValidation, codes.InvalidArgument},
	{errno.ErrBuildFailure, codes.InvalidArgument},
	{errno.ErrProposalNotFound, codes.NotFound},
	{errno.ErrSweepInProgress, codes.Aborted},
	{errno.ErrNotConnected, codes.Unavailable},
	{errno.ErrNotConfigured, codes.FailedPrecondition},
	{errno.ErrInsufficientBalance, codes.FailedPrecondition},
	{errno.ErrRateLimited, codes.ResourceExhausted},
	{errno.ErrSealTimeout, codes.DeadlineExceeded},
}

// toStatus 业务错误码放在消息前缀里，客户端可以据此区分
func toStatus(err error) error {
	code, msg := errno.Decode(err)
	grpcCode := codes.Internal
	for _, m := range codeMapping {
		if errors.Is(err, m.err) {
			grpcCode = m.code
			break
		}
	}
	return status.Error(grpcCode, fmt.Sprintf("[%d] %s", code, msg))
}
