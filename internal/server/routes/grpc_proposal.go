package routes

import (
	"google.golang.org/grpc"

	handler_grpc "proposal-core/internal/handler/grpc"
)

// RegisterProposalGRPC 注册 ProposalService gRPC 服务
func RegisterProposalGRPC(s *grpc.Server, h *handler_grpc.ProposalHandler) {
	handler_grpc.RegisterProposalServiceServer(s, h)
}
