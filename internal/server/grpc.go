package server

import (
	"google.golang.org/grpc"

	handler_grpc "proposal-core/internal/handler/grpc"
	"proposal-core/internal/server/routes"
)

// NewGRPCServer 初始化并注册 gRPC 服务
func NewGRPCServer(h *handler_grpc.ProposalHandler, adminToken string) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(handler_grpc.AdminInterceptor(adminToken)))

	routes.RegisterProposalGRPC(s, h)

	return s
}
