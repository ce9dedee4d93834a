package grpc

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"proposal-core/internal/handler/middleware"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/logger"
)

// adminMethods 需要管理令牌的方法
var adminMethods = map[string]bool{
	fullMethod("SweepExpired"): true,
}

// AdminInterceptor 校验 x-admin-token metadata，与 HTTP 管理接口使用同一个令牌
func AdminInterceptor(token string) grpc.UnaryServerInterceptor {
	key := strings.ToLower(middleware.AdminTokenHeader)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !adminMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		var presented string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(key); len(v) > 0 {
				presented = v[0]
			}
		}
		if !middleware.ValidAdminToken(token, presented) {
			logger.Warn("[gRPC] 拒绝未授权的管理调用", zap.String("method", info.FullMethod))
			return nil, toStatus(errno.ErrPermissionDenied)
		}
		return handler(ctx, req)
	}
}
