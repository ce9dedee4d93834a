package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"proposal-core/pkg/logger"
)

type Config struct {
	HttpPort string
	GrpcPort string
	// false 时不监听 gRPC 端口
	EnableGRPC bool
}

type App struct {
	httpServer   *http.Server
	grpcServer   *grpc.Server
	grpcListener net.Listener
	// 收到退出信号后、关闭 Server 之前按注册顺序执行
	shutdownHooks []func(ctx context.Context)
}

func New(cfg Config, httpHandler *gin.Engine, grpcServer *grpc.Server) (*App, error) {
	app := &App{
		httpServer: &http.Server{
			Addr:              ":" + cfg.HttpPort,
			Handler:           httpHandler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if cfg.EnableGRPC && grpcServer != nil {
		lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on grpc port %s: %w", cfg.GrpcPort, err)
		}
		app.grpcServer = grpcServer
		app.grpcListener = lis
	}
	return app, nil
}

// OnShutdown 注册退出钩子，例如停止定时任务、取消后台协程
func (a *App) OnShutdown(hook func(ctx context.Context)) {
	a.shutdownHooks = append(a.shutdownHooks, hook)
}

// Run 启动服务并阻塞，直到收到关闭信号
func (a *App) Run() {
	// 1. Start HTTP
	go func() {
		logger.Info("Starting HTTP Server", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP Server failure", zap.Error(err))
		}
	}()

	// 2. Start gRPC
	if a.grpcServer != nil {
		go func() {
			logger.Info("Starting gRPC Server", zap.String("addr", a.grpcListener.Addr().String()))
			if err := a.grpcServer.Serve(a.grpcListener); err != nil {
				logger.Fatal("gRPC Server failure", zap.Error(err))
			}
		}()
	}

	// 3. Signal Handling (Blocking)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 4. Graceful Shutdown
	// 正在等待封存的提交最多等 PollInterval × MaxPollAttempts，这里不等它们完成
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, hook := range a.shutdownHooks {
		hook(ctx)
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}
	logger.Info("Server exited properly")
}
