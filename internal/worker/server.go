package worker

import (
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"proposal-core/internal/worker/tasks"
	"proposal-core/pkg/config"
	"proposal-core/pkg/logger"
)

// Server 封装 Asynq Server (Worker)
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewServer 初始化 Worker Server
func NewServer(addr string, password string, db int, concurrency int, notify config.NotifyConfig) *Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     addr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			// 并发数：同时处理多少个任务
			Concurrency: concurrency,
			// 队列优先级
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: logger.NewAsynqLogger(),
		},
	)

	mux := asynq.NewServeMux()

	// 注册任务处理器
	mux.Handle(tasks.TypeProposalCreatedEmail, tasks.NewProposalEmailHandler(tasks.NewSMTPMailer(notify), notify))

	return &Server{
		server: srv,
		mux:    mux,
	}
}

// Run 启动 Worker (阻塞)
func (s *Server) Run() error {
	logger.Info("Worker Server starting...")
	return s.server.Run(s.mux)
}

// Start 非阻塞启动
func (s *Server) Start() {
	go func() {
		if err := s.server.Run(s.mux); err != nil {
			logger.Fatal("Worker Server failed", zap.Error(err))
		}
	}()
}

// Stop 停止 Worker
func (s *Server) Stop() {
	s.server.Stop()
	s.server.Shutdown()
}
