package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"proposal-core/internal/model"
	"proposal-core/internal/service/mq"
	"proposal-core/pkg/logger"
)

const relayBatchSize = 50

// RelayService 负责将本地消息表的消息搬运到 MQ
type RelayService struct {
	db       *gorm.DB
	producer mq.Producer
	interval time.Duration
}

func NewRelayService(db *gorm.DB, producer mq.Producer) *RelayService {
	return &RelayService{
		db:       db,
		producer: producer,
		interval: 500 * time.Millisecond,
	}
}

func (s *RelayService) Start(ctx context.Context) {
	logger.Info("[Relay] 启动消息中继服务...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Relay] 停止服务")
			return
		case <-ticker.C:
			s.ProcessPendingMessages(ctx)
		}
	}
}

// ProcessPendingMessages 投递一批待发送消息，返回成功条数
// 发送成功后才标记 SENT，至少一次投递，消费端需要幂等
func (s *RelayService) ProcessPendingMessages(ctx context.Context) int {
	messages, err := model.FetchPendingOutbox(s.db.WithContext(ctx), relayBatchSize)
	if err != nil {
		logger.Error("[Relay] 查询消息失败", zap.Error(err))
		return 0
	}
	if len(messages) == 0 {
		return 0
	}

	logger.Debug("[Relay] 发现待发送消息", zap.Int("count", len(messages)))

	sent := 0
	for _, msg := range messages {
		if err := s.producer.Publish(ctx, msg.Topic, "", msg.Payload); err != nil {
			logger.Error("[Relay] 发送消息失败", zap.Uint64("id", msg.ID), zap.Error(err))
			continue
		}
		if err := model.MarkOutboxSent(s.db.WithContext(ctx), msg.ID); err != nil {
			logger.Error("[Relay] 更新状态失败", zap.Uint64("id", msg.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
