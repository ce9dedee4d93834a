package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"proposal-core/internal/event"
	"proposal-core/internal/model"
	"proposal-core/pkg/logger"
)

// Notifier 提案创建成功后的通知，失败不影响提交结果
type Notifier interface {
	NotifyProposalCreated(ctx context.Context, evt event.ProposalCreatedEvent) error
}

// outboxWriter 能在调用方事务中写本地消息表的通知器
type outboxWriter interface {
	writeOutbox(tx *gorm.DB, evt event.ProposalCreatedEvent) error
}

// LogNotifier 未配置数据库时只打日志
type LogNotifier struct{}

func (LogNotifier) NotifyProposalCreated(ctx context.Context, evt event.ProposalCreatedEvent) error {
	fields := []zap.Field{
		zap.String("park_name", evt.ParkName),
		zap.String("tx_id", evt.TxID),
		zap.Int64("end_date", evt.EndDate),
	}
	if evt.ProposalID != nil {
		fields = append(fields, zap.Uint64("proposal_id", *evt.ProposalID))
	}
	logger.Info("[Notify] 新提案已创建", fields...)
	return nil
}

// OutboxNotifier 写入本地消息表，由 RelayService 投递到 MQ
type OutboxNotifier struct {
	db    *gorm.DB
	topic string
}

func NewOutboxNotifier(db *gorm.DB, topic string) *OutboxNotifier {
	if topic == "" {
		topic = event.TopicProposalCreated
	}
	return &OutboxNotifier{db: db, topic: topic}
}

func (n *OutboxNotifier) NotifyProposalCreated(ctx context.Context, evt event.ProposalCreatedEvent) error {
	return n.writeOutbox(n.db.WithContext(ctx), evt)
}

func (n *OutboxNotifier) writeOutbox(tx *gorm.DB, evt event.ProposalCreatedEvent) error {
	return model.CreateOutboxMessage(tx, n.topic, evt)
}
