package worker

import (
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"proposal-core/internal/event"
	"proposal-core/internal/worker/tasks"
	"proposal-core/pkg/logger"
)

// Client 封装 Asynq Client
type Client struct {
	client *asynq.Client
}

// NewClient 初始化 Client
// addr: "localhost:6379"
func NewClient(addr string, password string, db int) *Client {
	c := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Client{client: c}
}

// Enqueue 将任务推送到队列
func (c *Client) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return c.client.Enqueue(task, opts...)
}

// EnqueueProposalCreated 新提案通知入队，重复投递的事件视为成功
func (c *Client) EnqueueProposalCreated(evt event.ProposalCreatedEvent) error {
	task, err := tasks.NewProposalCreatedEmailTask(evt)
	if err != nil {
		return err
	}
	info, err := c.client.Enqueue(task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		logger.Debug("[Worker] 通知任务已存在", zap.String("tx_id", evt.TxID))
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("[Worker] 通知任务已入队", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	return nil
}

// Close 关闭客户端连接
func (c *Client) Close() error {
	return c.client.Close()
}
