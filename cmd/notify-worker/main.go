package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"proposal-core/internal/event"
	"proposal-core/internal/service/mq"
	"proposal-core/internal/worker"
	"proposal-core/pkg/config"
	"proposal-core/pkg/database"
	"proposal-core/pkg/logger"
)

// notify-worker 消费新提案事件并投递邮件
// MQ 消息只负责入队，真正的 SMTP 发送在 asynq worker 里完成，失败由 asynq 重试
func main() {
	// 1. 初始化配置与日志
	config.Init()
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	logger.Info("启动通知服务 (Notify Worker)...", zap.String("env", config.Global.App.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Redis (Redis Streams 与 asynq 共用)
	rdb, err := database.ConnectRedis(ctx, config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}

	// 3. asynq
	taskClient := worker.NewClient(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	taskServer := worker.NewServer(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB,
		config.Global.Worker.Concurrency, config.Global.Notify)
	taskServer.Start()

	// 4. 初始化 MQ Consumer
	var consumer mq.Consumer
	if config.Global.Redis.MQType == "kafka" {
		logger.Info("MQ Mode: Kafka Consumer", zap.Strings("brokers", config.Global.Kafka.Brokers))
		consumer = mq.NewKafkaConsumer(config.Global.Kafka.Brokers, "notify-group")
	} else {
		logger.Info("MQ Mode: Redis Consumer")
		host, _ := os.Hostname()
		consumer = mq.NewRedisConsumer(rdb, "notify-group", "notify-"+host)
	}

	topic := config.Global.Notify.Topic
	if topic == "" {
		topic = event.TopicProposalCreated
	}

	go func() {
		logger.Info("开始监听提案事件", zap.String("topic", topic))
		if err := consumer.Subscribe(ctx, topic, handleProposalCreated(taskClient)); err != nil {
			logger.Fatal("订阅失败", zap.Error(err))
		}
	}()

	// 5. 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在停止通知服务...")
	cancel()
	_ = consumer.Close()
	taskServer.Stop()
	_ = taskClient.Close()
	_ = rdb.Close()
	time.Sleep(time.Second)
	logger.Info("通知服务已停止")
}

func handleProposalCreated(client *worker.Client) func(msg *mq.Message) error {
	return func(msg *mq.Message) error {
		var evt event.ProposalCreatedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			logger.Error("解析消息失败", zap.String("msg_id", msg.ID), zap.Error(err))
			return nil // 格式错误，不再重试
		}
		logger.Info("收到新提案事件", zap.String("park", evt.ParkName), zap.String("tx_id", evt.TxID))
		return client.EnqueueProposalCreated(evt)
	}
}
