package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"proposal-core/internal/handler"
	handler_grpc "proposal-core/internal/handler/grpc"
	"proposal-core/internal/model"
	"proposal-core/internal/server"
	"proposal-core/internal/service"
	"proposal-core/internal/service/mq"
	"proposal-core/pkg/cache"
	"proposal-core/pkg/config"
	"proposal-core/pkg/database"
	"proposal-core/pkg/flow/client"
	"proposal-core/pkg/flow/scripts"
	"proposal-core/pkg/kms"
	"proposal-core/pkg/logger"
	"proposal-core/pkg/monitor"
	"proposal-core/pkg/utils/lock"

	_ "proposal-core/docs/swagger"
)

// @title Proposal Core API
// @version 1.0
// @description Community proposal submission and closure service

// @host localhost:8080
// @BasePath /
func main() {
	// 0. 初始化 Config
	config.Init()
	cfg := config.Global

	// 1. 初始化 Logger
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. 连接数据库 (可选)
	db, err := database.Open(cfg.DB, cfg.App.Env)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if db != nil && cfg.App.Env == "development" {
		logger.Info("开发环境: 尝试自动迁移 Schema (GORM AutoMigrate)...")
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("数据库自动迁移失败", zap.Error(err))
		}
	}

	// 3. 连接 Redis (可选，失败时降级为单机模式)
	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis 连接失败，缓存与分布式锁降级为进程内实现", zap.Error(err))
		rdb = nil
	}

	// 4. 链上账户与签名器
	preset, err := cfg.Flow.Preset()
	if err != nil {
		logger.Fatal("网络配置错误", zap.Error(err))
	}
	signer, err := kms.LoadAccountSigner(cfg.Flow, kms.NewLocalKMS())
	if err != nil {
		logger.Fatal("加载账户私钥失败", zap.Error(err))
	}
	if signer == nil {
		logger.Warn("未配置账户私钥，写操作将返回 NotConfigured")
	}

	ledger := client.New(preset.RestURL, cfg.Flow.RequestTimeout)
	renderer, err := scripts.NewRenderer(cfg.Flow.ContractName, cfg.Flow.EffectiveContractAddress())
	if err != nil {
		logger.Fatal("合约配置错误", zap.Error(err))
	}
	tx, err := service.NewTransactor(ledger, signer, cfg.Flow, preset)
	if err != nil {
		logger.Fatal("初始化 Transactor 失败", zap.Error(err))
	}
	logger.Info("Flow 网络已配置",
		zap.String("network", preset.Name),
		zap.String("rest", preset.RestURL),
		zap.String("account", tx.Address().String()))

	// 5. 业务服务
	monitor.Init()
	query := service.NewQueryService(ledger, renderer, newProposalCache(rdb), cfg.Cache.ProposalTTL)
	proposals := service.NewProposalService(service.ProposalServiceDeps{
		Client:     ledger,
		Transactor: tx,
		Query:      query,
		Scripts:    renderer,
		Notifier:   newNotifier(db, cfg.Notify.Topic),
		DB:         db,
		MinBalance: cfg.Flow.MinBalanceDecimal(),
	})
	sweeper := service.NewSweeperService(tx, query, renderer, db)

	// 6. 定时关闭
	var cronService *service.CronService
	if cfg.Sweeper.Enabled {
		var locker lock.DistributedLock
		if rdb != nil {
			locker = lock.NewRedisLock(rdb)
		}
		cronService = service.NewCronService(locker, sweeper, cfg.Sweeper.Spec, cfg.Sweeper.LockTTL)
		if err := cronService.Start(); err != nil {
			logger.Fatal("定时任务启动失败", zap.Error(err))
		}
	}

	// 7. 消息中继 (需要数据库中的 outbox)
	if db != nil {
		if producer := newProducer(cfg, rdb); producer != nil {
			go service.NewRelayService(db, producer).Start(ctx)
		}
	}

	// 8. HTTP / gRPC
	r := server.NewHTTPRouter(server.Handlers{
		Health:     handler.NewHealthHandler(ledger),
		Proposal:   handler.NewProposalHandler(proposals, query, sweeper),
		AdminToken: cfg.App.AdminToken,
	})
	grpcServer := server.NewGRPCServer(handler_grpc.NewProposalHandler(proposals, query, sweeper), cfg.App.AdminToken)

	app, err := server.New(server.Config{
		HttpPort:   cfg.App.HttpPort,
		GrpcPort:   cfg.App.GrpcPort,
		EnableGRPC: cfg.App.GrpcPort != "",
	}, r, grpcServer)
	if err != nil {
		logger.Fatal("应用启动失败", zap.Error(err))
	}
	app.OnShutdown(func(context.Context) {
		if cronService != nil {
			cronService.Stop()
		}
		cancel()
	})

	// 运行 (阻塞)
	app.Run()

	// 9. 退出后资源清理
	if db != nil {
		logger.Info("正在关闭数据库连接...")
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Info("系统已退出")
}

// newProposalCache 本地缓存为一级，Redis 可用时作为二级
func newProposalCache(rdb *redis.Client) cache.Cache {
	local := cache.NewMemoryCache(time.Minute, 5*time.Minute)
	if rdb == nil {
		return local
	}
	return cache.NewMultiLevelCache(local, cache.NewRedisCache(rdb))
}

func newNotifier(db *gorm.DB, topic string) service.Notifier {
	if db == nil {
		return service.LogNotifier{}
	}
	return service.NewOutboxNotifier(db, topic)
}

func newProducer(cfg config.Config, rdb *redis.Client) mq.Producer {
	if cfg.Redis.MQType == "kafka" {
		logger.Info("使用 Kafka 作为消息队列...", zap.Strings("brokers", cfg.Kafka.Brokers))
		return mq.NewKafkaProducer(cfg.Kafka.Brokers)
	}
	if rdb == nil {
		logger.Warn("Redis 不可用，新提案通知只写入 outbox")
		return nil
	}
	logger.Info("使用 Redis Streams 作为消息队列...")
	return mq.NewRedisProducer(rdb)
}
