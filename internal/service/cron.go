package service

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"proposal-core/pkg/errno"
	"proposal-core/pkg/logger"
	"proposal-core/pkg/utils/lock"
)

const (
	sweepLockKey        = "cron:lock:sweep_proposals"
	defaultSweepLockTTL = 15 * time.Minute
)

type CronService struct {
	cron    *cron.Cron
	locker  lock.DistributedLock // 为空时只依赖进程内互斥
	sweeper *SweeperService
	spec    string
	lockTTL time.Duration
}

func NewCronService(locker lock.DistributedLock, sweeper *SweeperService, spec string, lockTTL time.Duration) *CronService {
	// 标准分钟级调度，spec 支持 "@every 10m" 之类的写法
	if lockTTL <= 0 {
		lockTTL = defaultSweepLockTTL
	}
	return &CronService{
		cron:    cron.New(),
		locker:  locker,
		sweeper: sweeper,
		spec:    spec,
		lockTTL: lockTTL,
	}
}

func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.SweepProposals); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("Cron Service started", zap.String("sweep_spec", s.spec))
	return nil
}

func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Cron Service stopped")
}

// SweepProposals 定时关闭过期提案
// 多实例部署时通过分布式锁保证同一时刻只有一个实例在执行
func (s *CronService) SweepProposals() {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL)
	defer cancel()

	if s.locker != nil {
		token, locked, err := s.locker.Acquire(ctx, sweepLockKey, s.lockTTL)
		if err != nil || !locked {
			logger.Debug("[Sweeper] 获取锁失败或已有实例在运行", zap.Error(err))
			return
		}
		defer func() {
			if err := s.locker.Release(context.Background(), sweepLockKey, token); err != nil {
				logger.Warn("[Sweeper] 释放锁失败", zap.Error(err))
			}
		}()
	}

	report, err := s.sweeper.SweepExpiredProposals(ctx)
	if err != nil {
		if errors.Is(err, errno.ErrSweepInProgress) {
			logger.Debug("[Sweeper] 上一轮尚未结束，跳过")
			return
		}
		logger.Error("[Sweeper] 定时任务执行失败", zap.Error(err))
		return
	}
	logger.Info("[Sweeper] 定时任务完成", zap.String("run_id", report.RunID),
		zap.Int("closed", report.Closed), zap.Int("skipped", report.Skipped), zap.Int("failed", report.Failed))
}
