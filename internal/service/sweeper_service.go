package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"proposal-core/internal/model"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/cadence"
	"proposal-core/pkg/flow/scripts"
	"proposal-core/pkg/logger"
	"proposal-core/pkg/monitor"
)

// SweeperService 关闭投票期已结束的提案
// 按 ID 顺序逐个处理，单个失败不影响后续；关闭交易与提案创建共用 Transactor，同账户写操作天然串行
type SweeperService struct {
	tx      *Transactor
	query   *QueryService
	scripts *scripts.Renderer
	db      *gorm.DB // 可为空

	running atomic.Bool
	now     func() time.Time
}

func NewSweeperService(tx *Transactor, query *QueryService, r *scripts.Renderer, db *gorm.DB) *SweeperService {
	return &SweeperService{
		tx:      tx,
		query:   query,
		scripts: r,
		db:      db,
		now:     time.Now,
	}
}

// SweepExpiredProposals 执行一轮关闭；同一进程内不允许并发执行
func (s *SweeperService) SweepExpiredProposals(ctx context.Context) (*model.SweepReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, errno.ErrSweepInProgress
	}
	defer s.running.Store(false)

	if !s.tx.Configured() {
		return nil, newSubmissionError(errno.ErrNotConfigured, nil)
	}

	var timer *prometheus.Timer
	if monitor.Business != nil {
		timer = prometheus.NewTimer(monitor.Business.SweeperJobDuration)
	}
	defer func() {
		if timer != nil {
			timer.ObserveDuration()
		}
	}()

	report := &model.SweepReport{RunID: uuid.NewString(), Items: []model.SweepItem{}}
	run := s.startRun(ctx, report.RunID)

	ids := s.query.GetAllActiveProposalIDs(ctx)
	logger.Info("[Sweeper] 开始检查活跃提案", zap.String("run_id", report.RunID), zap.Int("count", len(ids)))

	for _, id := range ids {
		if ctx.Err() != nil {
			logger.Warn("[Sweeper] 任务被取消，剩余提案留待下次处理", zap.String("run_id", report.RunID))
			break
		}
		item := s.sweepOne(ctx, report.RunID, id)
		report.Add(item)
		monitor.Business.ObserveSweep(string(item.Outcome))
	}

	s.finishRun(ctx, run, report)
	logger.Info("[Sweeper] 本轮完成",
		zap.String("run_id", report.RunID),
		zap.Int("closed", report.Closed), zap.Int("skipped", report.Skipped), zap.Int("failed", report.Failed))
	return report, nil
}

func (s *SweeperService) sweepOne(ctx context.Context, runID string, id uint64) model.SweepItem {
	item := model.SweepItem{ProposalID: id}

	rec, err := s.query.FetchProposal(ctx, id)
	if err != nil {
		logger.Error("[Sweeper] 读取提案失败", zap.Uint64("proposal_id", id), zap.Error(err))
		item.Outcome, item.Error = model.SweepFailed, err.Error()
		return item
	}
	if rec.EndDate <= 0 {
		logger.Error("[Sweeper] 提案缺少截止时间", zap.Uint64("proposal_id", id))
		item.Outcome, item.Error = model.SweepFailed, "proposal has no endDate"
		return item
	}

	// 投票期未结束的提案永远不提前关闭
	if s.now().Unix() <= rec.EndDate {
		item.Outcome = model.SweepSkipped
		return item
	}

	txID, err := s.closeProposal(ctx, id)
	if err != nil {
		// 已被其他实例关闭等情况都按软失败处理
		logger.Warn("[Sweeper] 关闭提案失败", zap.Uint64("proposal_id", id), zap.Error(err))
		item.Outcome, item.TxID, item.Error = model.SweepFailed, txID, err.Error()
	} else {
		logger.Info("[Sweeper] 提案已关闭", zap.Uint64("proposal_id", id), zap.String("tx_id", txID))
		item.Outcome, item.TxID = model.SweepClosed, txID
		s.query.Invalidate(ctx, id)
	}
	s.recordClosure(ctx, runID, item)
	return item
}

func (s *SweeperService) closeProposal(ctx context.Context, id uint64) (string, error) {
	script, err := s.scripts.Script(scripts.CloseProposal)
	if err != nil {
		return "", err
	}
	arg, err := cadence.EncodeArgument(id, cadence.KindUInt64)
	if err != nil {
		return "", err
	}
	outcome, err := s.tx.Execute(ctx, script, [][]byte{arg})
	if err != nil {
		var se *SubmissionError
		if errors.As(err, &se) {
			return se.TxID, err
		}
		return "", err
	}
	return outcome.TxID, nil
}

func (s *SweeperService) startRun(ctx context.Context, runID string) *model.SweepRun {
	if s.db == nil {
		return nil
	}
	run := &model.SweepRun{RunID: runID, StartedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		logger.Error("[Sweeper] 写入任务记录失败", zap.Error(err))
		return nil
	}
	return run
}

func (s *SweeperService) finishRun(ctx context.Context, run *model.SweepRun, report *model.SweepReport) {
	if run == nil {
		return
	}
	finished := s.now()
	err := s.db.WithContext(context.WithoutCancel(ctx)).Model(run).Updates(map[string]any{
		"finished_at": &finished,
		"closed":      report.Closed,
		"skipped":     report.Skipped,
		"failed":      report.Failed,
	}).Error
	if err != nil {
		logger.Error("[Sweeper] 更新任务记录失败", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

func (s *SweeperService) recordClosure(ctx context.Context, runID string, item model.SweepItem) {
	if s.db == nil {
		return
	}
	err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&model.ProposalClosure{
		ProposalID: item.ProposalID,
		SweepRunID: runID,
		TxID:       item.TxID,
		Status:     string(item.Outcome),
		Error:      item.Error,
	}).Error
	if err != nil {
		logger.Error("[Sweeper] 写入关闭记录失败", zap.Uint64("proposal_id", item.ProposalID), zap.Error(err))
	}
}
