package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"proposal-core/internal/event"
	"proposal-core/internal/model"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/cadence"
	"proposal-core/pkg/flow/client"
	"proposal-core/pkg/flow/scripts"
	"proposal-core/pkg/logger"
	"proposal-core/pkg/monitor"
)

const (
	minSummaryLength = 230
	maxSummaryLength = 240
	summaryFiller    = " Environmental impact assessment indicates significant changes."

	endDateBuffer     = time.Hour
	defaultVoting     = 30 * 24 * time.Hour
	notifyTimeout     = 10 * time.Second
	endDateLayout     = "January 2, 2006"
	isoDateLayout     = "2006-01-02"
	defaultMinBalance = "0.001"
)

// Summarizer 生成上链用的简短中性摘要
type Summarizer interface {
	Summarize(ctx context.Context, draft model.ProposalDraft) (string, error)
}

// DescriptionSummarizer 直接使用草稿自带的描述
type DescriptionSummarizer struct{}

func (DescriptionSummarizer) Summarize(_ context.Context, draft model.ProposalDraft) (string, error) {
	if strings.TrimSpace(draft.Description) == "" {
		return "", errors.New("draft has no description")
	}
	return draft.Description, nil
}

// ProposalService 提案创建流程
type ProposalService struct {
	client     client.Client
	tx         *Transactor
	query      *QueryService
	scripts    *scripts.Renderer
	summarizer Summarizer
	notifier   Notifier
	db         *gorm.DB // 可为空，为空时不落库
	minBalance decimal.Decimal

	now func() time.Time
}

type ProposalServiceDeps struct {
	Client     client.Client
	Transactor *Transactor
	Query      *QueryService
	Scripts    *scripts.Renderer
	Summarizer Summarizer
	Notifier   Notifier
	DB         *gorm.DB
	MinBalance decimal.Decimal
}

func NewProposalService(deps ProposalServiceDeps) *ProposalService {
	s := &ProposalService{
		client:     deps.Client,
		tx:         deps.Transactor,
		query:      deps.Query,
		scripts:    deps.Scripts,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		db:         deps.DB,
		minBalance: deps.MinBalance,
		now:        time.Now,
	}
	if s.summarizer == nil {
		s.summarizer = DescriptionSummarizer{}
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{}
	}
	if s.minBalance.IsZero() {
		s.minBalance = decimal.RequireFromString(defaultMinBalance)
	}
	return s
}

// CreateProposal 单次尝试，不做整体重试；失败返回 *SubmissionError
func (s *ProposalService) CreateProposal(ctx context.Context, draft model.ProposalDraft) (*model.SubmissionResult, error) {
	result, err := s.createProposal(ctx, draft)
	if err != nil {
		monitor.Business.ObserveSubmission(submissionLabel(err))
		return nil, err
	}
	monitor.Business.ObserveSubmission(model.SubmissionSealed)
	return result, nil
}

func (s *ProposalService) createProposal(ctx context.Context, draft model.ProposalDraft) (*model.SubmissionResult, error) {
	// 1. 连通性
	if err := s.client.Ping(ctx); err != nil {
		return nil, newSubmissionError(errno.ErrNotConnected, err)
	}
	// 2. 账户配置
	if !s.tx.Configured() {
		return nil, newSubmissionError(errno.ErrNotConfigured, nil)
	}
	if err := checkMetrics(draft.Metrics); err != nil {
		return nil, newSubmissionError(errno.ErrBuildFailure, err)
	}

	// 3. 截止时间
	now := s.now()
	endDate := NormalizeEndDate(draft.EndDate, now)

	// 4. 余额
	account, err := s.client.GetAccount(ctx, s.tx.Address())
	if err != nil {
		return nil, newSubmissionError(errno.ErrNotConnected, fmt.Errorf("read account: %w", err))
	}
	balance := account.BalanceDecimal()
	balanceFloat, _ := balance.Float64()
	monitor.Business.SetBalance(s.tx.Address().String(), balanceFloat)
	if balance.LessThan(s.minBalance) {
		logger.Warn("[Proposal] 账户余额不足", zap.String("balance", balance.String()), zap.String("min", s.minBalance.String()))
		return nil, newSubmissionError(errno.ErrInsufficientBalance.WithDetail(balance.StringFixed(4)+" FLOW"), nil)
	}

	// 5. 摘要
	summary := s.generateSummary(ctx, draft)

	// 6. 构建参数
	metrics := deriveVegetationLoss(draft.Metrics)
	args, err := s.createArguments(draft, summary, endDate, metrics)
	if err != nil {
		return nil, newSubmissionError(errno.ErrBuildFailure, err)
	}
	script, err := s.scripts.Script(scripts.CreateProposal)
	if err != nil {
		return nil, newSubmissionError(errno.ErrBuildFailure, err)
	}

	record := s.recordPending(ctx, draft, endDate)

	// 7. 提交并等待封存
	outcome, err := s.tx.Execute(ctx, script, args)
	if err != nil {
		s.recordFailure(ctx, record, err)
		return nil, err
	}

	result := &model.SubmissionResult{
		TxID:         outcome.TxID,
		ExplorerURL:  outcome.ExplorerURL,
		Description:  summary,
		EndDate:      endDate.Unix(),
		PollAttempts: outcome.PollAttempts,
	}

	// 8. 合约按计数分配 ID，封存后的计数即新提案 ID
	count, err := s.query.GetTotalProposalCount(ctx)
	if err != nil {
		logger.Warn("[Proposal] 交易已封存但读取提案计数失败", zap.String("tx_id", outcome.TxID), zap.Error(err))
		result.Warning = "proposal created but its id could not be read: " + err.Error()
	} else {
		result.ProposalID = &count
	}

	evt := event.ProposalCreatedEvent{
		ProposalID:  result.ProposalID,
		ParkName:    draft.ParkName,
		ParkID:      draft.ParkID,
		EndDate:     result.EndDate,
		Description: summary,
		TxID:        result.TxID,
		ExplorerURL: result.ExplorerURL,
	}
	s.recordSealed(ctx, record, result, evt)

	logger.Info("[Proposal] 提案创建成功",
		zap.String("park_name", draft.ParkName), zap.String("tx_id", result.TxID), zap.Int64("end_date", result.EndDate))
	return result, nil
}

// GetContractInfo 当前网络与合约信息
func (s *ProposalService) GetContractInfo() model.ContractInfo {
	preset := s.tx.Preset()
	info := model.ContractInfo{
		Network:         preset.Name,
		ContractName:    s.scripts.ContractName(),
		ContractAddress: "0x" + s.scripts.ContractAddress(),
		AccessNode:      preset.AccessNode,
		RestURL:         preset.RestURL,
		ExplorerURL:     preset.ExplorerURL,
		Configured:      s.tx.Configured(),
	}
	if !s.tx.Address().IsEmpty() {
		info.Account = s.tx.Address().String()
	}
	return info
}

func (s *ProposalService) generateSummary(ctx context.Context, draft model.ProposalDraft) string {
	summary, err := s.summarizer.Summarize(ctx, draft)
	if err != nil || strings.TrimSpace(summary) == "" {
		logger.Warn("[Proposal] 摘要生成失败，使用模板摘要", zap.Error(err))
		summary = FallbackSummary(draft)
	}
	return NormalizeSummary(summary)
}

func (s *ProposalService) createArguments(draft model.ProposalDraft, summary string, endDate time.Time, m model.EnvironmentalMetrics) ([][]byte, error) {
	type arg struct {
		value any
		kind  cadence.Kind
	}
	list := []arg{
		{draft.ParkName, cadence.KindString},
		{draft.ParkID, cadence.KindString},
		{summary, cadence.KindString},
		{decimal.NewFromInt(endDate.Unix()), cadence.KindUFix64},
		{m.NDVIBefore, cadence.KindUFix64},
		{m.NDVIAfter, cadence.KindUFix64},
		{m.PM25Before, cadence.KindUFix64},
		{m.PM25After, cadence.KindUFix64},
		{m.PM25IncreasePercent, cadence.KindUFix64},
		{m.VegetationLossPercent, cadence.KindUFix64},
		{draft.Demographics.Children, cadence.KindUInt64},
		{draft.Demographics.Adults, cadence.KindUInt64},
		{draft.Demographics.Seniors, cadence.KindUInt64},
		{draft.Demographics.TotalAffectedPopulation, cadence.KindUInt64},
		{s.tx.Address(), cadence.KindAddress},
	}
	out := make([][]byte, 0, len(list))
	for _, a := range list {
		b, err := cadence.EncodeArgument(a.value, a.kind)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *ProposalService) recordPending(ctx context.Context, draft model.ProposalDraft, endDate time.Time) *model.ProposalSubmission {
	if s.db == nil {
		return nil
	}
	rec := &model.ProposalSubmission{
		Fingerprint: draft.Fingerprint(),
		ParkID:      draft.ParkID,
		ParkName:    draft.ParkName,
		Status:      model.SubmissionPending,
		EndDate:     endDate.Unix(),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		logger.Error("[Proposal] 写入提交记录失败", zap.Error(err))
		return nil
	}
	return rec
}

func (s *ProposalService) recordFailure(ctx context.Context, rec *model.ProposalSubmission, err error) {
	if rec == nil {
		return
	}
	updates := map[string]any{"status": submissionLabel(err), "error": err.Error()}
	if se := AsSubmissionError(err); se != nil && se.TxID != "" {
		updates["tx_id"] = se.TxID
		updates["explorer_url"] = se.ExplorerURL
	}
	if dbErr := s.db.WithContext(ctx).Model(rec).Updates(updates).Error; dbErr != nil {
		logger.Error("[Proposal] 更新提交记录失败", zap.Uint64("id", rec.ID), zap.Error(dbErr))
	}
}

// recordSealed 更新提交记录；通知支持落本地消息表时与记录更新放在同一事务
// 其余通知器异步调用，失败只记日志
func (s *ProposalService) recordSealed(ctx context.Context, rec *model.ProposalSubmission, result *model.SubmissionResult, evt event.ProposalCreatedEvent) {
	writer, isOutbox := s.notifier.(outboxWriter)

	if rec != nil {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(rec).Updates(map[string]any{
				"status":       model.SubmissionSealed,
				"tx_id":        result.TxID,
				"proposal_id":  result.ProposalID,
				"explorer_url": result.ExplorerURL,
			}).Error; err != nil {
				return err
			}
			if isOutbox {
				return writer.writeOutbox(tx, evt)
			}
			return nil
		})
		if err != nil {
			logger.Error("[Proposal] 更新提交记录失败", zap.Uint64("id", rec.ID), zap.Error(err))
		}
		if isOutbox {
			return
		}
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := s.notifier.NotifyProposalCreated(notifyCtx, evt); err != nil {
			logger.Warn("[Proposal] 通知发送失败", zap.String("tx_id", evt.TxID), zap.Error(err))
		}
	}()
}

// NormalizeEndDate 解析截止日期 ("January 2, 2006" 或 "2006-01-02"，取当天 23:59:59 UTC)
// 无法解析时取 now+30d；距 now 不足 1 小时则改为 now+30d+1h
func NormalizeEndDate(raw string, now time.Time) time.Time {
	now = now.UTC()
	end, ok := parseEndDate(raw)
	if !ok {
		end = now.Add(defaultVoting)
	}
	if !end.After(now.Add(endDateBuffer)) {
		logger.Warn("[Proposal] 截止时间过近，顺延 30 天",
			zap.String("end_date", raw), zap.Time("now", now))
		end = now.Add(defaultVoting + endDateBuffer)
	}
	return end
}

func parseEndDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{endDateLayout, isoDateLayout} {
		if d, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return d.Add(23*time.Hour + 59*time.Minute + 59*time.Second), true
		}
	}
	return time.Time{}, false
}

// FallbackSummary 摘要服务不可用时的模板摘要
func FallbackSummary(draft model.ProposalDraft) string {
	park := draft.ParkName
	if park == "" {
		park = "Park"
	}
	m := draft.Metrics
	return fmt.Sprintf("%s: NDVI %s→%s, PM2.5 +%s%%", park, m.NDVIBefore.String(), m.NDVIAfter.String(), m.PM25IncreasePercent.String())
}

// NormalizeSummary 把摘要长度规整到 230-240 个字符
func NormalizeSummary(summary string) string {
	summary = strings.TrimSpace(summary)
	for utf8.RuneCountInString(summary) < minSummaryLength {
		summary += summaryFiller
	}
	if r := []rune(summary); len(r) > maxSummaryLength {
		summary = string(r[:maxSummaryLength])
	}
	return summary
}

// deriveVegetationLoss 草稿未给出植被损失率时按 NDVI 变化推算
func deriveVegetationLoss(m model.EnvironmentalMetrics) model.EnvironmentalMetrics {
	if m.VegetationLossPercent.IsZero() && !m.NDVIBefore.IsZero() && !m.NDVIAfter.IsZero() {
		loss := m.NDVIBefore.Sub(m.NDVIAfter).Mul(decimal.NewFromInt(100))
		if loss.IsPositive() {
			m.VegetationLossPercent = loss
		}
	}
	return m
}

func checkMetrics(m model.EnvironmentalMetrics) error {
	fields := map[string]decimal.Decimal{
		"ndviBefore":            m.NDVIBefore,
		"ndviAfter":             m.NDVIAfter,
		"pm25Before":            m.PM25Before,
		"pm25After":             m.PM25After,
		"pm25IncreasePercent":   m.PM25IncreasePercent,
		"vegetationLossPercent": m.VegetationLossPercent,
	}
	for name, v := range fields {
		if v.IsNegative() {
			return fmt.Errorf("%s must not be negative: %s", name, v.String())
		}
	}
	return nil
}

func submissionLabel(err error) string {
	switch {
	case errors.Is(err, errno.ErrSealTimeout):
		return model.SubmissionTimeout
	default:
		return model.SubmissionFailed
	}
}
