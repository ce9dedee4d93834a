package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"proposal-core/internal/model"
	"proposal-core/pkg/cache"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/cadence"
	"proposal-core/pkg/flow/client"
	"proposal-core/pkg/flow/scripts"
	"proposal-core/pkg/logger"
)

const (
	rateLimitAttempts = 3
	rateLimitBackoff  = 2 * time.Second
)

// QueryService 只读查询，读失败一律按"无数据"处理
type QueryService struct {
	client   client.Client
	scripts  *scripts.Renderer
	cache    cache.Cache // 可为空
	cacheTTL time.Duration

	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewQueryService(c client.Client, r *scripts.Renderer, ch cache.Cache, cacheTTL time.Duration) *QueryService {
	return &QueryService{
		client:   c,
		scripts:  r,
		cache:    ch,
		cacheTTL: cacheTTL,
		backoff:  rateLimitBackoff,
		sleep:    sleepContext,
	}
}

// GetProposal 读取单个提案，不存在或读取失败返回 nil
func (s *QueryService) GetProposal(ctx context.Context, id uint64) *model.ProposalRecord {
	key := cache.ProposalKey(id)
	if s.cache != nil {
		var cached model.ProposalRecord
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached
		}
	}

	rec, err := s.FetchProposal(ctx, id)
	if err != nil {
		if errors.Is(err, errno.ErrProposalNotFound) {
			logger.Info("[Query] 提案不存在", zap.Uint64("proposal_id", id))
		} else {
			logger.Error("[Query] 读取提案失败", zap.Uint64("proposal_id", id), zap.Error(err))
		}
		return nil
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, rec, s.cacheTTL); err != nil {
			logger.Warn("[Query] 写缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return rec
}

// FetchProposal 直接读链，不走缓存；错误原样返回给调用方 (批量关闭需要区分失败)
func (s *QueryService) FetchProposal(ctx context.Context, id uint64) (*model.ProposalRecord, error) {
	arg, err := cadence.EncodeArgument(id, cadence.KindUInt64)
	if err != nil {
		return nil, err
	}
	v, err := s.execute(ctx, scripts.GetProposal, [][]byte{arg})
	if err != nil {
		return nil, err
	}
	rec, ok := DecodeProposal(v, id)
	if !ok {
		return nil, errno.ErrProposalNotFound
	}
	return rec, nil
}

// GetAllActiveProposalIDs 任何错误都返回空列表
func (s *QueryService) GetAllActiveProposalIDs(ctx context.Context) []uint64 {
	v, err := s.execute(ctx, scripts.GetActiveProposals, nil)
	if err != nil {
		logger.Error("[Query] 读取活跃提案列表失败", zap.Error(err))
		return []uint64{}
	}
	ids, ok := cadence.AsUInt64Slice(v)
	if !ok {
		logger.Error("[Query] 活跃提案列表格式异常", zap.String("kind", kindOf(v)))
		return []uint64{}
	}
	return ids
}

// GetTotalProposalCount 合约的提案计数器，新提案的 ID 即创建后的计数
func (s *QueryService) GetTotalProposalCount(ctx context.Context) (uint64, error) {
	v, err := s.execute(ctx, scripts.GetTotalProposals, nil)
	if err != nil {
		return 0, err
	}
	n, ok := cadence.AsUInt64(v)
	if !ok {
		return 0, errno.ErrDecodeFailure.WithDetail("proposal counter is " + kindOf(v))
	}
	return n, nil
}

// Invalidate 提案状态变更后清掉缓存
func (s *QueryService) Invalidate(ctx context.Context, id uint64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, cache.ProposalKey(id))
}

// execute 执行只读脚本，仅在被限流时退避重试 (2s, 4s)
func (s *QueryService) execute(ctx context.Context, name scripts.Name, args [][]byte) (cadence.Value, error) {
	script, err := s.scripts.Script(name)
	if err != nil {
		return nil, err
	}

	wait := s.backoff
	for attempt := 1; ; attempt++ {
		raw, err := s.client.ExecuteScript(ctx, script, args)
		if err == nil {
			return cadence.Decode(raw)
		}
		if !errors.Is(err, errno.ErrRateLimited) || attempt >= rateLimitAttempts {
			return nil, err
		}
		logger.Warn("[Query] 被接入节点限流，稍后重试",
			zap.String("script", string(name)), zap.Int("attempt", attempt), zap.Duration("wait", wait))
		if err := s.sleep(ctx, wait); err != nil {
			return nil, err
		}
		wait *= 2
	}
}

// DecodeProposal 把链上 Proposal 结构体转成 ProposalRecord
// 结构体自带的 id 字段可能被类型标识占用，一律使用调用方传入的 id
func DecodeProposal(v cadence.Value, id uint64) (*model.ProposalRecord, bool) {
	st, ok := cadence.AsStruct(v)
	if !ok {
		return nil, false
	}

	rec := &model.ProposalRecord{ID: id}
	rec.ParkName, _ = st.StringField("parkName")
	rec.ParkID, _ = st.StringField("parkId")
	rec.Description, _ = st.StringField("description")
	rec.YesVotes, _ = st.UInt64Field("yesVotes")
	rec.NoVotes, _ = st.UInt64Field("noVotes")

	end, _ := st.UFix64Field("endDate")
	rec.EndDate = end.IntPart()

	if creator, ok := st.AddressField("creator"); ok {
		rec.Creator = creator.String()
	}
	raw, _ := st.EnumRawField("status")
	rec.Status = model.ProposalStatusFromRaw(raw)

	env, _ := st.StructField("environmentalData")
	rec.EnvironmentalData.NDVIBefore, _ = env.UFix64Field("ndviBefore")
	rec.EnvironmentalData.NDVIAfter, _ = env.UFix64Field("ndviAfter")
	rec.EnvironmentalData.PM25Before, _ = env.UFix64Field("pm25Before")
	rec.EnvironmentalData.PM25After, _ = env.UFix64Field("pm25After")
	rec.EnvironmentalData.PM25IncreasePercent, _ = env.UFix64Field("pm25IncreasePercent")
	rec.EnvironmentalData.VegetationLossPercent, _ = env.UFix64Field("vegetationLossPercent")

	demo, _ := st.StructField("demographics")
	rec.Demographics.Children, _ = demo.UInt64Field("children")
	rec.Demographics.Adults, _ = demo.UInt64Field("adults")
	rec.Demographics.Seniors, _ = demo.UInt64Field("seniors")
	rec.Demographics.TotalAffectedPopulation, _ = demo.UInt64Field("totalAffectedPopulation")

	return rec, true
}

func kindOf(v cadence.Value) string {
	if v == nil {
		return "none"
	}
	return string(v.Kind())
}
