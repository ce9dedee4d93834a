package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"proposal-core/pkg/crypto_util"
)

// EnvironmentalMetrics 提案附带的环境指标，均为非负数
type EnvironmentalMetrics struct {
	NDVIBefore            decimal.Decimal `json:"ndviBefore"`
	NDVIAfter             decimal.Decimal `json:"ndviAfter"`
	PM25Before            decimal.Decimal `json:"pm25Before"`
	PM25After             decimal.Decimal `json:"pm25After"`
	PM25IncreasePercent   decimal.Decimal `json:"pm25IncreasePercent"`
	VegetationLossPercent decimal.Decimal `json:"vegetationLossPercent"`
}

// Demographics 受影响人口
type Demographics struct {
	Children                uint64 `json:"children"`
	Adults                  uint64 `json:"adults"`
	Seniors                 uint64 `json:"seniors"`
	TotalAffectedPopulation uint64 `json:"totalAffectedPopulation"`
}

// ProposalDraft 上游分析结果整理出的提案草稿，交给核心后不再修改
type ProposalDraft struct {
	ParkID       string               `json:"parkId"`
	ParkName     string               `json:"parkName"`
	Description  string               `json:"description"` // 完整分析摘要，上链前会被压缩
	EndDate      string               `json:"endDate"`     // "January 2, 2006" 或 "2006-01-02"
	Metrics      EnvironmentalMetrics `json:"environmentalData"`
	Demographics Demographics         `json:"demographics"`
}

// Fingerprint 草稿内容指纹 (blake3)，用于关联提交记录
func (d ProposalDraft) Fingerprint() string {
	b, _ := json.Marshal(d)
	return crypto_util.CalculateBlake3(b)
}

// ProposalStatus 链上提案状态
type ProposalStatus string

const (
	ProposalActive   ProposalStatus = "active"
	ProposalPassed   ProposalStatus = "passed"
	ProposalRejected ProposalStatus = "rejected"
)

// ProposalStatusFromRaw 合约枚举 0 Active / 1 Passed / 2 Rejected，未知值按 active 处理
func ProposalStatusFromRaw(raw uint8) ProposalStatus {
	switch raw {
	case 1:
		return ProposalPassed
	case 2:
		return ProposalRejected
	}
	return ProposalActive
}

// ProposalRecord 从链上解码得到的提案
// ID 由调用方提供: 链上结构体自身的 id 字段不可信
type ProposalRecord struct {
	ID                uint64               `json:"id"`
	ParkName          string               `json:"parkName"`
	ParkID            string               `json:"parkId"`
	Description       string               `json:"description"`
	YesVotes          uint64               `json:"yesVotes"`
	NoVotes           uint64               `json:"noVotes"`
	EndDate           int64                `json:"endDate"` // epoch 秒
	Creator           string               `json:"creator"`
	Status            ProposalStatus       `json:"status"`
	EnvironmentalData EnvironmentalMetrics `json:"environmentalData"`
	Demographics      Demographics         `json:"demographics"`
}

// SubmissionResult 提交成功的结果
// ProposalID 为空表示交易已封存但读取提案计数失败
type SubmissionResult struct {
	TxID         string  `json:"txId"`
	ProposalID   *uint64 `json:"proposalId,omitempty"`
	ExplorerURL  string  `json:"explorerUrl"`
	Description  string  `json:"description"` // 实际上链的摘要
	EndDate      int64   `json:"endDate"`
	PollAttempts int     `json:"pollAttempts"`
	Warning      string  `json:"warning,omitempty"`
}

// SweepOutcome 单个提案的关闭结果
type SweepOutcome string

const (
	SweepClosed  SweepOutcome = "closed"
	SweepSkipped SweepOutcome = "skipped"
	SweepFailed  SweepOutcome = "failed"
)

// SweepItem 单个提案的处理明细
type SweepItem struct {
	ProposalID uint64       `json:"proposalId"`
	Outcome    SweepOutcome `json:"outcome"`
	TxID       string       `json:"txId,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// SweepReport 一次批量关闭的汇总
type SweepReport struct {
	RunID   string      `json:"runId"`
	Closed  int         `json:"closed"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	Items   []SweepItem `json:"items"`
}

// Add 记录一条明细并累加计数
func (r *SweepReport) Add(item SweepItem) {
	switch item.Outcome {
	case SweepClosed:
		r.Closed++
	case SweepSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// ContractInfo 当前连接的网络与合约
type ContractInfo struct {
	Network         string `json:"network"`
	ContractName    string `json:"contractName"`
	ContractAddress string `json:"contractAddress"`
	AccessNode      string `json:"accessNode"`
	RestURL         string `json:"restUrl"`
	ExplorerURL     string `json:"explorerUrl"`
	Account         string `json:"account,omitempty"`
	Configured      bool   `json:"configured"`
}
