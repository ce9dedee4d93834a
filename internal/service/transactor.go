package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"proposal-core/pkg/config"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/client"
	"proposal-core/pkg/flow/txbuilder"
	"proposal-core/pkg/flow/types"
	"proposal-core/pkg/kms"
	"proposal-core/pkg/logger"
	"proposal-core/pkg/monitor"
	"proposal-core/pkg/utils/lock"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 30
	defaultGasLimit        = 9999
)

// Transactor 负责一笔写链交易的完整流程: 读账户 -> 构建 -> 签名 -> 提交 -> 轮询封存
// 提案创建和批量关闭共用同一个 Transactor
type Transactor struct {
	client      client.Client
	signer      kms.Signer
	address     types.Address
	keyIndex    uint32
	gasLimit    uint64
	interval    time.Duration
	maxAttempts int
	preset      config.NetworkPreset
	writers     *lock.KeyedMutex // nil 表示同账户写操作不串行

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTransactor signer 为空或未配置地址时仍可创建，写操作会返回 NotConfigured
func NewTransactor(c client.Client, signer kms.Signer, cfg config.FlowConfig, preset config.NetworkPreset) (*Transactor, error) {
	t := &Transactor{
		client:      c,
		signer:      signer,
		keyIndex:    cfg.KeyIndex,
		gasLimit:    cfg.GasLimit,
		interval:    cfg.PollInterval,
		maxAttempts: cfg.MaxPollAttempts,
		preset:      preset,
		now:         time.Now,
		sleep:       sleepContext,
	}
	if cfg.Address != "" {
		addr, err := types.HexToAddress(cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid flow.address: %w", err)
		}
		t.address = addr
	}
	if t.gasLimit == 0 {
		t.gasLimit = defaultGasLimit
	}
	if t.interval <= 0 {
		t.interval = defaultPollInterval
	}
	if t.maxAttempts <= 0 {
		t.maxAttempts = defaultMaxPollAttempts
	}
	if cfg.SerializeWriters {
		t.writers = lock.NewKeyedMutex()
	}
	return t, nil
}

// Configured 地址和签名器都就绪才允许写链
func (t *Transactor) Configured() bool {
	return t.signer != nil && !t.address.IsEmpty()
}

func (t *Transactor) Address() types.Address {
	return t.address
}

func (t *Transactor) Preset() config.NetworkPreset {
	return t.preset
}

// Execute 提交一笔交易并等待封存
// 每次调用都重新读取账户序列号，失败不重试；调用方取消 ctx 只会放弃轮询，交易仍可能上链
func (t *Transactor) Execute(ctx context.Context, script []byte, args [][]byte) (types.TransactionOutcome, error) {
	if !t.Configured() {
		return types.TransactionOutcome{}, newSubmissionError(errno.ErrNotConfigured, nil)
	}

	if t.writers != nil {
		unlock, err := t.writers.Lock(ctx, t.address.Hex())
		if err != nil {
			return types.TransactionOutcome{}, newSubmissionError(errno.ErrSubmitFailure, err)
		}
		defer unlock()
	}

	signed, err := t.buildAndSign(ctx, script, args)
	if err != nil {
		return types.TransactionOutcome{}, err
	}

	id, err := t.client.SendTransaction(ctx, signed)
	if err != nil {
		logger.Error("[Ledger] 交易提交失败", zap.Error(err))
		return types.TransactionOutcome{}, newSubmissionError(errno.ErrSubmitFailure, err)
	}
	if local, err := txbuilder.ID(signed); err == nil && local != id {
		logger.Warn("[Ledger] 节点返回的交易 ID 与本地计算不一致",
			zap.String("node", id.Hex()), zap.String("local", local.Hex()))
	}

	txID := id.Hex()
	logger.Info("[Ledger] 交易已提交，等待封存", zap.String("tx_id", txID))
	return t.waitForSeal(ctx, id)
}

func (t *Transactor) buildAndSign(ctx context.Context, script []byte, args [][]byte) (*types.SignedTransaction, error) {
	account, err := t.client.GetAccount(ctx, t.address)
	if err != nil {
		return nil, newSubmissionError(errno.ErrBuildFailure, fmt.Errorf("read account: %w", err))
	}
	t.checkKey(account)

	ref, err := t.client.GetLatestBlock(ctx)
	if err != nil {
		return nil, newSubmissionError(errno.ErrBuildFailure, fmt.Errorf("read latest block: %w", err))
	}

	unsigned, err := txbuilder.Build(script, args, account, t.keyIndex, ref, t.gasLimit)
	if err != nil {
		return nil, newSubmissionError(errno.ErrBuildFailure, err)
	}
	signed, err := txbuilder.Sign(unsigned, t.signer)
	if err != nil {
		return nil, newSubmissionError(errno.ErrSigningError, err)
	}
	return signed, nil
}

// checkKey 签名器公钥与链上账户密钥不一致时交易必然被拒，这里只提前告警
func (t *Transactor) checkKey(account types.Account) {
	key, ok := account.Key(t.keyIndex)
	if !ok {
		return
	}
	onChain, err := hex.DecodeString(strings.TrimPrefix(key.PublicKey, "0x"))
	if err != nil || !bytes.Equal(onChain, t.signer.PublicKey()) {
		logger.Warn("[Ledger] 签名公钥与账户密钥不匹配",
			zap.String("address", t.address.String()), zap.Uint32("key_index", t.keyIndex))
	}
}

// waitForSeal 每隔 interval 查询一次结果，最多 maxAttempts 次
// 查询出错计入次数并继续轮询
func (t *Transactor) waitForSeal(ctx context.Context, id types.Identifier) (types.TransactionOutcome, error) {
	txID := id.Hex()
	outcome := types.TransactionOutcome{
		TxID:        txID,
		Status:      types.TxStatusPending,
		ExplorerURL: t.preset.TransactionURL(txID),
	}
	fail := func(kind errno.Errno, err error) (types.TransactionOutcome, error) {
		return outcome, &SubmissionError{Kind: kind, TxID: txID, ExplorerURL: outcome.ExplorerURL, Err: err}
	}

	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		if err := t.sleep(ctx, t.interval); err != nil {
			logger.Warn("[Ledger] 放弃轮询，交易可能仍会封存", zap.String("tx_id", txID), zap.Error(err))
			return fail(errno.ErrSealTimeout, err)
		}
		outcome.PollAttempts = attempt

		result, err := t.client.GetTransactionResult(ctx, id)
		if err != nil {
			logger.Warn("[Ledger] 查询交易结果失败", zap.String("tx_id", txID), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		outcome.Status = result.Status

		switch result.Status {
		case types.TxStatusSealed:
			monitor.Business.ObservePollAttempts(attempt)
			if result.ErrorMessage != "" {
				outcome.ErrorMessage = result.ErrorMessage
				logger.Error("[Ledger] 交易执行失败", zap.String("tx_id", txID), zap.String("error", result.ErrorMessage))
				return fail(errno.ErrSealFailure, errors.New(result.ErrorMessage))
			}
			logger.Info("[Ledger] 交易已封存", zap.String("tx_id", txID), zap.Int("attempts", attempt))
			return outcome, nil
		case types.TxStatusExpired:
			monitor.Business.ObservePollAttempts(attempt)
			outcome.ErrorMessage = "transaction expired"
			return fail(errno.ErrSealFailure, errors.New(outcome.ErrorMessage))
		}
	}

	monitor.Business.ObservePollAttempts(t.maxAttempts)
	logger.Warn("[Ledger] 等待封存超时", zap.String("tx_id", txID), zap.String("explorer", outcome.ExplorerURL))
	return fail(errno.ErrSealTimeout, nil)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
