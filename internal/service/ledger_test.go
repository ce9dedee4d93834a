package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"proposal-core/pkg/config"
	"proposal-core/pkg/crypto_util"
	"proposal-core/pkg/flow/cadence"
	"proposal-core/pkg/flow/client"
	"proposal-core/pkg/flow/scripts"
	"proposal-core/pkg/flow/types"
	"proposal-core/pkg/kms"
)

const (
	testAccountHex  = "f8d6e0586b0a20c7"
	testContractHex = "0000000000000001"
	proposalTypeID  = "A.0x01.CommunityVoting.Proposal"
)

// fakeLedger 模拟接入节点
type fakeLedger struct {
	mu sync.Mutex

	pingErr    error
	account    types.Account
	accountErr error
	sendErr    error
	sent       []*types.SignedTransaction

	// sealAfter 第几次查询时封存，0 表示永不封存
	sealAfter   int
	sealError   string
	expired     bool
	resultErrs  int // 前几次查询直接返回错误
	resultCalls int

	totalCount uint64
	totalErr   error
	activeIDs  []uint64
	activeErr  error
	proposals  map[uint64]cadence.Value
	proposalFn func(id uint64, call int) ([]byte, error)
	scriptCall map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		account: types.Account{
			Address: types.MustHexToAddress(testAccountHex),
			Balance: 100_000_000, // 1 FLOW
			Keys: []types.AccountKey{
				{Index: 0, SequenceNumber: 1, SigningAlgorithm: "ECDSA_P256", HashingAlgorithm: "SHA3_256", Weight: 1000},
			},
		},
		sealAfter:  1,
		proposals:  map[uint64]cadence.Value{},
		scriptCall: map[string]int{},
	}
}

var _ client.Client = (*fakeLedger)(nil)

func (f *fakeLedger) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeLedger) GetAccount(ctx context.Context, addr types.Address) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.account, f.accountErr
}

func (f *fakeLedger) GetLatestBlock(ctx context.Context) (types.BlockRef, error) {
	return types.BlockRef{ID: types.Identifier{0x01, 0x02}, Height: 10}, nil
}

func (f *fakeLedger) SendTransaction(ctx context.Context, tx *types.SignedTransaction) (types.Identifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return types.Identifier{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	// 模拟链上消耗序列号
	f.account.Keys[0].SequenceNumber++
	return types.Identifier{byte(len(f.sent))}, nil
}

func (f *fakeLedger) GetTransactionResult(ctx context.Context, id types.Identifier) (types.TransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultCalls++
	if f.resultCalls <= f.resultErrs {
		return types.TransactionResult{}, errors.New("connection reset")
	}
	if f.expired {
		return types.TransactionResult{Status: types.TxStatusExpired}, nil
	}
	if f.sealAfter > 0 && f.resultCalls >= f.sealAfter {
		return types.TransactionResult{Status: types.TxStatusSealed, ErrorMessage: f.sealError}, nil
	}
	return types.TransactionResult{Status: types.TxStatusPending}, nil
}

func (f *fakeLedger) ExecuteScript(ctx context.Context, script []byte, args [][]byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case bytes.Contains(script, []byte("getTotalProposals")):
		f.scriptCall["total"]++
		if f.totalErr != nil {
			return nil, f.totalErr
		}
		return cadence.Encode(cadence.UInt64(f.totalCount))
	case bytes.Contains(script, []byte("getAllActiveProposals")):
		f.scriptCall["active"]++
		if f.activeErr != nil {
			return nil, f.activeErr
		}
		arr := cadence.Array{}
		for _, id := range f.activeIDs {
			arr = append(arr, cadence.UInt64(id))
		}
		return cadence.Encode(arr)
	case bytes.Contains(script, []byte("getProposal(")):
		f.scriptCall["proposal"]++
		id := decodeIDArg(args)
		if f.proposalFn != nil {
			return f.proposalFn(id, f.scriptCall["proposal"])
		}
		v, ok := f.proposals[id]
		if !ok {
			return cadence.Encode(cadence.Optional{})
		}
		return cadence.Encode(cadence.Optional{Value: v})
	}
	return nil, errors.New("unexpected script")
}

func (f *fakeLedger) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func decodeIDArg(args [][]byte) uint64 {
	if len(args) == 0 {
		return 0
	}
	v, err := cadence.Decode(args[0])
	if err != nil {
		return 0
	}
	id, _ := cadence.AsUInt64(v)
	return id
}

// proposalValue 模拟合约返回的 Proposal，id 字段被类型标识占用
func proposalValue(parkName string, endDate int64) cadence.Value {
	return cadence.NewStruct(proposalTypeID,
		cadence.Field{Name: "id", Value: cadence.String(proposalTypeID)},
		cadence.Field{Name: "parkName", Value: cadence.String(parkName)},
		cadence.Field{Name: "parkId", Value: cadence.String("rock-creek")},
		cadence.Field{Name: "yesVotes", Value: cadence.UInt64(3)},
		cadence.Field{Name: "noVotes", Value: cadence.UInt64(1)},
		cadence.Field{Name: "endDate", Value: cadence.UFix64(uint64(endDate) * 100_000_000)},
		cadence.Field{Name: "creator", Value: cadence.Address(types.MustHexToAddress(testAccountHex))},
		cadence.Field{Name: "status", Value: cadence.NewEnum("A.0x01.CommunityVoting.ProposalStatus", 0)},
		cadence.Field{Name: "environmentalData", Value: cadence.NewStruct("A.0x01.CommunityVoting.EnvironmentalData",
			cadence.Field{Name: "ndviBefore", Value: cadence.UFix64(70_000_000)},
			cadence.Field{Name: "ndviAfter", Value: cadence.UFix64(20_000_000)},
		)},
		cadence.Field{Name: "demographics", Value: cadence.NewStruct("A.0x01.CommunityVoting.Demographics",
			cadence.Field{Name: "children", Value: cadence.UInt64(1200)},
		)},
	)
}

// sleepRecorder 记录等待时长而不真正睡眠
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	return nil
}

func testFlowConfig() config.FlowConfig {
	return config.FlowConfig{
		Network:          config.NetworkEmulator,
		Address:          testAccountHex,
		ContractName:     "CommunityVoting",
		ContractAddress:  testContractHex,
		GasLimit:         9999,
		PollInterval:     2 * time.Second,
		MaxPollAttempts:  30,
		MinBalance:       "0.001",
		SerializeWriters: true,
	}
}

func testSigner(t *testing.T) kms.Signer {
	t.Helper()
	km := kms.NewLocalKMS()
	keyID, err := km.CreateKey(crypto_util.ECDSA_P256, crypto_util.SHA3_256)
	require.NoError(t, err)
	signer, err := km.Signer(keyID)
	require.NoError(t, err)
	return signer
}

func newTestTransactor(t *testing.T, ledger *fakeLedger, signer kms.Signer) (*Transactor, *sleepRecorder) {
	t.Helper()
	cfg := testFlowConfig()
	preset, err := cfg.Preset()
	require.NoError(t, err)
	tx, err := NewTransactor(ledger, signer, cfg, preset)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	tx.sleep = rec.sleep
	return tx, rec
}

func testRenderer(t *testing.T) *scripts.Renderer {
	t.Helper()
	r, err := scripts.NewRenderer("CommunityVoting", testContractHex)
	require.NoError(t, err)
	return r
}

func newTestQuery(t *testing.T, ledger *fakeLedger) (*QueryService, *sleepRecorder) {
	t.Helper()
	q := NewQueryService(ledger, testRenderer(t), nil, 0)
	rec := &sleepRecorder{}
	q.sleep = rec.sleep
	return q, rec
}

// decodeArg 解码已发送交易的第 i 个参数
func decodeArg(t *testing.T, tx *types.SignedTransaction, i int) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(tx.Arguments[i], &out))
	return out
}
