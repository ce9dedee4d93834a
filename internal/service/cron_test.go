package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/internal/testutil"
	"proposal-core/pkg/utils/lock"
)

func TestCronSweep_SkipsWhenLockHeld(t *testing.T) {
	rdb, _ := testutil.NewTestRedis(t)
	locker := lock.NewRedisLock(rdb)

	ledger := newFakeLedger()
	ledger.activeIDs = []uint64{1}
	ledger.proposals[1] = proposalValue("Expired Park", fixedNow.Add(-time.Hour).Unix())
	sweeper := newTestSweeper(t, ledger, nil)
	cs := NewCronService(locker, sweeper, "@every 10m", time.Minute)

	// 另一个实例持有锁
	_, ok, err := locker.Acquire(context.Background(), sweepLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	cs.SweepProposals()
	assert.Equal(t, 0, ledger.scriptCall["active"], "拿不到锁不应读取链上数据")
	assert.Equal(t, 0, ledger.sentCount())
}

func TestCronSweep_RunsAndReleasesLock(t *testing.T) {
	rdb, _ := testutil.NewTestRedis(t)
	locker := lock.NewRedisLock(rdb)

	ledger := newFakeLedger()
	ledger.activeIDs = []uint64{1}
	ledger.proposals[1] = proposalValue("Expired Park", fixedNow.Add(-time.Hour).Unix())
	sweeper := newTestSweeper(t, ledger, nil)
	cs := NewCronService(locker, sweeper, "@every 10m", time.Minute)

	cs.SweepProposals()
	assert.Equal(t, 1, ledger.sentCount())

	_, ok, err := locker.Acquire(context.Background(), sweepLockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "执行完成后锁应已释放")
}

func TestCronService_InvalidSpec(t *testing.T) {
	sweeper := newTestSweeper(t, newFakeLedger(), nil)
	cs := NewCronService(nil, sweeper, "not a schedule", time.Minute)
	assert.Error(t, cs.Start())
}

func TestCronSweep_ZeroLockTTLUsesDefault(t *testing.T) {
	ledger := newFakeLedger()
	ledger.activeIDs = []uint64{1}
	ledger.proposals[1] = proposalValue("Expired Park", fixedNow.Add(-time.Hour).Unix())
	sweeper := newTestSweeper(t, ledger, nil)
	cs := NewCronService(nil, sweeper, "@every 10m", 0)

	assert.Equal(t, defaultSweepLockTTL, cs.lockTTL)
	cs.SweepProposals()
	assert.Equal(t, 1, ledger.sentCount(), "未配置 TTL 时仍应正常执行")
}
