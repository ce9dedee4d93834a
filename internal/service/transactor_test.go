package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/txbuilder"
	"proposal-core/pkg/flow/types"
)

var testScript = []byte("transaction { execute {} }")

func TestExecute_SealsAfterNPolls(t *testing.T) {
	for _, n := range []int{1, 5, 30} {
		ledger := newFakeLedger()
		ledger.sealAfter = n
		tx, rec := newTestTransactor(t, ledger, testSigner(t))

		outcome, err := tx.Execute(context.Background(), testScript, nil)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, types.TxStatusSealed, outcome.Status)
		assert.Equal(t, n, outcome.PollAttempts)
		assert.Equal(t, n, ledger.resultCalls)

		// 每次查询前都等待 2s
		require.Len(t, rec.sleeps, n)
		for _, d := range rec.sleeps {
			assert.GreaterOrEqual(t, d, 2*time.Second)
		}
		assert.Contains(t, outcome.ExplorerURL, "/transaction/"+outcome.TxID)
	}
}

func TestExecute_Timeout(t *testing.T) {
	ledger := newFakeLedger()
	ledger.sealAfter = 31
	tx, rec := newTestTransactor(t, ledger, testSigner(t))

	outcome, err := tx.Execute(context.Background(), testScript, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrSealTimeout))
	assert.Equal(t, 30, ledger.resultCalls)
	assert.Len(t, rec.sleeps, 30)

	se := AsSubmissionError(err)
	require.NotNil(t, se)
	assert.Equal(t, outcome.TxID, se.TxID)
	assert.NotEmpty(t, se.TxID)
	assert.Equal(t, "http://localhost:8701/transaction/"+se.TxID, se.ExplorerURL)
	assert.Equal(t, 1, ledger.sentCount(), "超时不重新提交")
}

func TestExecute_SealedWithError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.sealAfter = 2
	ledger.sealError = "[Error Code: 1101] cadence runtime error: proposal already closed"
	tx, _ := newTestTransactor(t, ledger, testSigner(t))

	outcome, err := tx.Execute(context.Background(), testScript, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrSealFailure))
	assert.Contains(t, err.Error(), "proposal already closed")
	assert.Equal(t, ledger.sealError, outcome.ErrorMessage)

	se := AsSubmissionError(err)
	require.NotNil(t, se)
	assert.NotEmpty(t, se.TxID)

	code, _ := errno.Decode(err)
	assert.Equal(t, errno.ErrSealFailure.Code, code)
}

func TestExecute_Expired(t *testing.T) {
	ledger := newFakeLedger()
	ledger.expired = true
	tx, _ := newTestTransactor(t, ledger, testSigner(t))

	_, err := tx.Execute(context.Background(), testScript, nil)
	assert.True(t, errors.Is(err, errno.ErrSealFailure))
	assert.Equal(t, 1, ledger.resultCalls)
}

func TestExecute_PollErrorsCountAsAttempts(t *testing.T) {
	ledger := newFakeLedger()
	ledger.resultErrs = 2
	ledger.sealAfter = 3
	tx, _ := newTestTransactor(t, ledger, testSigner(t))

	outcome, err := tx.Execute(context.Background(), testScript, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.PollAttempts)
}

func TestExecute_SubmitFailureNotRetried(t *testing.T) {
	ledger := newFakeLedger()
	ledger.sendErr = errors.New("invalid proposal key: sequence number mismatch")
	tx, rec := newTestTransactor(t, ledger, testSigner(t))

	_, err := tx.Execute(context.Background(), testScript, nil)
	assert.True(t, errors.Is(err, errno.ErrSubmitFailure))
	assert.Empty(t, rec.sleeps)
	assert.Equal(t, 0, ledger.resultCalls)
}

func TestExecute_NotConfigured(t *testing.T) {
	ledger := newFakeLedger()
	tx, _ := newTestTransactor(t, ledger, nil)

	assert.False(t, tx.Configured())
	_, err := tx.Execute(context.Background(), testScript, nil)
	assert.True(t, errors.Is(err, errno.ErrNotConfigured))
}

func TestExecute_ReadsSequenceNumberEveryTime(t *testing.T) {
	ledger := newFakeLedger()
	signer := testSigner(t)
	tx, _ := newTestTransactor(t, ledger, signer)

	for i := 0; i < 3; i++ {
		_, err := tx.Execute(context.Background(), testScript, nil)
		require.NoError(t, err)
		ledger.resultCalls = 0
	}

	require.Len(t, ledger.sent, 3)
	for i, sent := range ledger.sent {
		assert.Equal(t, uint64(i+1), sent.ProposalKey.SequenceNumber)
		assert.True(t, txbuilder.VerifyEnvelope(sent, signer.PublicKey(), signer.SignatureAlgorithm(), signer.HashAlgorithm()))
	}
}

func TestExecute_AccountReadFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.accountErr = errors.New("503 service unavailable")
	tx, _ := newTestTransactor(t, ledger, testSigner(t))

	_, err := tx.Execute(context.Background(), testScript, nil)
	assert.True(t, errors.Is(err, errno.ErrBuildFailure))
	assert.Equal(t, 0, ledger.sentCount())
}

func TestExecute_CancelAbandonsPolling(t *testing.T) {
	ledger := newFakeLedger()
	ledger.sealAfter = 0
	tx, _ := newTestTransactor(t, ledger, testSigner(t))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	tx.sleep = func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return ctx.Err()
	}

	_, err := tx.Execute(ctx, testScript, nil)
	assert.True(t, errors.Is(err, errno.ErrSealTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, ledger.resultCalls)
	assert.Equal(t, 1, ledger.sentCount(), "交易已提交，放弃轮询不会撤回")
}
