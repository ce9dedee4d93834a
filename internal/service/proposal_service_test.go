package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"proposal-core/internal/event"
	"proposal-core/internal/model"
	"proposal-core/internal/testutil"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/kms"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func rockCreekDraft(endDate string) model.ProposalDraft {
	return model.ProposalDraft{
		ParkID:      "rock-creek",
		ParkName:    "Rock Creek Park",
		Description: "Converting part of Rock Creek Park would reduce vegetation cover and raise fine particulate levels for nearby residents.",
		EndDate:     endDate,
		Metrics: model.EnvironmentalMetrics{
			NDVIBefore:            decimal.RequireFromString("0.70"),
			NDVIAfter:             decimal.RequireFromString("0.20"),
			PM25Before:            decimal.RequireFromString("8.0"),
			PM25After:             decimal.RequireFromString("14.0"),
			PM25IncreasePercent:   decimal.RequireFromString("75.0"),
			VegetationLossPercent: decimal.RequireFromString("50.0"),
		},
		Demographics: model.Demographics{Children: 1200, Adults: 3000, Seniors: 800, TotalAffectedPopulation: 5000},
	}
}

type stubSummarizer struct {
	out string
	err error
}

func (s stubSummarizer) Summarize(context.Context, model.ProposalDraft) (string, error) {
	return s.out, s.err
}

type chanNotifier struct {
	ch chan event.ProposalCreatedEvent
}

func (n chanNotifier) NotifyProposalCreated(_ context.Context, evt event.ProposalCreatedEvent) error {
	n.ch <- evt
	return errors.New("smtp down")
}

type proposalFixture struct {
	ledger *fakeLedger
	svc    *ProposalService
}

func newProposalFixture(t *testing.T, signer kms.Signer, db *gorm.DB, notifier Notifier, summarizer Summarizer) *proposalFixture {
	t.Helper()
	ledger := newFakeLedger()
	ledger.totalCount = 5
	tx, _ := newTestTransactor(t, ledger, signer)
	query, _ := newTestQuery(t, ledger)

	svc := NewProposalService(ProposalServiceDeps{
		Client:     ledger,
		Transactor: tx,
		Query:      query,
		Scripts:    testRenderer(t),
		Summarizer: summarizer,
		Notifier:   notifier,
		DB:         db,
		MinBalance: decimal.RequireFromString("0.001"),
	})
	svc.now = func() time.Time { return fixedNow }
	return &proposalFixture{ledger: ledger, svc: svc}
}

func TestNormalizeEndDate(t *testing.T) {
	now := fixedNow
	fallback := now.Add(30*24*time.Hour + time.Hour)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"long format", "December 31, 2025", time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)},
		{"iso format", "2025-07-04", time.Date(2025, 7, 4, 23, 59, 59, 0, time.UTC)},
		{"yesterday", "May 31, 2025", fallback},
		{"later today", "2025-06-01", time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC)},
		{"unparseable", "next spring", now.Add(30 * 24 * time.Hour)},
		{"empty", "", now.Add(30 * 24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEndDate(tt.in, now))
		})
	}

	// 截止时间在 1 小时缓冲内
	late := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, late.Add(30*24*time.Hour+time.Hour), NormalizeEndDate("2025-06-01", late))
}

func TestNormalizeEndDate_FutureIsIdentity(t *testing.T) {
	for days := 1; days < 400; days += 7 {
		d := fixedNow.AddDate(0, 0, days)
		got := NormalizeEndDate(d.Format("2006-01-02"), fixedNow)
		assert.Equal(t, time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC), got)
	}
	for days := 1; days < 400; days += 7 {
		d := fixedNow.AddDate(0, 0, -days)
		got := NormalizeEndDate(d.Format("January 2, 2006"), fixedNow)
		assert.Equal(t, fixedNow.Add(30*24*time.Hour+time.Hour), got)
	}
}

func TestNormalizeSummary(t *testing.T) {
	inputs := []string{
		"",
		"short",
		strings.Repeat("a", 229),
		strings.Repeat("b", 230),
		strings.Repeat("c", 240),
		strings.Repeat("d", 241),
		strings.Repeat("e", 1000),
		strings.Repeat("植被", 150),
		"Rock Creek Park: NDVI 0.7→0.2, PM2.5 +75%",
	}
	for _, in := range inputs {
		out := NormalizeSummary(in)
		n := utf8.RuneCountInString(out)
		assert.GreaterOrEqual(t, n, 230, "input len %d", len(in))
		assert.LessOrEqual(t, n, 240, "input len %d", len(in))
	}

	exact := strings.Repeat("b", 235)
	assert.Equal(t, exact, NormalizeSummary(exact), "范围内的摘要保持不变")
}

func TestFallbackSummary(t *testing.T) {
	got := FallbackSummary(rockCreekDraft(""))
	assert.Equal(t, "Rock Creek Park: NDVI 0.7→0.2, PM2.5 +75%", got)
}

func TestCreateProposal_RockCreekInsufficientBalance(t *testing.T) {
	f := newProposalFixture(t, testSigner(t), nil, nil, nil)
	f.ledger.account.Balance = 0

	draft := rockCreekDraft(fixedNow.AddDate(0, 0, -1).Format("January 2, 2006"))
	assert.Equal(t, fixedNow.Add(30*24*time.Hour+time.Hour), NormalizeEndDate(draft.EndDate, fixedNow))

	res, err := f.svc.CreateProposal(context.Background(), draft)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrInsufficientBalance))
	assert.Contains(t, err.Error(), "0.0000 FLOW")
	assert.Equal(t, 0, f.ledger.sentCount())
}

func TestCreateProposal_Success(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := newProposalFixture(t, testSigner(t), db, NewOutboxNotifier(db, ""), stubSummarizer{out: "Rock Creek Park NDVI fell from 0.70 to 0.20 while PM2.5 rose 75%."})

	draft := rockCreekDraft("December 31, 2025")
	res, err := f.svc.CreateProposal(context.Background(), draft)
	require.NoError(t, err)

	require.NotNil(t, res.ProposalID)
	assert.Equal(t, uint64(5), *res.ProposalID)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC).Unix(), res.EndDate)
	assert.Equal(t, "http://localhost:8701/transaction/"+res.TxID, res.ExplorerURL)
	assert.Empty(t, res.Warning)

	n := utf8.RuneCountInString(res.Description)
	assert.True(t, n >= 230 && n <= 240, "summary length %d", n)
	assert.True(t, strings.HasPrefix(res.Description, "Rock Creek Park NDVI fell"))

	// 参数: 15 个，顺序与合约一致
	require.Equal(t, 1, f.ledger.sentCount())
	sent := f.ledger.sent[0]
	require.Len(t, sent.Arguments, 15)
	assert.Equal(t, "Rock Creek Park", decodeArg(t, sent, 0)["value"])
	assert.Equal(t, "rock-creek", decodeArg(t, sent, 1)["value"])
	assert.Equal(t, "0.70000000", decodeArg(t, sent, 4)["value"])
	assert.Equal(t, "50.00000000", decodeArg(t, sent, 9)["value"])
	assert.Equal(t, "5000", decodeArg(t, sent, 13)["value"])
	assert.Equal(t, "0x"+testAccountHex, decodeArg(t, sent, 14)["value"])

	var sub model.ProposalSubmission
	require.NoError(t, db.First(&sub).Error)
	assert.Equal(t, model.SubmissionSealed, sub.Status)
	assert.Equal(t, res.TxID, sub.TxID)
	require.NotNil(t, sub.ProposalID)
	assert.Equal(t, uint64(5), *sub.ProposalID)
	assert.Equal(t, draft.Fingerprint(), sub.Fingerprint)

	msgs, err := model.FetchPendingOutbox(db, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, event.TopicProposalCreated, msgs[0].Topic)
	assert.Contains(t, string(msgs[0].Payload), `"park_name":"Rock Creek Park"`)
}

func TestCreateProposal_SummarizerFailureUsesFallback(t *testing.T) {
	f := newProposalFixture(t, testSigner(t), nil, nil, stubSummarizer{err: errors.New("quota exceeded")})

	res, err := f.svc.CreateProposal(context.Background(), rockCreekDraft("2025-12-31"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Description, "Rock Creek Park: NDVI 0.7→0.2, PM2.5 +75%"))
	assert.Contains(t, res.Description, "Environmental impact assessment indicates significant changes.")
	n := utf8.RuneCountInString(res.Description)
	assert.True(t, n >= 230 && n <= 240)
}

func TestCreateProposal_CountFailureStillSucceeds(t *testing.T) {
	f := newProposalFixture(t, testSigner(t), nil, nil, nil)
	f.ledger.totalErr = errors.New("script execution failed")

	res, err := f.svc.CreateProposal(context.Background(), rockCreekDraft("2025-12-31"))
	require.NoError(t, err)
	assert.Nil(t, res.ProposalID)
	assert.NotEmpty(t, res.Warning)
	assert.NotEmpty(t, res.TxID)
}

func TestCreateProposal_NotifierFailureIgnored(t *testing.T) {
	n := chanNotifier{ch: make(chan event.ProposalCreatedEvent, 1)}
	f := newProposalFixture(t, testSigner(t), nil, n, nil)

	res, err := f.svc.CreateProposal(context.Background(), rockCreekDraft("2025-12-31"))
	require.NoError(t, err)

	select {
	case evt := <-n.ch:
		assert.Equal(t, "Rock Creek Park", evt.ParkName)
		assert.Equal(t, res.TxID, evt.TxID)
		require.NotNil(t, evt.ProposalID)
		assert.Equal(t, uint64(5), *evt.ProposalID)
	case <-time.After(2 * time.Second):
		t.Fatal("通知未发出")
	}
}

func TestCreateProposal_DerivesVegetationLoss(t *testing.T) {
	f := newProposalFixture(t, testSigner(t), nil, nil, nil)
	draft := rockCreekDraft("2025-12-31")
	draft.Metrics.VegetationLossPercent = decimal.Zero

	_, err := f.svc.CreateProposal(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "50.00000000", decodeArg(t, f.ledger.sent[0], 9)["value"])
}

func TestCreateProposal_Failures(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		f := newProposalFixture(t, testSigner(t), nil, nil, nil)
		f.ledger.pingErr = errors.New("dial tcp: connection refused")
		_, err := f.svc.CreateProposal(context.Background(), rockCreekDraft("2025-12-31"))
		assert.True(t, errors.Is(err, errno.ErrNotConnected))
	})

	t.Run("not configured", func(t *testing.T) {
		f := newProposalFixture(t, nil, nil, nil, nil)
		_, err := f.svc.CreateProposal(context.Background(), rockCreekDraft("2025-12-31"))
		assert.True(t, errors.Is(err, errno.ErrNotConfigured))
	})

	t.Run("negative metric", func(t *testing.T) {
		f := newProposalFixture(t, testSigner(t), nil, nil, nil)
		draft := rockCreekDraft("2025-12-31")
		draft.Metrics.PM25After = decimal.RequireFromString("-1")
		_, err := f.svc.CreateProposal(context.Background(), draft)
		assert.True(t, errors.Is(err, errno.ErrBuildFailure))
		assert.Equal(t, 0, f.ledger.sentCount())
	})

	t.Run("timeout recorded", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		f := newProposalFixture(t, testSigner(t), db, nil, nil)
		f.ledger.sealAfter = 0

		_, err := f.svc.CreateProposal(context.Background(), rockCreekDraft("2025-12-31"))
		require.True(t, errors.Is(err, errno.ErrSealTimeout))
		se := AsSubmissionError(err)
		require.NotNil(t, se)
		assert.NotEmpty(t, se.ExplorerURL)

		var sub model.ProposalSubmission
		require.NoError(t, db.First(&sub).Error)
		assert.Equal(t, model.SubmissionTimeout, sub.Status)
		assert.Equal(t, se.TxID, sub.TxID)
	})
}

func TestGetContractInfo(t *testing.T) {
	f := newProposalFixture(t, testSigner(t), nil, nil, nil)
	info := f.svc.GetContractInfo()
	assert.Equal(t, "emulator", info.Network)
	assert.Equal(t, "CommunityVoting", info.ContractName)
	assert.Equal(t, "0x"+testContractHex, info.ContractAddress)
	assert.Equal(t, "http://localhost:8701", info.ExplorerURL)
	assert.Equal(t, "0x"+testAccountHex, info.Account)
	assert.True(t, info.Configured)
}
