package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/internal/model"
	"proposal-core/internal/service"
	"proposal-core/pkg/errno"
	"proposal-core/pkg/validator"
)

type fakeProposals struct {
	draft     model.ProposalDraft
	result    *model.SubmissionResult
	createErr error
	records   map[uint64]*model.ProposalRecord
	active    []uint64
	report    *model.SweepReport
	sweepErr  error
}

func (f *fakeProposals) CreateProposal(_ context.Context, d model.ProposalDraft) (*model.SubmissionResult, error) {
	f.draft = d
	return f.result, f.createErr
}

func (f *fakeProposals) GetContractInfo() model.ContractInfo {
	return model.ContractInfo{Network: "testnet", ContractName: "CommunityVoting", ContractAddress: "0x0000000000000001"}
}

func (f *fakeProposals) GetProposal(_ context.Context, id uint64) *model.ProposalRecord {
	return f.records[id]
}

func (f *fakeProposals) GetAllActiveProposalIDs(context.Context) []uint64 {
	if f.active == nil {
		return []uint64{}
	}
	return f.active
}

func (f *fakeProposals) SweepExpiredProposals(context.Context) (*model.SweepReport, error) {
	return f.report, f.sweepErr
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(f *fakeProposals) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Init()
	h := NewProposalHandler(f, f, f)
	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/proposals", h.CreateProposal)
	api.GET("/proposals/active", h.ListActiveProposals)
	api.GET("/proposals/:id", h.GetProposal)
	api.POST("/admin/proposals/sweep", h.SweepExpired)
	api.GET("/contract", h.GetContractInfo)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

const draftJSON = `{
  "parkId": "rock-creek",
  "parkName": "Rock Creek Park",
  "description": "Vegetation loss",
  "endDate": "December 31, 2025",
  "environmentalData": {"ndviBefore": "0.70", "ndviAfter": 0.2, "pm25Before": "8", "pm25After": "14", "pm25IncreasePercent": "75", "vegetationLossPercent": "50"},
  "demographics": {"children": 1200, "adults": 3000, "seniors": 800, "totalAffectedPopulation": 5000}
}`

func TestCreateProposalHandler(t *testing.T) {
	id := uint64(5)
	f := &fakeProposals{result: &model.SubmissionResult{TxID: "ab12", ProposalID: &id}}
	r := setupRouter(f)

	env := do(t, r, http.MethodPost, "/api/v1/proposals", draftJSON)
	assert.Equal(t, errno.OK.Code, env.Code)
	assert.Contains(t, string(env.Data), `"proposalId":5`)
	assert.Equal(t, "Rock Creek Park", f.draft.ParkName)
	assert.Equal(t, "0.7", f.draft.Metrics.NDVIBefore.String())
	assert.Equal(t, uint64(5000), f.draft.Demographics.TotalAffectedPopulation)
}

func TestCreateProposalHandler_Validation(t *testing.T) {
	r := setupRouter(&fakeProposals{})

	env := do(t, r, http.MethodPost, "/api/v1/proposals", `{"parkId":"x","parkName":"X","environmentalData":{"pm25After":"-1"}}`)
	assert.Equal(t, errno.ErrValidation.Code, env.Code)
	assert.Contains(t, env.Msg, "PM25After 必须是非负数")

	env = do(t, r, http.MethodPost, "/api/v1/proposals", `{"parkName":"X"}`)
	assert.Equal(t, errno.ErrValidation.Code, env.Code)
	assert.Contains(t, env.Msg, "ParkID 不能为空")

	env = do(t, r, http.MethodPost, "/api/v1/proposals", `{not json`)
	assert.Equal(t, errno.ErrBind.Code, env.Code)
}

func TestCreateProposalHandler_TimeoutCarriesTxID(t *testing.T) {
	f := &fakeProposals{createErr: &service.SubmissionError{
		Kind:        errno.ErrSealTimeout,
		TxID:        "ab12",
		ExplorerURL: "https://testnet.flowdiver.io/transaction/ab12",
	}}
	r := setupRouter(f)

	env := do(t, r, http.MethodPost, "/api/v1/proposals", draftJSON)
	assert.Equal(t, errno.ErrSealTimeout.Code, env.Code)
	assert.Contains(t, env.Msg, "Transaction timeout - please check explorer")
	assert.JSONEq(t, `{"txId":"ab12","explorerUrl":"https://testnet.flowdiver.io/transaction/ab12"}`, string(env.Data))
}

func TestGetProposalHandler(t *testing.T) {
	f := &fakeProposals{records: map[uint64]*model.ProposalRecord{3: {ID: 3, ParkName: "Yosemite"}}}
	r := setupRouter(f)

	env := do(t, r, http.MethodGet, "/api/v1/proposals/3", "")
	assert.Equal(t, errno.OK.Code, env.Code)
	assert.Contains(t, string(env.Data), `"parkName":"Yosemite"`)

	env = do(t, r, http.MethodGet, "/api/v1/proposals/9", "")
	assert.Equal(t, errno.ErrProposalNotFound.Code, env.Code)

	env = do(t, r, http.MethodGet, "/api/v1/proposals/abc", "")
	assert.Equal(t, errno.ErrBind.Code, env.Code)
}

func TestListActiveProposalsHandler(t *testing.T) {
	f := &fakeProposals{
		active:  []uint64{3, 4},
		records: map[uint64]*model.ProposalRecord{3: {ID: 3, ParkName: "Yosemite"}},
	}
	r := setupRouter(f)

	env := do(t, r, http.MethodGet, "/api/v1/proposals/active", "")
	assert.JSONEq(t, `{"ids":[3,4]}`, string(env.Data))

	env = do(t, r, http.MethodGet, "/api/v1/proposals/active?expand=true", "")
	var out ActiveProposals
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.Proposals, 1, "读不到的提案不返回")
	assert.Equal(t, "Yosemite", out.Proposals[0].ParkName)

	f.active = nil
	env = do(t, r, http.MethodGet, "/api/v1/proposals/active", "")
	assert.JSONEq(t, `{"ids":[]}`, string(env.Data))
}

func TestSweepHandler(t *testing.T) {
	f := &fakeProposals{report: &model.SweepReport{RunID: "r1", Closed: 1, Items: []model.SweepItem{}}}
	r := setupRouter(f)

	env := do(t, r, http.MethodPost, "/api/v1/admin/proposals/sweep", "")
	assert.Equal(t, errno.OK.Code, env.Code)
	assert.Contains(t, string(env.Data), `"closed":1`)

	f.sweepErr = errno.ErrSweepInProgress
	env = do(t, r, http.MethodPost, "/api/v1/admin/proposals/sweep", "")
	assert.Equal(t, errno.ErrSweepInProgress.Code, env.Code)

	f.sweepErr = errors.New("boom")
	env = do(t, r, http.MethodPost, "/api/v1/admin/proposals/sweep", "")
	assert.Equal(t, errno.InternalServerError.Code, env.Code)
}

func TestContractInfoHandler(t *testing.T) {
	r := setupRouter(&fakeProposals{})
	env := do(t, r, http.MethodGet, "/api/v1/contract", "")
	assert.Contains(t, string(env.Data), `"contractName":"CommunityVoting"`)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", NewHealthHandler(fakePinger{err: errors.New("down")}).HealthCheck)

	env := do(t, r, http.MethodGet, "/health", "")
	assert.Contains(t, string(env.Data), `"ledger":"DOWN"`)
}
