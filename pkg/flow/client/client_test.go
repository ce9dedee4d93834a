package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/types"
)

const blockID = "7bc42fe85d32ca513769a74f97f7e1a7bad6c9407f0d934c2aa645ef9cf613c7"

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second)
}

func TestGetAccount(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/f8d6e0586b0a20c7", r.URL.Path)
		assert.Equal(t, "keys", r.URL.Query().Get("expand"))
		w.Write([]byte(`{
			"address": "0xf8d6e0586b0a20c7",
			"balance": "100000",
			"keys": [{"index":"0","public_key":"0xabc","signing_algorithm":"ECDSA_P256","hashing_algorithm":"SHA3_256","sequence_number":"42","weight":"1000","revoked":false}]
		}`))
	})

	acc, err := c.GetAccount(context.Background(), types.MustHexToAddress("f8d6e0586b0a20c7"))
	require.NoError(t, err)
	assert.Equal(t, uint64(100000), acc.Balance)
	assert.Equal(t, "0.001", acc.BalanceDecimal().String())
	require.Len(t, acc.Keys, 1)
	assert.Equal(t, uint64(42), acc.Keys[0].SequenceNumber)
	assert.Equal(t, "ECDSA_P256", acc.Keys[0].SigningAlgorithm)
}

func TestGetLatestBlock(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sealed", r.URL.Query().Get("height"))
		w.Write([]byte(`[{"header":{"id":"` + blockID + `","height":"1234","timestamp":"2025-01-01T00:00:00Z"}}]`))
	})

	ref, err := c.GetLatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, blockID, ref.ID.Hex())
	assert.Equal(t, uint64(1234), ref.Height)
}

func TestSendTransaction(t *testing.T) {
	addr := types.MustHexToAddress("0x01")
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req transactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "9999", req.GasLimit)
		assert.Equal(t, "0000000000000001", req.Payer)
		assert.Equal(t, "7", req.ProposalKey.SequenceNumber)
		require.Len(t, req.EnvelopeSignatures, 1)
		sig, _ := base64.StdEncoding.DecodeString(req.EnvelopeSignatures[0].Signature)
		assert.Equal(t, []byte{1, 2, 3}, sig)
		script, _ := base64.StdEncoding.DecodeString(req.Script)
		assert.Equal(t, "transaction {}", string(script))
		assert.Empty(t, req.PayloadSignatures)
		w.Write([]byte(`{"id":"` + blockID + `"}`))
	})

	tx := &types.SignedTransaction{
		UnsignedTransaction: types.UnsignedTransaction{
			Script:      []byte("transaction {}"),
			GasLimit:    9999,
			ProposalKey: types.ProposalKey{Address: addr, SequenceNumber: 7},
			Payer:       addr,
			Authorizers: []types.Address{addr},
		},
		EnvelopeSignatures: []types.TransactionSignature{{Address: addr, Signature: []byte{1, 2, 3}}},
	}
	id, err := c.SendTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, blockID, id.Hex())
}

func TestGetTransactionResult(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v1/transaction_results/"))
		w.Write([]byte(`{"block_id":"","status":"Sealed","status_code":1,"error_message":"panic: already closed"}`))
	})

	res, err := c.GetTransactionResult(context.Background(), types.EmptyID)
	require.NoError(t, err)
	assert.Equal(t, types.TxStatusSealed, res.Status)
	assert.Equal(t, "panic: already closed", res.ErrorMessage)
}

func TestExecuteScript(t *testing.T) {
	result := `{"type":"UInt64","value":"3"}`
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req scriptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Arguments, 1)
		arg, _ := base64.StdEncoding.DecodeString(req.Arguments[0])
		assert.JSONEq(t, `{"type":"UInt64","value":"1"}`, string(arg))
		json.NewEncoder(w).Encode(base64.StdEncoding.EncodeToString([]byte(result)))
	})

	raw, err := c.ExecuteScript(context.Background(), []byte("access(all) fun main() {}"), [][]byte{[]byte(`{"type":"UInt64","value":"1"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, result, string(raw))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		rateLimited bool
	}{
		{"too many requests", http.StatusTooManyRequests, `{"code":429,"message":"slow down"}`, true},
		{"rate limit message", http.StatusServiceUnavailable, `{"code":503,"message":"Rate limited by access node"}`, true},
		{"bad request", http.StatusBadRequest, `{"code":400,"message":"invalid argument"}`, false},
		{"plain body", http.StatusInternalServerError, `boom`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.ExecuteScript(context.Background(), []byte("x"), nil)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.rateLimited, errors.Is(err, errno.ErrRateLimited))
		})
	}
}

func TestPingFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", 100*time.Millisecond)
	err := c.Ping(context.Background())
	assert.True(t, errors.Is(err, errno.ErrNotConnected))
}
