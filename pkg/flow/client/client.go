// Package client 接入节点 REST API 适配层，不做任何重试
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"proposal-core/pkg/errno"
	"proposal-core/pkg/flow/types"
)

// Client 链上读写所需的最小接口
type Client interface {
	Ping(ctx context.Context) error
	GetAccount(ctx context.Context, addr types.Address) (types.Account, error)
	GetLatestBlock(ctx context.Context) (types.BlockRef, error)
	SendTransaction(ctx context.Context, tx *types.SignedTransaction) (types.Identifier, error)
	GetTransactionResult(ctx context.Context, id types.Identifier) (types.TransactionResult, error)
	// ExecuteScript 在最新封存区块上执行只读脚本，返回 JSON-Cadence 原文
	ExecuteScript(ctx context.Context, script []byte, args [][]byte) ([]byte, error)
}

// APIError 非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("access api error: status=%d message=%s", e.StatusCode, e.Message)
}

// Unwrap 429 或限流提示归类为 RateLimited，其余不归类
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests || strings.Contains(strings.ToLower(e.Message), "rate limit") {
		return errno.ErrRateLimited
	}
	return nil
}

// HTTPClient REST 实现
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New 创建 REST 客户端，timeout 为单次请求超时
func New(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp struct {
		ChainID string `json:"chain_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/network/parameters", nil, &resp); err != nil {
		return errno.ErrNotConnected.WithDetail(err.Error())
	}
	return nil
}

func (c *HTTPClient) GetAccount(ctx context.Context, addr types.Address) (types.Account, error) {
	var resp accountResponse
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+addr.Hex()+"?expand=keys", nil, &resp); err != nil {
		return types.Account{}, err
	}
	return resp.toAccount()
}

func (c *HTTPClient) GetLatestBlock(ctx context.Context) (types.BlockRef, error) {
	var resp []blockResponse
	if err := c.do(ctx, http.MethodGet, "/v1/blocks?height=sealed", nil, &resp); err != nil {
		return types.BlockRef{}, err
	}
	if len(resp) == 0 {
		return types.BlockRef{}, fmt.Errorf("access api returned no sealed block")
	}
	return resp[0].toBlockRef()
}

func (c *HTTPClient) SendTransaction(ctx context.Context, tx *types.SignedTransaction) (types.Identifier, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/transactions", newTransactionRequest(tx), &resp); err != nil {
		return types.EmptyID, err
	}
	return types.HexToID(resp.ID)
}

func (c *HTTPClient) GetTransactionResult(ctx context.Context, id types.Identifier) (types.TransactionResult, error) {
	var resp transactionResultResponse
	if err := c.do(ctx, http.MethodGet, "/v1/transaction_results/"+id.Hex(), nil, &resp); err != nil {
		return types.TransactionResult{}, err
	}
	return resp.toResult(), nil
}

func (c *HTTPClient) ExecuteScript(ctx context.Context, script []byte, args [][]byte) ([]byte, error) {
	var encoded string
	if err := c.do(ctx, http.MethodPost, "/v1/scripts?block_height=sealed", newScriptRequest(script, args), &encoded); err != nil {
		return nil, err
	}
	return decodeBase64(encoded)
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// errorMessage 节点错误体形如 {"code":400,"message":"..."}
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(string(body))
}
