// Package explorer fetches transactions and receipts from an Etherscan v2
// compatible block explorer through its JSON-RPC proxy module.
package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/adapter"
	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/logger"
	"github.com/swagly/proof-validator/internal/ratelimit"
)

const PROVIDER_NAME = "explorer"

const (
	actionGetTransaction        = "eth_getTransactionByHash"
	actionGetTransactionReceipt = "eth_getTransactionReceipt"
)

// Client defines the interface for block explorer operations to enable mocking
//
//go:generate mockgen -source=client.go -destination=../../mocks/explorer_client.go -package=mocks -mock_names=Client=MockExplorerClient
type Client interface {
	// GetTransaction fetches a transaction by hash.
	// Returns ErrTransactionNotFound or ErrTransactionPending for missing or unconfirmed transactions.
	GetTransaction(ctx context.Context, hash string) (*domain.ChainTransaction, error)

	// GetTransactionReceipt fetches the receipt (with logs) of a mined transaction
	GetTransactionReceipt(ctx context.Context, hash string) (*domain.TransactionReceipt, error)
}

// proxyResponse is the envelope of the explorer's proxy module.
// Successful calls carry a JSON-RPC result; soft errors carry status "0" and a
// message in result, or a JSON-RPC error object.
type proxyResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcTransaction struct {
	Hash        string  `json:"hash"`
	From        string  `json:"from"`
	To          *string `json:"to"`
	Value       string  `json:"value"`
	BlockNumber *string `json:"blockNumber"`
}

type rpcLog struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
	LogIndex string   `json:"logIndex"`
}

type rpcReceipt struct {
	TransactionHash string   `json:"transactionHash"`
	BlockNumber     *string  `json:"blockNumber"`
	Status          string   `json:"status"`
	Logs            []rpcLog `json:"logs"`
}

// ExplorerClient implements Client against an Etherscan v2 compatible API
type ExplorerClient struct {
	httpClient adapter.HTTPClient
	limiter    ratelimit.Limiter
	json       adapter.JSON
	baseURL    string
	apiKey     string
	chainID    int64
}

// NewClient creates a new explorer client. limiter may be nil.
func NewClient(httpClient adapter.HTTPClient, limiter ratelimit.Limiter, json adapter.JSON, baseURL, apiKey string, chainID int64) Client {
	return &ExplorerClient{
		httpClient: httpClient,
		limiter:    limiter,
		json:       json,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chainID:    chainID,
	}
}

// GetTransaction fetches a transaction by hash
func (c *ExplorerClient) GetTransaction(ctx context.Context, hash string) (*domain.ChainTransaction, error) {
	result, err := c.call(ctx, actionGetTransaction, hash)
	if err != nil {
		return nil, err
	}

	var tx rpcTransaction
	if err := c.json.Unmarshal(result, &tx); err != nil {
		return nil, fmt.Errorf("%w: failed to decode transaction: %v", ErrProviderFailure, err)
	}

	blockNumber, err := parseBlockNumber(tx.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	if blockNumber == 0 {
		return nil, ErrTransactionPending
	}

	chainTx := &domain.ChainTransaction{
		Hash:        strings.ToLower(tx.Hash),
		From:        strings.ToLower(tx.From),
		Value:       tx.Value,
		BlockNumber: blockNumber,
	}
	if tx.To != nil {
		chainTx.To = strings.ToLower(*tx.To)
	}

	return chainTx, nil
}

// GetTransactionReceipt fetches the receipt of a mined transaction
func (c *ExplorerClient) GetTransactionReceipt(ctx context.Context, hash string) (*domain.TransactionReceipt, error) {
	result, err := c.call(ctx, actionGetTransactionReceipt, hash)
	if err != nil {
		return nil, err
	}

	var receipt rpcReceipt
	if err := c.json.Unmarshal(result, &receipt); err != nil {
		return nil, fmt.Errorf("%w: failed to decode receipt: %v", ErrProviderFailure, err)
	}

	blockNumber, err := parseBlockNumber(receipt.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	if blockNumber == 0 {
		return nil, ErrTransactionPending
	}

	logs := make([]domain.TransactionLog, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		logs = append(logs, domain.TransactionLog{
			Address:  l.Address,
			Topics:   l.Topics,
			Data:     l.Data,
			LogIndex: l.LogIndex,
		})
	}

	return &domain.TransactionReceipt{
		TransactionHash: strings.ToLower(receipt.TransactionHash),
		BlockNumber:     blockNumber,
		Status:          receipt.Status,
		Logs:            logs,
	}, nil
}

// call performs a single proxy request and returns the raw result.
// A null or absent result maps to ErrTransactionNotFound.
func (c *ExplorerClient) call(ctx context.Context, action, hash string) ([]byte, error) {
	requestURL := c.buildURL(action, hash)

	body, err := ratelimit.Do(ctx, c.limiter, PROVIDER_NAME, func(ctx context.Context) ([]byte, error) {
		return c.httpClient.Get(ctx, requestURL, nil)
	})
	if err != nil {
		return nil, classifyTransportError(err)
	}

	var resp proxyResponse
	if err := c.json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrProviderFailure, err)
	}

	if resp.Error != nil {
		return nil, classifyMessage(resp.Error.Message)
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, ErrTransactionNotFound
	}

	// A string result is a soft error, e.g. {"status":"0","message":"NOTOK","result":"Invalid API Key"}
	if result[0] == '"' {
		var message string
		if err := c.json.Unmarshal(result, &message); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProviderFailure, string(result))
		}
		return nil, classifyMessage(message)
	}

	if resp.Status == "0" {
		return nil, classifyMessage(resp.Message)
	}

	return result, nil
}

func (c *ExplorerClient) buildURL(action, hash string) string {
	params := url.Values{}
	params.Set("chainid", strconv.FormatInt(c.chainID, 10))
	params.Set("module", "proxy")
	params.Set("action", action)
	params.Set("txhash", hash)
	params.Set("apikey", c.apiKey)
	return c.baseURL + "?" + params.Encode()
}

// classifyTransportError maps HTTP-level failures onto explorer errors
func classifyTransportError(err error) error {
	switch {
	case errors.Is(err, ratelimit.ErrQueueTimeout):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	var statusErr *adapter.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	return fmt.Errorf("%w: %v", ErrConnectivity, err)
}

// classifyMessage maps provider soft-error text onto explorer errors
func classifyMessage(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "invalid api key"):
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, message)
	case strings.Contains(lower, "max rate limit reached"), strings.Contains(lower, "rate limit"):
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	default:
		logger.Warn("unrecognized explorer error", zap.String("message", message))
		return fmt.Errorf("%w: %s", ErrProviderFailure, message)
	}
}

// parseBlockNumber decodes a hex block number; nil or empty means pending
func parseBlockNumber(s *string) (uint64, error) {
	if s == nil || *s == "" {
		return 0, nil
	}
	n, err := hexutil.DecodeUint64(*s)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q: %w", *s, err)
	}
	return n, nil
}
