// Package reward talks to the token issuance service that pays out activity rewards.
package reward

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/adapter"
	"github.com/swagly/proof-validator/internal/logger"
)

var (
	// ErrInvalidRequest is returned when the request is incomplete or the issuer refuses it with a 4xx
	ErrInvalidRequest = errors.New("invalid issue request")
	// ErrMissingTransactionHash is returned when the issuer accepted the claim but returned no hash
	ErrMissingTransactionHash = errors.New("token issuer returned no transaction hash")
)

// IssueRequest describes a token payout
type IssueRequest struct {
	ReceiverAddress string
	Quantity        int
	// IdempotencyKey lets the issuer deduplicate retried payouts; the proof id is used
	IdempotencyKey string
}

// Issuer issues reward tokens and returns the payout transaction hash
//
//go:generate mockgen -source=issuer.go -destination=../mocks/issuer.go -package=mocks -mock_names=Issuer=MockIssuer
type Issuer interface {
	Issue(ctx context.Context, req IssueRequest) (string, error)
}

type claimRequest struct {
	Receiver       string `json:"receiver"`
	Quantity       int    `json:"quantity"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type claimResponse struct {
	TransactionHash string `json:"transactionHash"`
	Error           string `json:"error,omitempty"`
}

// HTTPIssuer posts signed claim requests to the token issuance service
type HTTPIssuer struct {
	baseURL    string
	secret     []byte
	httpClient adapter.HTTPClient
	json       adapter.JSON
	jcs        adapter.JCS
	clock      adapter.Clock
}

// NewHTTPIssuer creates an issuer for the service at baseURL. secret is the hex encoded HMAC key;
// an empty secret sends unsigned requests.
func NewHTTPIssuer(baseURL, secret string, httpClient adapter.HTTPClient, json adapter.JSON, jcs adapter.JCS, clock adapter.Clock) (*HTTPIssuer, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("token issuer url is required")
	}

	var key []byte
	if secret != "" {
		var err error
		key, err = DecodeSecret(secret)
		if err != nil {
			return nil, err
		}
	}

	return &HTTPIssuer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     key,
		httpClient: httpClient,
		json:       json,
		jcs:        jcs,
		clock:      clock,
	}, nil
}

// Issue requests a payout of req.Quantity tokens to req.ReceiverAddress
func (i *HTTPIssuer) Issue(ctx context.Context, req IssueRequest) (string, error) {
	if req.ReceiverAddress == "" || req.Quantity <= 0 || req.IdempotencyKey == "" {
		return "", ErrInvalidRequest
	}

	raw, err := i.json.Marshal(claimRequest{
		Receiver:       req.ReceiverAddress,
		Quantity:       req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal claim request: %w", err)
	}

	body, err := i.jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize claim request: %w", err)
	}

	timestamp := i.clock.Now().Unix()
	headers := map[string]string{
		"Content-Type":    "application/json",
		"Idempotency-Key": req.IdempotencyKey,
		"X-Timestamp":     strconv.FormatInt(timestamp, 10),
	}
	if len(i.secret) > 0 {
		headers["X-Signature"] = Sign(i.secret, timestamp, req.IdempotencyKey, body)
	}

	respBody, err := i.httpClient.Post(ctx, i.baseURL+"/claims", headers, body)
	if err != nil {
		var statusErr *adapter.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
			statusErr.StatusCode != http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return "", fmt.Errorf("token issuance request failed: %w", err)
	}

	var resp claimResponse
	if err := i.json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode token issuer response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("token issuer rejected claim: %s", resp.Error)
	}
	if resp.TransactionHash == "" {
		return "", ErrMissingTransactionHash
	}

	logger.DebugCtx(ctx, "Reward issued",
		zap.String("receiver", req.ReceiverAddress),
		zap.Int("quantity", req.Quantity),
		zap.String("tx_hash", resp.TransactionHash))

	return strings.ToLower(resp.TransactionHash), nil
}
