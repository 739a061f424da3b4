package proof

import (
	"context"
	"maps"

	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/logger"
	"github.com/swagly/proof-validator/internal/onchain"
	"github.com/swagly/proof-validator/internal/providers/explorer"
	"github.com/swagly/proof-validator/internal/store/schema"
	"github.com/swagly/proof-validator/internal/txref"
)

// TransactionValidator validates activities proven by an on-chain transaction
type TransactionValidator struct {
	explorer  explorer.Client
	evaluator *onchain.Evaluator
}

// NewTransactionValidator creates a transaction validator
func NewTransactionValidator(client explorer.Client, evaluator *onchain.Evaluator) *TransactionValidator {
	return &TransactionValidator{explorer: client, evaluator: evaluator}
}

func (v *TransactionValidator) Method() domain.ValidationType {
	return domain.ValidationTypeAutoTransaction
}

func (v *TransactionValidator) ProofType() domain.ProofType {
	return domain.ProofTypeTransaction
}

func (v *TransactionValidator) ReferenceName() string {
	return "transaction"
}

func (v *TransactionValidator) Resolve(input string) (string, bool) {
	return txref.ExtractTransactionHash(input)
}

// Validate fetches the transaction and its receipt, then applies the activity's on-chain rule
func (v *TransactionValidator) Validate(ctx context.Context, activity *schema.Activity, hash string) (Verdict, error) {
	tx, err := v.explorer.GetTransaction(ctx, hash)
	if err != nil {
		return explorerVerdict(ctx, hash, err), nil
	}

	receipt, err := v.explorer.GetTransactionReceipt(ctx, hash)
	if err != nil {
		return explorerVerdict(ctx, hash, err), nil
	}

	details := map[string]any{
		"txHash":      tx.Hash,
		"from":        tx.From,
		"to":          tx.To,
		"blockNumber": receipt.BlockNumber,
	}

	if receipt.Reverted() {
		return Verdict{Reason: "This transaction failed on-chain and cannot be used as proof", Details: details}, nil
	}

	if activity.OnChainValidationType == domain.OnChainValidationNone {
		return Verdict{Valid: true, Details: details}, nil
	}

	evaluation := v.evaluator.Evaluate(receipt.Logs, activity.OnChainValidationType, activity.Config())
	if !evaluation.IsValid {
		return Verdict{Reason: evaluation.Error, Details: details}, nil
	}

	maps.Copy(details, evaluation.Details)
	details["rule"] = string(activity.OnChainValidationType)
	return Verdict{Valid: true, Details: details}, nil
}

// explorerVerdict maps explorer failures. Missing or pending transactions reject the proof but may be
// resubmitted; provider failures persist nothing.
func explorerVerdict(ctx context.Context, hash string, err error) Verdict {
	message := explorer.UserMessage(err)
	if explorer.IsRetryable(err) && !explorer.IsUpstream(err) {
		return Verdict{Reason: message, Retryable: true}
	}

	logger.WarnCtx(ctx, "Block explorer request failed", zap.String("tx_hash", hash), zap.Error(err))
	return Verdict{Reason: message, Retryable: true, Upstream: true}
}
