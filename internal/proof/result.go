package proof

import (
	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// Outcome classifies a submission result
type Outcome string

const (
	OutcomeApproved      Outcome = "approved"
	OutcomeRejected      Outcome = "rejected"
	OutcomePending       Outcome = "pending"
	OutcomeInvalidInput  Outcome = "invalid_input"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeConflict      Outcome = "conflict"
	OutcomeUpstreamError Outcome = "upstream_error"
	OutcomeInternalError Outcome = "internal_error"
)

const internalErrorMessage = "Something went wrong while validating your proof. Please try again later."

// Result is the structured outcome of a submission or review. Failures never surface as Go errors.
type Result struct {
	Outcome       Outcome
	ProofID       string
	Status        domain.ProofStatus
	TokensAwarded int
	RewardTxHash  *string
	RefCode       string
	Error         string
}

// Success reports whether the submission was accepted
func (r *Result) Success() bool {
	return r.Outcome == OutcomeApproved || r.Outcome == OutcomePending
}

func failure(outcome Outcome, message string) *Result {
	return &Result{Outcome: outcome, Error: message}
}

func internalError() *Result {
	return failure(OutcomeInternalError, internalErrorMessage)
}

func resultFromProof(outcome Outcome, proof *schema.ActivityProof) *Result {
	r := &Result{
		Outcome:       outcome,
		ProofID:       proof.ID,
		Status:        proof.Status,
		TokensAwarded: proof.TokensAwarded,
		RewardTxHash:  proof.RewardTxHash,
	}
	if proof.ReferralCode != nil {
		r.RefCode = *proof.ReferralCode
	}
	if proof.RejectionReason != nil {
		r.Error = *proof.RejectionReason
	}
	return r
}
