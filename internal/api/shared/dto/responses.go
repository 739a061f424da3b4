package dto

import (
	"encoding/json"
	"time"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/proof"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// SubmissionResponse is the body returned by every proof submission and review endpoint
type SubmissionResponse struct {
	Success       bool               `json:"success"`
	Outcome       proof.Outcome      `json:"outcome"`
	ProofID       string             `json:"proofId,omitempty"`
	Status        domain.ProofStatus `json:"status,omitempty"`
	TokensAwarded *int               `json:"tokensAwarded,omitempty"`
	RewardTxHash  *string            `json:"rewardTxHash,omitempty"`
	RefCode       string             `json:"refCode,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// MapResultToDTO converts a proof result to its response body
func MapResultToDTO(result *proof.Result) SubmissionResponse {
	resp := SubmissionResponse{
		Success:      result.Success(),
		Outcome:      result.Outcome,
		ProofID:      result.ProofID,
		Status:       result.Status,
		RewardTxHash: result.RewardTxHash,
		RefCode:      result.RefCode,
		Error:        result.Error,
	}
	if result.Status == domain.ProofStatusApproved {
		tokens := result.TokensAwarded
		resp.TokensAwarded = &tokens
	}
	return resp
}

// ProofResponse represents an activity proof
type ProofResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	ActivityID      string             `json:"activityId"`
	PassportID      string             `json:"passportId"`
	ProofType       domain.ProofType   `json:"proofType"`
	Status          domain.ProofStatus `json:"status"`
	TransactionHash *string            `json:"transactionHash,omitempty"`
	TransactionURL  *string            `json:"transactionUrl,omitempty"`
	ReferralURL     *string            `json:"referralUrl,omitempty"`
	ReferralCode    *string            `json:"referralCode,omitempty"`
	Content         *string            `json:"content,omitempty"`
	RejectionReason *string            `json:"rejectionReason,omitempty"`
	TokensAwarded   int                `json:"tokensAwarded"`
	RewardTxHash    *string            `json:"rewardTxHash,omitempty"`
	ValidatedBy     *string            `json:"validatedBy,omitempty"`
	ValidatedAt     *time.Time         `json:"validatedAt,omitempty"`
	Details         json.RawMessage    `json:"details,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// MapProofToDTO converts a stored proof to its response body
func MapProofToDTO(p *schema.ActivityProof) ProofResponse {
	resp := ProofResponse{
		ID:              p.ID,
		UserID:          p.UserID,
		ActivityID:      p.ActivityID,
		PassportID:      p.PassportID,
		ProofType:       p.ProofType,
		Status:          p.Status,
		TransactionHash: p.TransactionHash,
		TransactionURL:  p.TransactionURL,
		ReferralURL:     p.ReferralURL,
		ReferralCode:    p.ReferralCode,
		Content:         p.Content,
		RejectionReason: p.RejectionReason,
		TokensAwarded:   p.TokensAwarded,
		RewardTxHash:    p.RewardTxHash,
		ValidatedBy:     p.ValidatedBy,
		ValidatedAt:     p.ValidatedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if len(p.Details) > 0 {
		resp.Details = json.RawMessage(p.Details)
	}
	return resp
}
