package dto

import (
	"fmt"
	"strings"

	"github.com/swagly/proof-validator/internal/api/shared/constants"
	apierrors "github.com/swagly/proof-validator/internal/api/shared/errors"
	"github.com/swagly/proof-validator/internal/domain"
)

// ProofTarget identifies the (user, activity, passport) tuple a proof is submitted for
type ProofTarget struct {
	UserID     string `json:"userId"`
	ActivityID string `json:"activityId"`
	PassportID string `json:"passportId"`
}

// Validate validates the identifiers
func (t *ProofTarget) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"userId", t.UserID},
		{"activityId", t.ActivityID},
		{"passportId", t.PassportID},
	} {
		if strings.TrimSpace(field.value) == "" {
			return apierrors.NewValidationError(field.name + " is required")
		}
		if len(field.value) > constants.MAX_ID_LENGTH {
			return apierrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", field.name, constants.MAX_ID_LENGTH))
		}
	}
	return nil
}

// AutoValidateTransactionRequest represents the request body for validating a transaction proof
type AutoValidateTransactionRequest struct {
	ProofTarget
	TransactionURL string `json:"transactionUrl"`
}

// Validate validates the request body
func (r *AutoValidateTransactionRequest) Validate() error {
	if err := r.ProofTarget.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.TransactionURL) == "" {
		return apierrors.NewValidationError("transactionUrl is required")
	}
	if len(r.TransactionURL) > constants.MAX_REFERENCE_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("transactionUrl must be at most %d characters", constants.MAX_REFERENCE_LENGTH))
	}
	return nil
}

// AutoValidateReferralRequest represents the request body for validating a referral proof
type AutoValidateReferralRequest struct {
	ProofTarget
	ReferralURL string `json:"referralUrl"`
}

// Validate validates the request body
func (r *AutoValidateReferralRequest) Validate() error {
	if err := r.ProofTarget.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.ReferralURL) == "" {
		return apierrors.NewValidationError("referralUrl is required")
	}
	if len(r.ReferralURL) > constants.MAX_REFERENCE_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("referralUrl must be at most %d characters", constants.MAX_REFERENCE_LENGTH))
	}
	return nil
}

// ManualProofRequest represents the request body for submitting a manual proof
type ManualProofRequest struct {
	ProofTarget
	ProofType domain.ProofType `json:"proofType"`
	Content   string           `json:"content"`
}

// Validate validates the request body
func (r *ManualProofRequest) Validate() error {
	if err := r.ProofTarget.Validate(); err != nil {
		return err
	}
	if !domain.IsManualProofType(r.ProofType) {
		return apierrors.NewValidationError("proofType must be one of: text, image")
	}
	if strings.TrimSpace(r.Content) == "" {
		return apierrors.NewValidationError("content is required")
	}
	if len(r.Content) > constants.MAX_CONTENT_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("content must be at most %d characters", constants.MAX_CONTENT_LENGTH))
	}
	return nil
}

// ReviewProofRequest represents the request body for reviewing a pending proof
type ReviewProofRequest struct {
	Action   string `json:"action"`
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason"`
}

// Validate validates the request body
func (r *ReviewProofRequest) Validate() error {
	if r.Action != constants.REVIEW_ACTION_APPROVE && r.Action != constants.REVIEW_ACTION_REJECT {
		return apierrors.NewValidationError("action must be one of: approve, reject")
	}
	if strings.TrimSpace(r.Reviewer) == "" {
		return apierrors.NewValidationError("reviewer is required")
	}
	if r.Action == constants.REVIEW_ACTION_REJECT && strings.TrimSpace(r.Reason) == "" {
		return apierrors.NewValidationError("reason is required when rejecting a proof")
	}
	if len(r.Reason) > constants.MAX_REASON_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("reason must be at most %d characters", constants.MAX_REASON_LENGTH))
	}
	return nil
}

// Approve reports whether the review approves the proof
func (r *ReviewProofRequest) Approve() bool {
	return r.Action == constants.REVIEW_ACTION_APPROVE
}
