package domain

import (
	"time"
)

// ValidationType is how an activity's completion is proven
type ValidationType string

const (
	ValidationTypeManual           ValidationType = "manual"
	ValidationTypeAutoTransaction  ValidationType = "auto_transaction"
	ValidationTypeAutoReferralCode ValidationType = "auto_referral_code"
)

// OnChainValidationType selects the rule applied to a transaction receipt
type OnChainValidationType string

const (
	OnChainValidationNone          OnChainValidationType = ""
	OnChainValidationUSDCTransfer  OnChainValidationType = "usdc_transfer"
	OnChainValidationCashbackEvent OnChainValidationType = "cashback_event"
	OnChainValidationTokenTransfer OnChainValidationType = "token_transfer"
)

// IsValidOnChainValidationType checks if an on-chain validation type is known
func IsValidOnChainValidationType(t OnChainValidationType) bool {
	return t == OnChainValidationNone ||
		t == OnChainValidationUSDCTransfer ||
		t == OnChainValidationCashbackEvent ||
		t == OnChainValidationTokenTransfer
}

// ProofType is the kind of evidence attached to a proof
type ProofType string

const (
	ProofTypeText        ProofType = "text"
	ProofTypeImage       ProofType = "image"
	ProofTypeTransaction ProofType = "transaction"
	ProofTypeReferral    ProofType = "referral"
)

// IsManualProofType reports whether the proof type requires a human review
func IsManualProofType(t ProofType) bool {
	return t == ProofTypeText || t == ProofTypeImage
}

// ProofStatus is the state of an activity proof
type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "pending"
	ProofStatusApproved ProofStatus = "approved"
	ProofStatusRejected ProofStatus = "rejected"
)

// PassportActivityStatus is the completion state of an activity inside a passport
type PassportActivityStatus string

const (
	PassportActivityPending   PassportActivityStatus = "pending"
	PassportActivityCompleted PassportActivityStatus = "completed"
)

// ValidationConfig holds the policy-specific parameters of an activity.
// Fields not used by the activity's validation type are ignored.
type ValidationConfig struct {
	// MinAmount is the minimum transferred amount in whole token units
	MinAmount float64 `json:"minAmount,omitempty"`
	// Decimals overrides the token decimals used to scale usdc_transfer amounts
	Decimals *int `json:"decimals,omitempty"`
	// TokenAddresses is the allow-list of token contracts for token_transfer
	TokenAddresses []string `json:"tokenAddresses,omitempty"`
	// RequirePaid requires the cashback "paid" flag to be true
	RequirePaid bool `json:"requirePaid,omitempty"`
	// EventSignature overrides the default cashback event topic0
	EventSignature string `json:"eventSignature,omitempty"`
	// ReferralHosts restricts the hosts accepted for referral links
	ReferralHosts []string `json:"referralHosts,omitempty"`
}

// ProofEvent is published whenever a proof reaches a terminal state
type ProofEvent struct {
	EventID       string      `json:"event_id"`
	ProofID       string      `json:"proof_id"`
	UserID        string      `json:"user_id"`
	ActivityID    string      `json:"activity_id"`
	PassportID    string      `json:"passport_id"`
	ProofType     ProofType   `json:"proof_type"`
	Status        ProofStatus `json:"status"`
	Reference     string      `json:"reference,omitempty"`
	TokensAwarded int         `json:"tokens_awarded"`
	RewardTxHash  *string     `json:"reward_tx_hash,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	ValidatedBy   string      `json:"validated_by,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
