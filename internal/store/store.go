package store

import (
	"context"
	"errors"
	"time"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// ErrUniqueViolation wraps every unique constraint failure. The domain error naming the violated
// invariant (domain.ErrProofAlreadyApproved, domain.ErrReferenceAlreadyUsed, domain.ErrAttemptAlreadyRecorded)
// is wrapped alongside it.
var ErrUniqueViolation = errors.New("unique constraint violation")

// SaveProofInput describes a proof write from a submission
type SaveProofInput struct {
	// ExistingProofID is a pending or rejected proof of the same tuple updated in place.
	// A new proof is created when nil.
	ExistingProofID *string
	UserID          string
	ActivityID      string
	PassportID      string
	ProofType       domain.ProofType
	Status          domain.ProofStatus
	TransactionHash *string
	TransactionURL  *string
	ReferralURL     *string
	ReferralCode    *string
	Content         *string
	RejectionReason *string
	TokensAwarded   int
	ValidatedBy     *string
	ValidatedAt     *time.Time
	Details         map[string]any
	// RecordAttempt stores the reference in the attempt ledger in the same transaction
	RecordAttempt bool
	// At is the write time
	At time.Time
}

// Reference returns the proof's unique reference
func (in SaveProofInput) Reference() string {
	switch in.ProofType {
	case domain.ProofTypeTransaction:
		if in.TransactionHash != nil {
			return *in.TransactionHash
		}
	case domain.ProofTypeReferral:
		if in.ReferralURL != nil {
			return *in.ReferralURL
		}
	}
	return ""
}

// ReviewInput describes the terminal transition of a pending proof
type ReviewInput struct {
	ProofID         string
	Status          domain.ProofStatus
	Reviewer        string
	RejectionReason *string
	TokensAwarded   int
	At              time.Time
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetActivity retrieves an activity by ID
	GetActivity(ctx context.Context, id string) (*schema.Activity, error)
	// GetPassport retrieves a passport by ID
	GetPassport(ctx context.Context, id string) (*schema.Passport, error)
	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*schema.User, error)
	// GetProof retrieves a proof by ID
	GetProof(ctx context.Context, id string) (*schema.ActivityProof, error)
	// GetPassportActivity retrieves the activity entry of a passport
	GetPassportActivity(ctx context.Context, passportID, activityID string) (*schema.PassportActivity, error)

	// GetApprovedProof retrieves the approved proof of a (user, activity, passport) tuple
	GetApprovedProof(ctx context.Context, userID, activityID, passportID string) (*schema.ActivityProof, error)
	// GetLatestProof retrieves the most recent proof of a (user, activity, passport) tuple in any status
	GetLatestProof(ctx context.Context, userID, activityID, passportID string) (*schema.ActivityProof, error)
	// FindApprovedProofByReference retrieves the approved proof holding a transaction hash or referral URL
	FindApprovedProofByReference(ctx context.Context, proofType domain.ProofType, reference string) (*schema.ActivityProof, error)
	// HasAttempt reports whether the user already tried the reference for the activity
	HasAttempt(ctx context.Context, userID, activityID string, proofType domain.ProofType, reference string) (bool, error)

	// SaveProof creates a proof or updates ExistingProofID in place. An approved proof also completes the
	// passport activity and recomputes the passport progress in the same transaction.
	SaveProof(ctx context.Context, input SaveProofInput) (*schema.ActivityProof, error)
	// ReviewProof moves a pending proof to approved or rejected; domain.ErrInvalidTransition if it is not pending
	ReviewProof(ctx context.Context, input ReviewInput) (*schema.ActivityProof, error)

	// SetRewardTxHash records the payout transaction of an approved proof that has none yet.
	// It reports whether a row was updated.
	SetRewardTxHash(ctx context.Context, proofID, txHash string) (bool, error)
	// RecordRewardAttempt notes an unsuccessful sweeper payout so the next listings visit other proofs first
	RecordRewardAttempt(ctx context.Context, proofID string, at time.Time) error
	// ListUnrewardedProofs lists approved proofs with tokens awarded, no payout hash and validated before the given time.
	// Proofs never attempted come first, then the least recently attempted.
	ListUnrewardedProofs(ctx context.Context, validatedBefore time.Time, limit int) ([]*schema.ActivityProof, error)
}
