package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/swagly/proof-validator/internal/domain"
)

// ActivityProof represents the activity_proofs table - evidence that a user completed an activity.
// At most one approved proof exists per (passport, activity), per transaction hash and per referral URL;
// the partial unique indexes in db/init_pg_db.sql enforce this.
type ActivityProof struct {
	// ID is a UUID
	ID         string           `gorm:"column:id;primaryKey;type:varchar(36)"`
	UserID     string           `gorm:"column:user_id;not null;type:varchar(36)"`
	ActivityID string           `gorm:"column:activity_id;not null;type:varchar(36)"`
	PassportID string           `gorm:"column:passport_id;not null;type:varchar(36)"`
	ProofType  domain.ProofType `gorm:"column:proof_type;not null;type:varchar(16)"`
	// Status follows pending -> approved|rejected for manual proofs and none -> approved|rejected for automatic ones
	Status domain.ProofStatus `gorm:"column:status;not null;type:varchar(16)"`
	// TransactionHash is the lowercase 0x-prefixed hash for transaction proofs
	TransactionHash *string `gorm:"column:transaction_hash;type:varchar(66)"`
	// TransactionURL is the raw user input for transaction proofs
	TransactionURL *string `gorm:"column:transaction_url;type:text"`
	// ReferralURL is the canonical referral link for referral proofs
	ReferralURL  *string `gorm:"column:referral_url;type:text"`
	ReferralCode *string `gorm:"column:referral_code;type:varchar(64)"`
	// Content is the text or image URL of manual proofs
	Content         *string `gorm:"column:content;type:text"`
	RejectionReason *string `gorm:"column:rejection_reason;type:text"`
	// TokensAwarded is set on approval even when the payout failed
	TokensAwarded int `gorm:"column:tokens_awarded;not null;default:0"`
	// RewardTxHash is null until the token issuance succeeds
	RewardTxHash *string `gorm:"column:reward_tx_hash;type:varchar(66)"`
	// RewardAttempts counts sweeper payouts that were skipped or failed
	RewardAttempts int `gorm:"column:reward_attempts;not null;default:0"`
	// RewardAttemptedAt is the last unsuccessful sweeper payout; the sweeper visits the oldest first
	RewardAttemptedAt *time.Time `gorm:"column:reward_attempted_at;type:timestamptz"`
	ValidatedAt       *time.Time `gorm:"column:validated_at;type:timestamptz"`
	// ValidatedBy is "auto" or the reviewing admin
	ValidatedBy *string `gorm:"column:validated_by;type:varchar(255)"`
	// Details is the evaluator's audit output
	Details datatypes.JSON `gorm:"column:details;type:jsonb"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ActivityProof model
func (ActivityProof) TableName() string {
	return "activity_proofs"
}

// Reference returns the value that must be unique among approved proofs
func (p *ActivityProof) Reference() string {
	switch p.ProofType {
	case domain.ProofTypeTransaction:
		if p.TransactionHash != nil {
			return *p.TransactionHash
		}
	case domain.ProofTypeReferral:
		if p.ReferralURL != nil {
			return *p.ReferralURL
		}
	}
	return ""
}

// ProofAttempt represents the proof_attempts table - every definitive reference a user tried for an activity
type ProofAttempt struct {
	ID         uint64           `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     string           `gorm:"column:user_id;not null;type:varchar(36)"`
	ActivityID string           `gorm:"column:activity_id;not null;type:varchar(36)"`
	ProofType  domain.ProofType `gorm:"column:proof_type;not null;type:varchar(16)"`
	Reference  string           `gorm:"column:reference;not null;type:text"`
	CreatedAt  time.Time        `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ProofAttempt model
func (ProofAttempt) TableName() string {
	return "proof_attempts"
}
