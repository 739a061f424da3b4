package schema

import (
	"time"

	"github.com/swagly/proof-validator/internal/domain"
)

// User represents the users table. Only the fields needed to pay out rewards are mapped.
type User struct {
	ID            string `gorm:"column:id;primaryKey;type:varchar(36)"`
	WalletAddress string `gorm:"column:wallet_address;type:varchar(42)"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// Passport represents the passports table - a user's progress through an event
type Passport struct {
	// ID is the passport identifier
	ID string `gorm:"column:id;primaryKey;type:varchar(36)"`
	// UserID owns the passport
	UserID string `gorm:"column:user_id;not null;type:varchar(36)"`
	// EventID is the event the passport belongs to
	EventID string `gorm:"column:event_id;not null;type:varchar(36)"`
	// Progress is round(100 * completed / total) over the passport's activities
	Progress int `gorm:"column:progress;not null;default:0"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Passport model
func (Passport) TableName() string {
	return "passports"
}

// PassportActivity represents the passport_activities table - one activity inside a passport
type PassportActivity struct {
	// PassportID and ActivityID form the primary key
	PassportID string `gorm:"column:passport_id;primaryKey;type:varchar(36)"`
	ActivityID string `gorm:"column:activity_id;primaryKey;type:varchar(36)"`
	// Status is pending until an approved proof completes it
	Status domain.PassportActivityStatus `gorm:"column:status;not null;default:pending;type:varchar(16)"`
	// RequiresProof marks activities completed through proof submission rather than scanning
	RequiresProof bool `gorm:"column:requires_proof;not null;default:false"`
	// ProofID references the approved proof; lookup only
	ProofID *string `gorm:"column:proof_id;type:varchar(36)"`
	// CompletedAt is set when the activity is completed
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamptz"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the PassportActivity model
func (PassportActivity) TableName() string {
	return "passport_activities"
}

// Progress computes round(100 * completed / total) with halves rounded up
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}
