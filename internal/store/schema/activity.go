package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/swagly/proof-validator/internal/domain"
)

// Activity represents the activities table - sponsor defined tasks inside an event
type Activity struct {
	// ID is the activity identifier
	ID string `gorm:"column:id;primaryKey;type:varchar(36)"`
	// Name is the display name, shown to users in duplicate-use messages
	Name string `gorm:"column:name;not null;type:text"`
	// NumOfTokens is the reward quantity issued when a proof is approved
	NumOfTokens int `gorm:"column:num_of_tokens;not null;default:0"`
	// ValidationType is how completion is proven (manual, auto_transaction, auto_referral_code)
	ValidationType domain.ValidationType `gorm:"column:validation_type;not null;type:varchar(32)"`
	// OnChainValidationType selects the receipt rule for auto_transaction activities
	OnChainValidationType domain.OnChainValidationType `gorm:"column:on_chain_validation_type;type:varchar(32)"`
	// ValidationConfig holds the rule parameters
	ValidationConfig datatypes.JSONType[domain.ValidationConfig] `gorm:"column:validation_config;type:jsonb"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Activity model
func (Activity) TableName() string {
	return "activities"
}

// Config returns the decoded validation config
func (a *Activity) Config() domain.ValidationConfig {
	return a.ValidationConfig.Data()
}
