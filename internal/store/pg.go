package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// Unique indexes declared in db/init_pg_db.sql
const (
	constraintApprovedTuple    = "uq_activity_proofs_approved_tuple"
	constraintApprovedTx       = "uq_activity_proofs_approved_tx"
	constraintApprovedReferral = "uq_activity_proofs_approved_referral"
	constraintProofAttempts    = "uq_proof_attempts"

	pgUniqueViolation = "23505"
)

// reusableStatuses are the statuses a proof may be updated in place from
var reusableStatuses = []domain.ProofStatus{domain.ProofStatusPending, domain.ProofStatusRejected}

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, the defaults of NormalizeConnectionPoolSettings are used.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// TranslateError maps PostgreSQL unique violations to ErrUniqueViolation wrapped with the domain error
// of the violated index
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintApprovedTuple:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, domain.ErrProofAlreadyApproved)
		case constraintApprovedTx, constraintApprovedReferral:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, domain.ErrReferenceAlreadyUsed)
		case constraintProofAttempts:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, domain.ErrAttemptAlreadyRecorded)
		default:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
		}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}

	return err
}

// GetActivity retrieves an activity by ID
func (s *pgStore) GetActivity(ctx context.Context, id string) (*schema.Activity, error) {
	var activity schema.Activity
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &activity, nil
}

// GetPassport retrieves a passport by ID
func (s *pgStore) GetPassport(ctx context.Context, id string) (*schema.Passport, error) {
	var passport schema.Passport
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&passport).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get passport: %w", err)
	}
	return &passport, nil
}

// GetUser retrieves a user by ID
func (s *pgStore) GetUser(ctx context.Context, id string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetProof retrieves a proof by ID
func (s *pgStore) GetProof(ctx context.Context, id string) (*schema.ActivityProof, error) {
	var proof schema.ActivityProof
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get proof: %w", err)
	}
	return &proof, nil
}

// GetPassportActivity retrieves the activity entry of a passport
func (s *pgStore) GetPassportActivity(ctx context.Context, passportID, activityID string) (*schema.PassportActivity, error) {
	var pa schema.PassportActivity
	err := s.db.WithContext(ctx).
		Where("passport_id = ? AND activity_id = ?", passportID, activityID).
		First(&pa).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get passport activity: %w", err)
	}
	return &pa, nil
}

// GetApprovedProof retrieves the approved proof of a (user, activity, passport) tuple
func (s *pgStore) GetApprovedProof(ctx context.Context, userID, activityID, passportID string) (*schema.ActivityProof, error) {
	var proof schema.ActivityProof
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ? AND passport_id = ? AND status = ?",
			userID, activityID, passportID, domain.ProofStatusApproved).
		First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get approved proof: %w", err)
	}
	return &proof, nil
}

// GetLatestProof retrieves the most recent proof of a (user, activity, passport) tuple
func (s *pgStore) GetLatestProof(ctx context.Context, userID, activityID, passportID string) (*schema.ActivityProof, error) {
	var proof schema.ActivityProof
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ? AND passport_id = ?", userID, activityID, passportID).
		Order("created_at DESC, id DESC").
		First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest proof: %w", err)
	}
	return &proof, nil
}

// FindApprovedProofByReference retrieves the approved proof holding a transaction hash or referral URL
func (s *pgStore) FindApprovedProofByReference(ctx context.Context, proofType domain.ProofType, reference string) (*schema.ActivityProof, error) {
	var column string
	switch proofType {
	case domain.ProofTypeTransaction:
		column = "transaction_hash"
	case domain.ProofTypeReferral:
		column = "referral_url"
	default:
		return nil, nil
	}

	var proof schema.ActivityProof
	err := s.db.WithContext(ctx).
		Where(column+" = ? AND status = ?", reference, domain.ProofStatusApproved).
		First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find proof by reference: %w", err)
	}
	return &proof, nil
}

// HasAttempt reports whether the user already tried the reference for the activity
func (s *pgStore) HasAttempt(ctx context.Context, userID, activityID string, proofType domain.ProofType, reference string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.ProofAttempt{}).
		Where("user_id = ? AND activity_id = ? AND proof_type = ? AND reference = ?", userID, activityID, proofType, reference).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check proof attempt: %w", err)
	}
	return count > 0, nil
}

// SaveProof creates or updates a proof and, when approved, completes the passport activity
func (s *pgStore) SaveProof(ctx context.Context, input SaveProofInput) (*schema.ActivityProof, error) {
	details, err := marshalDetails(input.Details)
	if err != nil {
		return nil, err
	}

	var proof schema.ActivityProof
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.ExistingProofID != nil {
			res := tx.Model(&schema.ActivityProof{}).
				Where("id = ? AND user_id = ? AND activity_id = ? AND passport_id = ? AND status IN ?",
					*input.ExistingProofID, input.UserID, input.ActivityID, input.PassportID, reusableStatuses).
				Updates(map[string]any{
					"proof_type":       input.ProofType,
					"status":           input.Status,
					"transaction_hash": nullable(input.TransactionHash),
					"transaction_url":  nullable(input.TransactionURL),
					"referral_url":     nullable(input.ReferralURL),
					"referral_code":    nullable(input.ReferralCode),
					"content":          nullable(input.Content),
					"rejection_reason": nullable(input.RejectionReason),
					"tokens_awarded":   input.TokensAwarded,
					"reward_tx_hash":   nil,
					"validated_by":     nullable(input.ValidatedBy),
					"validated_at":     nullableTime(input.ValidatedAt),
					"details":          details,
					"updated_at":       input.At,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrInvalidTransition
			}

			if err := tx.Where("id = ?", *input.ExistingProofID).First(&proof).Error; err != nil {
				return err
			}
		} else {
			proof = schema.ActivityProof{
				ID:              uuid.NewString(),
				UserID:          input.UserID,
				ActivityID:      input.ActivityID,
				PassportID:      input.PassportID,
				ProofType:       input.ProofType,
				Status:          input.Status,
				TransactionHash: input.TransactionHash,
				TransactionURL:  input.TransactionURL,
				ReferralURL:     input.ReferralURL,
				ReferralCode:    input.ReferralCode,
				Content:         input.Content,
				RejectionReason: input.RejectionReason,
				TokensAwarded:   input.TokensAwarded,
				ValidatedBy:     input.ValidatedBy,
				ValidatedAt:     input.ValidatedAt,
				Details:         details,
				CreatedAt:       input.At,
				UpdatedAt:       input.At,
			}
			if err := tx.Create(&proof).Error; err != nil {
				return err
			}
		}

		if reference := input.Reference(); input.RecordAttempt && reference != "" {
			attempt := schema.ProofAttempt{
				UserID:     input.UserID,
				ActivityID: input.ActivityID,
				ProofType:  input.ProofType,
				Reference:  reference,
				CreatedAt:  input.At,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&attempt).Error; err != nil {
				return err
			}
		}

		if input.Status == domain.ProofStatusApproved {
			return completePassportActivity(tx, &proof, input.At)
		}
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}

	return &proof, nil
}

// ReviewProof moves a pending proof to its terminal status
func (s *pgStore) ReviewProof(ctx context.Context, input ReviewInput) (*schema.ActivityProof, error) {
	if input.Status != domain.ProofStatusApproved && input.Status != domain.ProofStatusRejected {
		return nil, domain.ErrInvalidTransition
	}

	var proof schema.ActivityProof
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&schema.ActivityProof{}).
			Where("id = ? AND status = ?", input.ProofID, domain.ProofStatusPending).
			Updates(map[string]any{
				"status":           input.Status,
				"rejection_reason": nullable(input.RejectionReason),
				"tokens_awarded":   input.TokensAwarded,
				"validated_by":     input.Reviewer,
				"validated_at":     input.At,
				"updated_at":       input.At,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidTransition
		}

		if err := tx.Where("id = ?", input.ProofID).First(&proof).Error; err != nil {
			return err
		}

		if input.Status == domain.ProofStatusApproved {
			return completePassportActivity(tx, &proof, input.At)
		}
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}

	return &proof, nil
}

// SetRewardTxHash records the payout transaction of an approved proof
func (s *pgStore) SetRewardTxHash(ctx context.Context, proofID, txHash string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&schema.ActivityProof{}).
		Where("id = ? AND status = ? AND reward_tx_hash IS NULL", proofID, domain.ProofStatusApproved).
		Updates(map[string]any{
			"reward_tx_hash": txHash,
			"updated_at":     gorm.Expr("now()"),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to set reward tx hash: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RecordRewardAttempt moves a proof behind the rest of the unrewarded backlog
func (s *pgStore) RecordRewardAttempt(ctx context.Context, proofID string, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&schema.ActivityProof{}).
		Where("id = ? AND reward_tx_hash IS NULL", proofID).
		Updates(map[string]any{
			"reward_attempts":     gorm.Expr("reward_attempts + 1"),
			"reward_attempted_at": at,
			"updated_at":          gorm.Expr("now()"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record reward attempt: %w", err)
	}
	return nil
}

// ListUnrewardedProofs lists approved proofs whose payout is missing, least recently attempted first
func (s *pgStore) ListUnrewardedProofs(ctx context.Context, validatedBefore time.Time, limit int) ([]*schema.ActivityProof, error) {
	var proofs []*schema.ActivityProof
	err := s.db.WithContext(ctx).
		Where("status = ? AND tokens_awarded > 0 AND reward_tx_hash IS NULL AND validated_at < ?",
			domain.ProofStatusApproved, validatedBefore).
		Order("reward_attempted_at ASC NULLS FIRST, validated_at ASC, id ASC").
		Limit(limit).
		Find(&proofs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unrewarded proofs: %w", err)
	}
	return proofs, nil
}

// completePassportActivity marks the proof's passport activity completed and recomputes the passport progress.
// The passport row is locked so concurrent completions on one passport count each other.
func completePassportActivity(tx *gorm.DB, proof *schema.ActivityProof, at time.Time) error {
	var passport schema.Passport
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", proof.PassportID).
		First(&passport).Error
	if err != nil {
		return fmt.Errorf("failed to lock passport: %w", err)
	}

	pa := schema.PassportActivity{
		PassportID:    proof.PassportID,
		ActivityID:    proof.ActivityID,
		Status:        domain.PassportActivityCompleted,
		RequiresProof: true,
		ProofID:       &proof.ID,
		CompletedAt:   &at,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "passport_id"}, {Name: "activity_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":       domain.PassportActivityCompleted,
			"proof_id":     proof.ID,
			"completed_at": at,
			"updated_at":   at,
		}),
	}).Create(&pa).Error
	if err != nil {
		return fmt.Errorf("failed to complete passport activity: %w", err)
	}

	var total, completed int64
	if err := tx.Model(&schema.PassportActivity{}).
		Where("passport_id = ?", proof.PassportID).
		Count(&total).Error; err != nil {
		return fmt.Errorf("failed to count passport activities: %w", err)
	}
	if err := tx.Model(&schema.PassportActivity{}).
		Where("passport_id = ? AND status = ?", proof.PassportID, domain.PassportActivityCompleted).
		Count(&completed).Error; err != nil {
		return fmt.Errorf("failed to count completed passport activities: %w", err)
	}

	err = tx.Model(&schema.Passport{}).
		Where("id = ?", proof.PassportID).
		Updates(map[string]any{
			"progress":   schema.Progress(int(completed), int(total)),
			"updated_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update passport progress: %w", err)
	}

	return nil
}

func marshalDetails(details map[string]any) (datatypes.JSON, error) {
	if len(details) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proof details: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
