package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// storeFixture is one isolated store plus a way to seed the tables the service only reads
type storeFixture struct {
	Store Store
	// Seed inserts users, activities, passports and passport activities
	Seed func(t *testing.T, rows ...any)
}

// =============================================================================
// Test Data Builders
// =============================================================================

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func buildTestActivity(id string, tokens int) schema.Activity {
	return schema.Activity{
		ID:                    id,
		Name:                  "Activity " + id,
		NumOfTokens:           tokens,
		ValidationType:        domain.ValidationTypeAutoTransaction,
		OnChainValidationType: domain.OnChainValidationUSDCTransfer,
		ValidationConfig:      datatypes.NewJSONType(domain.ValidationConfig{MinAmount: 25}),
		CreatedAt:             baseTime,
		UpdatedAt:             baseTime,
	}
}

// seedPassport seeds a user and a passport with the given activities attached
func seedPassport(t *testing.T, f storeFixture, userID, passportID string, activityIDs ...string) {
	rows := []any{
		schema.User{ID: userID, WalletAddress: "0x1111111111111111111111111111111111111111"},
		schema.Passport{ID: passportID, UserID: userID, EventID: "event-1", CreatedAt: baseTime, UpdatedAt: baseTime},
	}
	for _, id := range activityIDs {
		rows = append(rows, schema.PassportActivity{
			PassportID: passportID,
			ActivityID: id,
			Status:     domain.PassportActivityPending,
			CreatedAt:  baseTime,
			UpdatedAt:  baseTime,
		})
	}
	f.Seed(t, rows...)
}

func seedActivities(t *testing.T, f storeFixture, ids ...string) {
	rows := make([]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, buildTestActivity(id, 50))
	}
	f.Seed(t, rows...)
}

func txProofInput(userID, activityID, passportID, hash string, status domain.ProofStatus) SaveProofInput {
	in := SaveProofInput{
		UserID:          userID,
		ActivityID:      activityID,
		PassportID:      passportID,
		ProofType:       domain.ProofTypeTransaction,
		Status:          status,
		TransactionHash: strPtr(hash),
		TransactionURL:  strPtr("https://scrollscan.com/tx/" + hash),
		RecordAttempt:   true,
		At:              baseTime,
	}
	switch status {
	case domain.ProofStatusApproved:
		in.TokensAwarded = 50
		in.ValidatedBy = strPtr(domain.ValidatedByAuto)
		in.ValidatedAt = timePtr(baseTime)
		in.Details = map[string]any{"amount": "25"}
	case domain.ProofStatusRejected:
		in.RejectionReason = strPtr("No USDC transfer found in this transaction (minimum 25 USDC required)")
		in.ValidatedBy = strPtr(domain.ValidatedByAuto)
		in.ValidatedAt = timePtr(baseTime)
	}
	return in
}

const (
	hashA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// RunStoreTests runs the shared Store contract against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) storeFixture, cleanupDB func(t *testing.T)) {
	ctx := context.Background()

	t.Run("lookups return nil for missing rows", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)

		activity, err := f.Store.GetActivity(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, activity)

		passport, err := f.Store.GetPassport(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, passport)

		user, err := f.Store.GetUser(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, user)

		proof, err := f.Store.GetProof(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, proof)

		latest, err := f.Store.GetLatestProof(ctx, "u", "a", "p")
		require.NoError(t, err)
		assert.Nil(t, latest)

		byRef, err := f.Store.FindApprovedProofByReference(ctx, domain.ProofTypeTransaction, hashA)
		require.NoError(t, err)
		assert.Nil(t, byRef)

		byRef, err = f.Store.FindApprovedProofByReference(ctx, domain.ProofTypeText, "anything")
		require.NoError(t, err)
		assert.Nil(t, byRef)
	})

	t.Run("reads seeded rows", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1")
		seedPassport(t, f, "user-1", "pass-1", "act-1")

		activity, err := f.Store.GetActivity(ctx, "act-1")
		require.NoError(t, err)
		require.NotNil(t, activity)
		assert.Equal(t, 50, activity.NumOfTokens)
		assert.Equal(t, domain.OnChainValidationUSDCTransfer, activity.OnChainValidationType)
		assert.Equal(t, 25.0, activity.Config().MinAmount)

		passport, err := f.Store.GetPassport(ctx, "pass-1")
		require.NoError(t, err)
		require.NotNil(t, passport)
		assert.Equal(t, "user-1", passport.UserID)

		user, err := f.Store.GetUser(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.NotEmpty(t, user.WalletAddress)

		pa, err := f.Store.GetPassportActivity(ctx, "pass-1", "act-1")
		require.NoError(t, err)
		require.NotNil(t, pa)
		assert.Equal(t, domain.PassportActivityPending, pa.Status)
	})

	t.Run("rejected proof records the attempt", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1")
		seedPassport(t, f, "user-1", "pass-1", "act-1")

		proof, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusRejected))
		require.NoError(t, err)
		assert.NotEmpty(t, proof.ID)
		assert.Equal(t, domain.ProofStatusRejected, proof.Status)
		require.NotNil(t, proof.RejectionReason)

		tried, err := f.Store.HasAttempt(ctx, "user-1", "act-1", domain.ProofTypeTransaction, hashA)
		require.NoError(t, err)
		assert.True(t, tried)

		tried, err = f.Store.HasAttempt(ctx, "user-1", "act-1", domain.ProofTypeTransaction, hashB)
		require.NoError(t, err)
		assert.False(t, tried)

		latest, err := f.Store.GetLatestProof(ctx, "user-1", "act-1", "pass-1")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, proof.ID, latest.ID)

		approved, err := f.Store.GetApprovedProof(ctx, "user-1", "act-1", "pass-1")
		require.NoError(t, err)
		assert.Nil(t, approved)

		pa, err := f.Store.GetPassportActivity(ctx, "pass-1", "act-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PassportActivityPending, pa.Status)
	})

	t.Run("resubmission updates the rejected proof in place and completes the passport", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1", "act-2", "act-3", "act-4")
		seedPassport(t, f, "user-1", "pass-1", "act-1", "act-2", "act-3", "act-4")

		// act-2 completed earlier
		_, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-2", "pass-1", hashB, domain.ProofStatusApproved))
		require.NoError(t, err)

		rejected, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashA[:65]+"1", domain.ProofStatusRejected))
		require.NoError(t, err)

		in := txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved)
		in.ExistingProofID = &rejected.ID
		approved, err := f.Store.SaveProof(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, rejected.ID, approved.ID)
		assert.Equal(t, domain.ProofStatusApproved, approved.Status)
		assert.Nil(t, approved.RejectionReason)
		assert.Equal(t, hashA, *approved.TransactionHash)
		assert.Equal(t, 50, approved.TokensAwarded)
		assert.Nil(t, approved.RewardTxHash)

		pa, err := f.Store.GetPassportActivity(ctx, "pass-1", "act-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PassportActivityCompleted, pa.Status)
		require.NotNil(t, pa.ProofID)
		assert.Equal(t, approved.ID, *pa.ProofID)

		passport, err := f.Store.GetPassport(ctx, "pass-1")
		require.NoError(t, err)
		assert.Equal(t, 50, passport.Progress)

		// both references are in the attempt ledger
		for _, ref := range []string{hashA, hashA[:65] + "1"} {
			tried, err := f.Store.HasAttempt(ctx, "user-1", "act-1", domain.ProofTypeTransaction, ref)
			require.NoError(t, err)
			assert.True(t, tried, ref)
		}
	})

	t.Run("approved proof is write-once per tuple", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1")
		seedPassport(t, f, "user-1", "pass-1", "act-1")

		first, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved))
		require.NoError(t, err)

		_, err = f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashB, domain.ProofStatusApproved))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUniqueViolation))
		assert.True(t, errors.Is(err, domain.ErrProofAlreadyApproved))

		in := txProofInput("user-1", "act-1", "pass-1", hashB, domain.ProofStatusRejected)
		in.ExistingProofID = &first.ID
		_, err = f.Store.SaveProof(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		stored, err := f.Store.GetProof(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ProofStatusApproved, stored.Status)
		assert.Equal(t, hashA, *stored.TransactionHash)
	})

	t.Run("transaction hash backs one approved proof system wide", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1")
		seedPassport(t, f, "user-1", "pass-1", "act-1")
		seedPassport(t, f, "user-2", "pass-2", "act-1")

		approved, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved))
		require.NoError(t, err)

		_, err = f.Store.SaveProof(ctx, txProofInput("user-2", "act-1", "pass-2", hashA, domain.ProofStatusApproved))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrReferenceAlreadyUsed))

		// rejected proofs may share the hash
		_, err = f.Store.SaveProof(ctx, txProofInput("user-2", "act-1", "pass-2", hashA, domain.ProofStatusRejected))
		require.NoError(t, err)

		found, err := f.Store.FindApprovedProofByReference(ctx, domain.ProofTypeTransaction, hashA)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, approved.ID, found.ID)

		passport, err := f.Store.GetPassport(ctx, "pass-2")
		require.NoError(t, err)
		assert.Equal(t, 0, passport.Progress)
	})

	t.Run("referral url backs one approved proof system wide", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1", "act-2")
		seedPassport(t, f, "user-1", "pass-1", "act-1", "act-2")

		link := "https://partner.xyz/r/ABC123"
		in := SaveProofInput{
			UserID:        "user-1",
			ActivityID:    "act-1",
			PassportID:    "pass-1",
			ProofType:     domain.ProofTypeReferral,
			Status:        domain.ProofStatusApproved,
			ReferralURL:   &link,
			ReferralCode:  strPtr("ABC123"),
			ValidatedAt:   timePtr(baseTime),
			RecordAttempt: true,
			At:            baseTime,
		}
		_, err := f.Store.SaveProof(ctx, in)
		require.NoError(t, err)

		in.ActivityID = "act-2"
		_, err = f.Store.SaveProof(ctx, in)
		assert.ErrorIs(t, err, domain.ErrReferenceAlreadyUsed)

		found, err := f.Store.FindApprovedProofByReference(ctx, domain.ProofTypeReferral, link)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "act-1", found.ActivityID)

		tried, err := f.Store.HasAttempt(ctx, "user-1", "act-1", domain.ProofTypeReferral, link)
		require.NoError(t, err)
		assert.True(t, tried)
	})

	t.Run("review moves pending proofs once", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1", "act-2")
		seedPassport(t, f, "user-1", "pass-1", "act-1", "act-2")

		pending, err := f.Store.SaveProof(ctx, SaveProofInput{
			UserID:     "user-1",
			ActivityID: "act-1",
			PassportID: "pass-1",
			ProofType:  domain.ProofTypeText,
			Status:     domain.ProofStatusPending,
			Content:    strPtr("I visited the booth"),
			At:         baseTime,
		})
		require.NoError(t, err)
		assert.Nil(t, pending.ValidatedAt)

		reviewed, err := f.Store.ReviewProof(ctx, ReviewInput{
			ProofID:       pending.ID,
			Status:        domain.ProofStatusApproved,
			Reviewer:      "admin@swagly.xyz",
			TokensAwarded: 50,
			At:            baseTime.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProofStatusApproved, reviewed.Status)
		require.NotNil(t, reviewed.ValidatedBy)
		assert.Equal(t, "admin@swagly.xyz", *reviewed.ValidatedBy)

		passport, err := f.Store.GetPassport(ctx, "pass-1")
		require.NoError(t, err)
		assert.Equal(t, 50, passport.Progress)

		_, err = f.Store.ReviewProof(ctx, ReviewInput{
			ProofID:  pending.ID,
			Status:   domain.ProofStatusRejected,
			Reviewer: "admin@swagly.xyz",
			At:       baseTime.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = f.Store.ReviewProof(ctx, ReviewInput{ProofID: "missing", Status: domain.ProofStatusApproved, At: baseTime})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = f.Store.ReviewProof(ctx, ReviewInput{ProofID: pending.ID, Status: domain.ProofStatusPending, At: baseTime})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("review rejection leaves the passport untouched", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1")
		seedPassport(t, f, "user-1", "pass-1", "act-1")

		pending, err := f.Store.SaveProof(ctx, SaveProofInput{
			UserID:     "user-1",
			ActivityID: "act-1",
			PassportID: "pass-1",
			ProofType:  domain.ProofTypeImage,
			Status:     domain.ProofStatusPending,
			Content:    strPtr("https://cdn.swagly.xyz/proofs/1.png"),
			At:         baseTime,
		})
		require.NoError(t, err)

		reviewed, err := f.Store.ReviewProof(ctx, ReviewInput{
			ProofID:         pending.ID,
			Status:          domain.ProofStatusRejected,
			Reviewer:        "admin@swagly.xyz",
			RejectionReason: strPtr("Photo does not show the booth"),
			At:              baseTime,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProofStatusRejected, reviewed.Status)

		pa, err := f.Store.GetPassportActivity(ctx, "pass-1", "act-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PassportActivityPending, pa.Status)
	})

	t.Run("reward tx hash is set once", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1")
		seedPassport(t, f, "user-1", "pass-1", "act-1")

		proof, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved))
		require.NoError(t, err)

		updated, err := f.Store.SetRewardTxHash(ctx, proof.ID, "0x01")
		require.NoError(t, err)
		assert.True(t, updated)

		updated, err = f.Store.SetRewardTxHash(ctx, proof.ID, "0x02")
		require.NoError(t, err)
		assert.False(t, updated)

		stored, err := f.Store.GetProof(ctx, proof.ID)
		require.NoError(t, err)
		assert.Equal(t, "0x01", *stored.RewardTxHash)

		rejected, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashB, domain.ProofStatusRejected))
		require.NoError(t, err)
		updated, err = f.Store.SetRewardTxHash(ctx, rejected.ID, "0x03")
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("lists unrewarded proofs oldest first", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1", "act-2", "act-3")
		seedPassport(t, f, "user-1", "pass-1", "act-1", "act-2", "act-3")

		newer := txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved)
		newer.ValidatedAt = timePtr(baseTime.Add(-time.Minute))
		newerProof, err := f.Store.SaveProof(ctx, newer)
		require.NoError(t, err)

		older := txProofInput("user-1", "act-2", "pass-1", hashB, domain.ProofStatusApproved)
		older.ValidatedAt = timePtr(baseTime.Add(-time.Hour))
		olderProof, err := f.Store.SaveProof(ctx, older)
		require.NoError(t, err)

		// inside the grace period
		recent := txProofInput("user-1", "act-3", "pass-1", hashA[:65]+"c", domain.ProofStatusApproved)
		recent.ValidatedAt = timePtr(baseTime.Add(time.Minute))
		_, err = f.Store.SaveProof(ctx, recent)
		require.NoError(t, err)

		proofs, err := f.Store.ListUnrewardedProofs(ctx, baseTime, 10)
		require.NoError(t, err)
		require.Len(t, proofs, 2)
		assert.Equal(t, olderProof.ID, proofs[0].ID)
		assert.Equal(t, newerProof.ID, proofs[1].ID)

		proofs, err = f.Store.ListUnrewardedProofs(ctx, baseTime, 1)
		require.NoError(t, err)
		require.Len(t, proofs, 1)

		_, err = f.Store.SetRewardTxHash(ctx, olderProof.ID, "0x01")
		require.NoError(t, err)
		proofs, err = f.Store.ListUnrewardedProofs(ctx, baseTime, 10)
		require.NoError(t, err)
		require.Len(t, proofs, 1)
		assert.Equal(t, newerProof.ID, proofs[0].ID)
	})

	t.Run("attempted proofs move behind the backlog", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1", "act-2")
		seedPassport(t, f, "user-1", "pass-1", "act-1", "act-2")

		older := txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved)
		older.ValidatedAt = timePtr(baseTime.Add(-time.Hour))
		olderProof, err := f.Store.SaveProof(ctx, older)
		require.NoError(t, err)

		newer := txProofInput("user-1", "act-2", "pass-1", hashB, domain.ProofStatusApproved)
		newer.ValidatedAt = timePtr(baseTime.Add(-time.Minute))
		newerProof, err := f.Store.SaveProof(ctx, newer)
		require.NoError(t, err)

		require.NoError(t, f.Store.RecordRewardAttempt(ctx, olderProof.ID, baseTime))

		proofs, err := f.Store.ListUnrewardedProofs(ctx, baseTime, 1)
		require.NoError(t, err)
		require.Len(t, proofs, 1)
		assert.Equal(t, newerProof.ID, proofs[0].ID)

		require.NoError(t, f.Store.RecordRewardAttempt(ctx, newerProof.ID, baseTime.Add(time.Second)))
		proofs, err = f.Store.ListUnrewardedProofs(ctx, baseTime, 10)
		require.NoError(t, err)
		require.Len(t, proofs, 2)
		assert.Equal(t, olderProof.ID, proofs[0].ID)
		assert.Equal(t, 1, proofs[0].RewardAttempts)
		assert.Equal(t, newerProof.ID, proofs[1].ID)
	})

	t.Run("zero token proofs are never listed", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1")
		seedPassport(t, f, "user-1", "pass-1", "act-1")

		in := txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved)
		in.TokensAwarded = 0
		in.ValidatedAt = timePtr(baseTime.Add(-time.Hour))
		_, err := f.Store.SaveProof(ctx, in)
		require.NoError(t, err)

		proofs, err := f.Store.ListUnrewardedProofs(ctx, baseTime, 10)
		require.NoError(t, err)
		assert.Empty(t, proofs)
	})

	t.Run("approval creates a missing passport activity", func(t *testing.T) {
		f := initDB(t)
		defer cleanupDB(t)
		seedActivities(t, f, "act-1", "act-2")
		seedPassport(t, f, "user-1", "pass-1", "act-2")

		_, err := f.Store.SaveProof(ctx, txProofInput("user-1", "act-1", "pass-1", hashA, domain.ProofStatusApproved))
		require.NoError(t, err)

		pa, err := f.Store.GetPassportActivity(ctx, "pass-1", "act-1")
		require.NoError(t, err)
		require.NotNil(t, pa)
		assert.Equal(t, domain.PassportActivityCompleted, pa.Status)

		passport, err := f.Store.GetPassport(ctx, "pass-1")
		require.NoError(t, err)
		assert.Equal(t, 50, passport.Progress)
	})
}

func TestProgress(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{2, 4, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 8, 38},
		{4, 4, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, schema.Progress(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}
