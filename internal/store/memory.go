package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/store/schema"
)

type attemptKey struct {
	userID     string
	activityID string
	proofType  domain.ProofType
	reference  string
}

// MemoryStore is an in-process Store enforcing the same unique constraints as the PostgreSQL schema.
// It backs local development and tests.
type MemoryStore struct {
	mu                 sync.RWMutex
	users              map[string]schema.User
	activities         map[string]schema.Activity
	passports          map[string]schema.Passport
	passportActivities map[string]schema.PassportActivity
	proofs             map[string]schema.ActivityProof
	attempts           map[attemptKey]time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:              make(map[string]schema.User),
		activities:         make(map[string]schema.Activity),
		passports:          make(map[string]schema.Passport),
		passportActivities: make(map[string]schema.PassportActivity),
		proofs:             make(map[string]schema.ActivityProof),
		attempts:           make(map[attemptKey]time.Time),
	}
}

func passportActivityKey(passportID, activityID string) string {
	return passportID + "/" + activityID
}

// PutUser inserts or replaces a user
func (m *MemoryStore) PutUser(user schema.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

// PutActivity inserts or replaces an activity
func (m *MemoryStore) PutActivity(activity schema.Activity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[activity.ID] = activity
}

// PutPassport inserts or replaces a passport
func (m *MemoryStore) PutPassport(passport schema.Passport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passports[passport.ID] = passport
}

// PutPassportActivity inserts or replaces a passport activity
func (m *MemoryStore) PutPassportActivity(pa schema.PassportActivity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pa.Status == "" {
		pa.Status = domain.PassportActivityPending
	}
	m.passportActivities[passportActivityKey(pa.PassportID, pa.ActivityID)] = pa
}

func (m *MemoryStore) GetActivity(_ context.Context, id string) (*schema.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *MemoryStore) GetPassport(_ context.Context, id string) (*schema.Passport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.passports[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*schema.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryStore) GetProof(_ context.Context, id string) (*schema.ActivityProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.proofs[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) GetPassportActivity(_ context.Context, passportID, activityID string) (*schema.PassportActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pa, ok := m.passportActivities[passportActivityKey(passportID, activityID)]
	if !ok {
		return nil, nil
	}
	return &pa, nil
}

func (m *MemoryStore) GetApprovedProof(_ context.Context, userID, activityID, passportID string) (*schema.ActivityProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.proofs {
		if p.UserID == userID && p.ActivityID == activityID && p.PassportID == passportID && p.Status == domain.ProofStatusApproved {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) GetLatestProof(_ context.Context, userID, activityID, passportID string) (*schema.ActivityProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *schema.ActivityProof
	for _, p := range m.proofs {
		if p.UserID != userID || p.ActivityID != activityID || p.PassportID != passportID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) ||
			(p.CreatedAt.Equal(latest.CreatedAt) && p.ID > latest.ID) {
			p := p
			latest = &p
		}
	}
	return latest, nil
}

func (m *MemoryStore) FindApprovedProofByReference(_ context.Context, proofType domain.ProofType, reference string) (*schema.ActivityProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.approvedByReference(proofType, reference, ""), nil
}

func (m *MemoryStore) HasAttempt(_ context.Context, userID, activityID string, proofType domain.ProofType, reference string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.attempts[attemptKey{userID, activityID, proofType, reference}]
	return ok, nil
}

func (m *MemoryStore) SaveProof(_ context.Context, input SaveProofInput) (*schema.ActivityProof, error) {
	details, err := marshalDetails(input.Details)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var proof schema.ActivityProof
	if input.ExistingProofID != nil {
		existing, ok := m.proofs[*input.ExistingProofID]
		if !ok || existing.UserID != input.UserID || existing.ActivityID != input.ActivityID ||
			existing.PassportID != input.PassportID ||
			(existing.Status != domain.ProofStatusPending && existing.Status != domain.ProofStatusRejected) {
			return nil, domain.ErrInvalidTransition
		}
		proof = existing
		proof.RewardTxHash = nil
		proof.UpdatedAt = input.At
	} else {
		proof = schema.ActivityProof{
			ID:         uuid.NewString(),
			UserID:     input.UserID,
			ActivityID: input.ActivityID,
			PassportID: input.PassportID,
			CreatedAt:  input.At,
			UpdatedAt:  input.At,
		}
	}

	proof.ProofType = input.ProofType
	proof.Status = input.Status
	proof.TransactionHash = copyString(input.TransactionHash)
	proof.TransactionURL = copyString(input.TransactionURL)
	proof.ReferralURL = copyString(input.ReferralURL)
	proof.ReferralCode = copyString(input.ReferralCode)
	proof.Content = copyString(input.Content)
	proof.RejectionReason = copyString(input.RejectionReason)
	proof.TokensAwarded = input.TokensAwarded
	proof.ValidatedBy = copyString(input.ValidatedBy)
	proof.ValidatedAt = copyTime(input.ValidatedAt)
	proof.Details = details

	if proof.Status == domain.ProofStatusApproved {
		if err := m.checkApprovedUnique(proof); err != nil {
			return nil, err
		}
		if err := m.checkPassport(proof.PassportID); err != nil {
			return nil, err
		}
	}

	m.proofs[proof.ID] = proof

	if reference := input.Reference(); input.RecordAttempt && reference != "" {
		key := attemptKey{input.UserID, input.ActivityID, input.ProofType, reference}
		if _, ok := m.attempts[key]; !ok {
			m.attempts[key] = input.At
		}
	}

	if proof.Status == domain.ProofStatusApproved {
		m.completePassportActivity(proof, input.At)
	}

	return &proof, nil
}

func (m *MemoryStore) ReviewProof(_ context.Context, input ReviewInput) (*schema.ActivityProof, error) {
	if input.Status != domain.ProofStatusApproved && input.Status != domain.ProofStatusRejected {
		return nil, domain.ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	proof, ok := m.proofs[input.ProofID]
	if !ok || proof.Status != domain.ProofStatusPending {
		return nil, domain.ErrInvalidTransition
	}

	reviewer := input.Reviewer
	at := input.At
	proof.Status = input.Status
	proof.RejectionReason = copyString(input.RejectionReason)
	proof.TokensAwarded = input.TokensAwarded
	proof.ValidatedBy = &reviewer
	proof.ValidatedAt = &at
	proof.UpdatedAt = at

	if proof.Status == domain.ProofStatusApproved {
		if err := m.checkApprovedUnique(proof); err != nil {
			return nil, err
		}
		if err := m.checkPassport(proof.PassportID); err != nil {
			return nil, err
		}
	}

	m.proofs[proof.ID] = proof
	if proof.Status == domain.ProofStatusApproved {
		m.completePassportActivity(proof, at)
	}

	return &proof, nil
}

func (m *MemoryStore) SetRewardTxHash(_ context.Context, proofID, txHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	proof, ok := m.proofs[proofID]
	if !ok || proof.Status != domain.ProofStatusApproved || proof.RewardTxHash != nil {
		return false, nil
	}
	proof.RewardTxHash = &txHash
	m.proofs[proofID] = proof
	return true, nil
}

func (m *MemoryStore) RecordRewardAttempt(_ context.Context, proofID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	proof, ok := m.proofs[proofID]
	if !ok || proof.RewardTxHash != nil {
		return nil
	}
	proof.RewardAttempts++
	proof.RewardAttemptedAt = &at
	m.proofs[proofID] = proof
	return nil
}

func (m *MemoryStore) ListUnrewardedProofs(_ context.Context, validatedBefore time.Time, limit int) ([]*schema.ActivityProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var proofs []*schema.ActivityProof
	for _, p := range m.proofs {
		if p.Status == domain.ProofStatusApproved && p.TokensAwarded > 0 && p.RewardTxHash == nil &&
			p.ValidatedAt != nil && p.ValidatedAt.Before(validatedBefore) {
			p := p
			proofs = append(proofs, &p)
		}
	}

	sort.Slice(proofs, func(i, j int) bool {
		ai, aj := proofs[i].RewardAttemptedAt, proofs[j].RewardAttemptedAt
		switch {
		case ai == nil && aj != nil:
			return true
		case ai != nil && aj == nil:
			return false
		case ai != nil && !ai.Equal(*aj):
			return ai.Before(*aj)
		}
		if !proofs[i].ValidatedAt.Equal(*proofs[j].ValidatedAt) {
			return proofs[i].ValidatedAt.Before(*proofs[j].ValidatedAt)
		}
		return proofs[i].ID < proofs[j].ID
	})

	if limit > 0 && len(proofs) > limit {
		proofs = proofs[:limit]
	}
	return proofs, nil
}

// checkApprovedUnique mirrors the partial unique indexes on approved proofs
func (m *MemoryStore) checkApprovedUnique(proof schema.ActivityProof) error {
	for _, p := range m.proofs {
		if p.ID == proof.ID || p.Status != domain.ProofStatusApproved {
			continue
		}
		if p.PassportID == proof.PassportID && p.ActivityID == proof.ActivityID {
			return fmt.Errorf("%w: %w", ErrUniqueViolation, domain.ErrProofAlreadyApproved)
		}
	}
	if m.approvedByReference(domain.ProofTypeTransaction, deref(proof.TransactionHash), proof.ID) != nil ||
		m.approvedByReference(domain.ProofTypeReferral, deref(proof.ReferralURL), proof.ID) != nil {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, domain.ErrReferenceAlreadyUsed)
	}
	return nil
}

func (m *MemoryStore) approvedByReference(proofType domain.ProofType, reference, excludeID string) *schema.ActivityProof {
	if reference == "" {
		return nil
	}
	for _, p := range m.proofs {
		if p.ID == excludeID || p.Status != domain.ProofStatusApproved {
			continue
		}
		var value string
		switch proofType {
		case domain.ProofTypeTransaction:
			value = deref(p.TransactionHash)
		case domain.ProofTypeReferral:
			value = deref(p.ReferralURL)
		}
		if value == reference {
			return &p
		}
	}
	return nil
}

func (m *MemoryStore) checkPassport(passportID string) error {
	if _, ok := m.passports[passportID]; !ok {
		return fmt.Errorf("failed to lock passport: passport %s not found", passportID)
	}
	return nil
}

func (m *MemoryStore) completePassportActivity(proof schema.ActivityProof, at time.Time) {
	key := passportActivityKey(proof.PassportID, proof.ActivityID)
	pa, ok := m.passportActivities[key]
	if !ok {
		pa = schema.PassportActivity{
			PassportID:    proof.PassportID,
			ActivityID:    proof.ActivityID,
			RequiresProof: true,
			CreatedAt:     at,
		}
	}
	proofID := proof.ID
	pa.Status = domain.PassportActivityCompleted
	pa.ProofID = &proofID
	pa.CompletedAt = &at
	pa.UpdatedAt = at
	m.passportActivities[key] = pa

	var total, completed int
	for _, entry := range m.passportActivities {
		if entry.PassportID != proof.PassportID {
			continue
		}
		total++
		if entry.Status == domain.PassportActivityCompleted {
			completed++
		}
	}

	passport := m.passports[proof.PassportID]
	passport.Progress = schema.Progress(completed, total)
	passport.UpdatedAt = at
	m.passports[proof.PassportID] = passport
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
