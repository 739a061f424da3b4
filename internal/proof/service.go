// Package proof runs the lifecycle of activity proofs: pre-flight checks, validation,
// approval with passport completion, reward payout and event publication.
package proof

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/adapter"
	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/lock"
	"github.com/swagly/proof-validator/internal/logger"
	"github.com/swagly/proof-validator/internal/messaging"
	"github.com/swagly/proof-validator/internal/reward"
	"github.com/swagly/proof-validator/internal/store"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// SubmitRequest is an automatic validation request
type SubmitRequest struct {
	UserID     string
	ActivityID string
	PassportID string
	// Input is the transaction link/hash or the referral link as entered by the user
	Input string
}

// ManualRequest submits text or image evidence for human review
type ManualRequest struct {
	UserID     string
	ActivityID string
	PassportID string
	ProofType  domain.ProofType
	Content    string
}

// ReviewRequest is an admin decision on a pending proof
type ReviewRequest struct {
	ProofID  string
	Approve  bool
	Reviewer string
	Reason   string
}

// Service is the proof lifecycle API used by transports
//
//go:generate mockgen -source=service.go -destination=../mocks/proof_service.go -package=mocks -mock_names=Service=MockProofService
type Service interface {
	// SubmitTransaction validates an auto_transaction activity from a transaction link or hash
	SubmitTransaction(ctx context.Context, req SubmitRequest) *Result
	// SubmitReferral validates an auto_referral_code activity from a referral link
	SubmitReferral(ctx context.Context, req SubmitRequest) *Result
	// SubmitManualProof stores evidence for a manual activity as pending
	SubmitManualProof(ctx context.Context, req ManualRequest) *Result
	// ReviewProof approves or rejects a pending proof
	ReviewProof(ctx context.Context, req ReviewRequest) *Result
	// GetProof retrieves a proof; nil when it does not exist
	GetProof(ctx context.Context, id string) (*schema.ActivityProof, error)
}

type service struct {
	store       store.Store
	transaction Validator
	referral    Validator
	issuer      reward.Issuer
	publisher   messaging.Publisher
	locker      lock.Locker
	clock       adapter.Clock
}

// NewService creates the proof lifecycle service
func NewService(
	st store.Store,
	transactionValidator Validator,
	referralValidator Validator,
	issuer reward.Issuer,
	publisher messaging.Publisher,
	locker lock.Locker,
	clock adapter.Clock,
) Service {
	return &service{
		store:       st,
		transaction: transactionValidator,
		referral:    referralValidator,
		issuer:      issuer,
		publisher:   publisher,
		locker:      locker,
		clock:       clock,
	}
}

func (s *service) SubmitTransaction(ctx context.Context, req SubmitRequest) *Result {
	return s.submit(ctx, s.transaction, req)
}

func (s *service) SubmitReferral(ctx context.Context, req SubmitRequest) *Result {
	return s.submit(ctx, s.referral, req)
}

func (s *service) GetProof(ctx context.Context, id string) (*schema.ActivityProof, error) {
	return s.store.GetProof(ctx, id)
}

// submit runs the automatic validation pipeline. Pre-flight checks run cheapest first and before any
// network call; the unique indexes of the store back them up against concurrent submissions.
func (s *service) submit(ctx context.Context, v Validator, req SubmitRequest) (result *Result) {
	info := logger.SubmissionInfo{
		Method:     string(v.Method()),
		UserID:     req.UserID,
		ActivityID: req.ActivityID,
		PassportID: req.PassportID,
	}
	ctx = logger.WithSubmission(ctx, info)
	log := logger.ForSubmission(ctx, info)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("panic while validating proof: %v", r), info.Fields()...)
			result = internalError()
		}
	}()

	req.Input = strings.TrimSpace(req.Input)
	if req.UserID == "" || req.ActivityID == "" || req.PassportID == "" {
		return failure(OutcomeInvalidInput, "userId, activityId and passportId are required")
	}
	if req.Input == "" {
		return failure(OutcomeInvalidInput, fmt.Sprintf("Please provide a %s", v.ReferenceName()))
	}

	release, res := s.acquire(ctx, log, req.UserID, req.ActivityID, req.PassportID)
	if res != nil {
		return res
	}
	defer release()

	// 1. activity supports this method
	activity, err := s.store.GetActivity(ctx, req.ActivityID)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if activity == nil {
		return failure(OutcomeNotFound, "Activity not found")
	}
	if activity.ValidationType != v.Method() {
		return failure(OutcomeInvalidInput, "This activity does not support this validation method")
	}

	// 2. passport belongs to the user
	if res := s.checkPassport(ctx, info, req.UserID, req.PassportID); res != nil {
		return res
	}

	// 3. not completed yet
	approved, err := s.store.GetApprovedProof(ctx, req.UserID, req.ActivityID, req.PassportID)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if approved != nil {
		return alreadyCompleted(approved)
	}

	// 4. canonical reference
	reference, ok := v.Resolve(req.Input)
	if !ok {
		return failure(OutcomeInvalidInput, fmt.Sprintf("Could not extract a valid %s from the provided input", v.ReferenceName()))
	}
	log = log.With(zap.String("reference", reference))

	// 5. reference unused system wide
	holder, err := s.store.FindApprovedProofByReference(ctx, v.ProofType(), reference)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if holder != nil {
		return s.referenceUsed(ctx, v, req.UserID, holder)
	}

	// 6. not tried before by this user for this activity
	tried, err := s.store.HasAttempt(ctx, req.UserID, req.ActivityID, v.ProofType(), reference)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if tried {
		return failure(OutcomeConflict, fmt.Sprintf("You already submitted this %s for this activity. Please submit a different one.", v.ReferenceName()))
	}

	verdict, err := v.Validate(ctx, activity, reference)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if verdict.Upstream {
		return failure(OutcomeUpstreamError, verdict.Reason)
	}

	existingID, err := s.reusableProofID(ctx, req.UserID, req.ActivityID, req.PassportID)
	if err != nil {
		return s.fault(ctx, info, err)
	}

	now := s.clock.Now()
	input := store.SaveProofInput{
		ExistingProofID: existingID,
		UserID:          req.UserID,
		ActivityID:      req.ActivityID,
		PassportID:      req.PassportID,
		ProofType:       v.ProofType(),
		ValidatedBy:     stringPtr(domain.ValidatedByAuto),
		ValidatedAt:     &now,
		Details:         verdict.Details,
		RecordAttempt:   !verdict.Retryable,
		At:              now,
	}
	switch v.ProofType() {
	case domain.ProofTypeTransaction:
		input.TransactionHash = &reference
		input.TransactionURL = &req.Input
	case domain.ProofTypeReferral:
		input.ReferralURL = &reference
		if verdict.RefCode != "" {
			input.ReferralCode = &verdict.RefCode
		}
	}

	if !verdict.Valid {
		input.Status = domain.ProofStatusRejected
		input.RejectionReason = &verdict.Reason

		proof, err := s.store.SaveProof(ctx, input)
		if err != nil {
			return s.saveFailure(ctx, info, v, err)
		}

		log.Info("Proof rejected", zap.String("proof_id", proof.ID), zap.String("reason", verdict.Reason))
		s.publish(ctx, proof)
		return resultFromProof(OutcomeRejected, proof)
	}

	input.Status = domain.ProofStatusApproved
	input.TokensAwarded = activity.NumOfTokens

	proof, err := s.store.SaveProof(ctx, input)
	if err != nil {
		return s.saveFailure(ctx, info, v, err)
	}
	log.Info("Proof approved", zap.String("proof_id", proof.ID), zap.Int("tokens_awarded", proof.TokensAwarded))

	// the approval is committed before payout, so a lost race never pays
	proof.RewardTxHash = s.payReward(ctx, info, proof)
	s.publish(ctx, proof)

	return resultFromProof(OutcomeApproved, proof)
}

// SubmitManualProof stores text or image evidence as a pending proof awaiting review
func (s *service) SubmitManualProof(ctx context.Context, req ManualRequest) (result *Result) {
	info := logger.SubmissionInfo{
		Method:     string(domain.ValidationTypeManual),
		UserID:     req.UserID,
		ActivityID: req.ActivityID,
		PassportID: req.PassportID,
	}
	ctx = logger.WithSubmission(ctx, info)
	log := logger.ForSubmission(ctx, info)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("panic while submitting manual proof: %v", r), info.Fields()...)
			result = internalError()
		}
	}()

	req.Content = strings.TrimSpace(req.Content)
	if req.UserID == "" || req.ActivityID == "" || req.PassportID == "" {
		return failure(OutcomeInvalidInput, "userId, activityId and passportId are required")
	}
	if !domain.IsManualProofType(req.ProofType) {
		return failure(OutcomeInvalidInput, "proofType must be text or image")
	}
	if req.Content == "" {
		return failure(OutcomeInvalidInput, "Please provide the proof content")
	}

	release, res := s.acquire(ctx, log, req.UserID, req.ActivityID, req.PassportID)
	if res != nil {
		return res
	}
	defer release()

	activity, err := s.store.GetActivity(ctx, req.ActivityID)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if activity == nil {
		return failure(OutcomeNotFound, "Activity not found")
	}
	if activity.ValidationType != domain.ValidationTypeManual {
		return failure(OutcomeInvalidInput, "This activity does not support this validation method")
	}

	if res := s.checkPassport(ctx, info, req.UserID, req.PassportID); res != nil {
		return res
	}

	approved, err := s.store.GetApprovedProof(ctx, req.UserID, req.ActivityID, req.PassportID)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if approved != nil {
		return alreadyCompleted(approved)
	}

	existingID, err := s.reusableProofID(ctx, req.UserID, req.ActivityID, req.PassportID)
	if err != nil {
		return s.fault(ctx, info, err)
	}

	proof, err := s.store.SaveProof(ctx, store.SaveProofInput{
		ExistingProofID: existingID,
		UserID:          req.UserID,
		ActivityID:      req.ActivityID,
		PassportID:      req.PassportID,
		ProofType:       req.ProofType,
		Status:          domain.ProofStatusPending,
		Content:         &req.Content,
		At:              s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return failure(OutcomeConflict, "This proof was updated by another submission. Please try again.")
		}
		return s.fault(ctx, info, err)
	}

	log.Info("Manual proof submitted", zap.String("proof_id", proof.ID))
	return resultFromProof(OutcomePending, proof)
}

// ReviewProof performs the terminal transition of a pending manual proof
func (s *service) ReviewProof(ctx context.Context, req ReviewRequest) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("panic while reviewing proof: %v", r), zap.String("proof_id", req.ProofID))
			result = internalError()
		}
	}()

	req.Reason = strings.TrimSpace(req.Reason)
	if req.ProofID == "" || req.Reviewer == "" {
		return failure(OutcomeInvalidInput, "proofId and reviewer are required")
	}
	if !req.Approve && req.Reason == "" {
		return failure(OutcomeInvalidInput, "A reason is required to reject a proof")
	}

	proof, err := s.store.GetProof(ctx, req.ProofID)
	if err != nil {
		return s.reviewFault(ctx, req, err)
	}
	if proof == nil {
		return failure(OutcomeNotFound, "Proof not found")
	}

	info := logger.SubmissionInfo{
		Method:     "review",
		UserID:     proof.UserID,
		ActivityID: proof.ActivityID,
		PassportID: proof.PassportID,
	}
	ctx = logger.WithSubmission(ctx, info)

	input := store.ReviewInput{
		ProofID:  proof.ID,
		Status:   domain.ProofStatusRejected,
		Reviewer: req.Reviewer,
		At:       s.clock.Now(),
	}
	if req.Approve {
		activity, err := s.store.GetActivity(ctx, proof.ActivityID)
		if err != nil {
			return s.fault(ctx, info, err)
		}
		if activity == nil {
			return failure(OutcomeNotFound, "Activity not found")
		}
		input.Status = domain.ProofStatusApproved
		input.TokensAwarded = activity.NumOfTokens
	} else {
		input.RejectionReason = &req.Reason
	}

	reviewed, err := s.store.ReviewProof(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			return failure(OutcomeConflict, "This proof is not pending review")
		case errors.Is(err, domain.ErrProofAlreadyApproved):
			return failure(OutcomeConflict, "This activity has already been completed with another proof")
		default:
			return s.fault(ctx, info, err)
		}
	}

	logger.ForSubmission(ctx, info).Info("Proof reviewed",
		zap.String("proof_id", reviewed.ID),
		zap.String("status", string(reviewed.Status)),
		zap.String("reviewer", req.Reviewer))

	outcome := OutcomeRejected
	if reviewed.Status == domain.ProofStatusApproved {
		outcome = OutcomeApproved
		reviewed.RewardTxHash = s.payReward(ctx, info, reviewed)
	}
	s.publish(ctx, reviewed)

	return resultFromProof(outcome, reviewed)
}

// acquire takes the per-submission lock. Lock infrastructure failures are logged and the
// submission proceeds unlocked.
func (s *service) acquire(ctx context.Context, log *zap.Logger, userID, activityID, passportID string) (lock.ReleaseFunc, *Result) {
	release, err := s.locker.Acquire(ctx, lock.SubmissionKey(userID, activityID, passportID))
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionInProgress) {
			return nil, failure(OutcomeConflict, "A submission for this activity is already being processed")
		}
		log.Warn("Failed to acquire submission lock, continuing without it", zap.Error(err))
		return func() {}, nil
	}
	return release, nil
}

func (s *service) checkPassport(ctx context.Context, info logger.SubmissionInfo, userID, passportID string) *Result {
	passport, err := s.store.GetPassport(ctx, passportID)
	if err != nil {
		return s.fault(ctx, info, err)
	}
	if passport == nil || passport.UserID != userID {
		return failure(OutcomeNotFound, "Passport not found")
	}
	return nil
}

// reusableProofID returns the latest pending or rejected proof of the tuple, which is updated in place
func (s *service) reusableProofID(ctx context.Context, userID, activityID, passportID string) (*string, error) {
	latest, err := s.store.GetLatestProof(ctx, userID, activityID, passportID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Status == domain.ProofStatusApproved {
		return nil, nil
	}
	id := latest.ID
	return &id, nil
}

// referenceUsed builds the duplicate message. The same user learns which activity holds the reference;
// other users learn nothing about the holder.
func (s *service) referenceUsed(ctx context.Context, v Validator, userID string, holder *schema.ActivityProof) *Result {
	if holder.UserID != userID {
		return failure(OutcomeConflict, fmt.Sprintf("This %s has already been used by another user", v.ReferenceName()))
	}

	name := holder.ActivityID
	activity, err := s.store.GetActivity(ctx, holder.ActivityID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load activity for duplicate message", zap.String("activity_id", holder.ActivityID), zap.Error(err))
	} else if activity != nil && activity.Name != "" {
		name = activity.Name
	}

	return failure(OutcomeConflict, fmt.Sprintf("You already used this %s for the activity %q", v.ReferenceName(), name))
}

// saveFailure maps store errors raised by the unique indexes when a concurrent submission won
func (s *service) saveFailure(ctx context.Context, info logger.SubmissionInfo, v Validator, err error) *Result {
	switch {
	case errors.Is(err, domain.ErrProofAlreadyApproved):
		return failure(OutcomeConflict, "You have already completed this activity")
	case errors.Is(err, domain.ErrReferenceAlreadyUsed):
		return failure(OutcomeConflict, fmt.Sprintf("This %s has already been used", v.ReferenceName()))
	case errors.Is(err, domain.ErrInvalidTransition):
		return failure(OutcomeConflict, "This proof was updated by another submission. Please try again.")
	default:
		return s.fault(ctx, info, err)
	}
}

// payReward issues the activity reward. Failures are logged and leave RewardTxHash nil for the
// reconciliation sweeper; they never fail the approval.
func (s *service) payReward(ctx context.Context, info logger.SubmissionInfo, proof *schema.ActivityProof) *string {
	if proof.TokensAwarded <= 0 {
		return nil
	}

	fields := append(info.Fields(), zap.String("proof_id", proof.ID), zap.Int("tokens_awarded", proof.TokensAwarded))

	user, err := s.store.GetUser(ctx, proof.UserID)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to load reward receiver: %w", err), fields...)
		return nil
	}
	if user == nil || user.WalletAddress == "" {
		logger.ErrorCtx(ctx, errors.New("reward receiver has no wallet address"), fields...)
		return nil
	}

	txHash, err := s.issuer.Issue(ctx, reward.IssueRequest{
		ReceiverAddress: user.WalletAddress,
		Quantity:        proof.TokensAwarded,
		IdempotencyKey:  proof.ID,
	})
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("reward issuance failed: %w", err), fields...)
		return nil
	}

	if _, err := s.store.SetRewardTxHash(ctx, proof.ID, txHash); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record reward tx hash %s: %w", txHash, err), fields...)
	}

	logger.InfoCtx(ctx, "Reward issued", append(fields, zap.String("reward_tx_hash", txHash))...)
	return &txHash
}

func (s *service) publish(ctx context.Context, proof *schema.ActivityProof) {
	event := &domain.ProofEvent{
		ProofID:       proof.ID,
		UserID:        proof.UserID,
		ActivityID:    proof.ActivityID,
		PassportID:    proof.PassportID,
		ProofType:     proof.ProofType,
		Status:        proof.Status,
		Reference:     proof.Reference(),
		TokensAwarded: proof.TokensAwarded,
		RewardTxHash:  proof.RewardTxHash,
		Timestamp:     s.clock.Now(),
	}
	if proof.RejectionReason != nil {
		event.Reason = *proof.RejectionReason
	}
	if proof.ValidatedBy != nil {
		event.ValidatedBy = *proof.ValidatedBy
	}

	if err := s.publisher.PublishProofEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish proof event", zap.String("proof_id", proof.ID), zap.Error(err))
	}
}

func (s *service) fault(ctx context.Context, info logger.SubmissionInfo, err error) *Result {
	logger.ErrorCtx(ctx, err, info.Fields()...)
	return internalError()
}

func (s *service) reviewFault(ctx context.Context, req ReviewRequest, err error) *Result {
	logger.ErrorCtx(ctx, err, zap.String("proof_id", req.ProofID))
	return internalError()
}

func alreadyCompleted(approved *schema.ActivityProof) *Result {
	return &Result{
		Outcome:       OutcomeConflict,
		ProofID:       approved.ID,
		Status:        approved.Status,
		TokensAwarded: approved.TokensAwarded,
		RewardTxHash:  approved.RewardTxHash,
		Error:         "You have already completed this activity",
	}
}

func stringPtr(s string) *string {
	return &s
}
