package domain

import "errors"

var (
	// ErrProofNotFound is returned when a proof does not exist
	ErrProofNotFound = errors.New("proof not found")

	// ErrProofAlreadyApproved is returned when the (passport, activity) pair already has an approved proof
	ErrProofAlreadyApproved = errors.New("proof already approved")

	// ErrReferenceAlreadyUsed is returned when an approved proof already holds the same transaction or referral
	ErrReferenceAlreadyUsed = errors.New("reference already used by an approved proof")

	// ErrAttemptAlreadyRecorded is returned when the user already tried the same reference for the activity
	ErrAttemptAlreadyRecorded = errors.New("reference already submitted for this activity")

	// ErrInvalidTransition is returned when a proof is not in the expected status for a transition
	ErrInvalidTransition = errors.New("invalid proof status transition")

	// ErrSubmissionInProgress is returned when another submission for the same tuple holds the lock
	ErrSubmissionInProgress = errors.New("submission already in progress")
)
