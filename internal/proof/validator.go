package proof

import (
	"context"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// Verdict is a validator's decision about a resolved reference
type Verdict struct {
	Valid bool
	// Reason is shown to the user when the reference is not valid
	Reason string
	// Retryable means the same reference may succeed later, so it is kept out of the attempt ledger
	Retryable bool
	// Upstream means the provider failed; nothing is persisted
	Upstream bool
	RefCode  string
	// Details is stored with the proof for audit
	Details map[string]any
}

// Validator checks one kind of automatically validated proof. The orchestrator runs the same
// lifecycle around every implementation.
type Validator interface {
	// Method is the activity validation type the validator serves
	Method() domain.ValidationType
	// ProofType is the proof type persisted for its submissions
	ProofType() domain.ProofType
	// ReferenceName names the reference in user-facing messages, e.g. "transaction"
	ReferenceName() string
	// Resolve turns user input into the canonical reference; false when none can be extracted
	Resolve(input string) (string, bool)
	// Validate decides whether the reference proves the activity. A returned error is an unexpected fault.
	Validate(ctx context.Context, activity *schema.Activity, reference string) (Verdict, error)
}
