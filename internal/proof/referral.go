package proof

import (
	"context"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/referral"
	"github.com/swagly/proof-validator/internal/store/schema"
)

// ReferralValidator validates activities proven by a referral link
type ReferralValidator struct {
	links *referral.Validator
}

// NewReferralValidator creates a referral validator
func NewReferralValidator(links *referral.Validator) *ReferralValidator {
	return &ReferralValidator{links: links}
}

func (v *ReferralValidator) Method() domain.ValidationType {
	return domain.ValidationTypeAutoReferralCode
}

func (v *ReferralValidator) ProofType() domain.ProofType {
	return domain.ProofTypeReferral
}

func (v *ReferralValidator) ReferenceName() string {
	return "referral link"
}

func (v *ReferralValidator) Resolve(input string) (string, bool) {
	return referral.Resolve(input)
}

func (v *ReferralValidator) Validate(_ context.Context, activity *schema.Activity, link string) (Verdict, error) {
	result := v.links.Validate(link, activity.Config().ReferralHosts)
	if !result.IsValid {
		return Verdict{Reason: result.Error}, nil
	}

	return Verdict{
		Valid:   true,
		RefCode: result.RefCode,
		Details: map[string]any{
			"refCode":     result.RefCode,
			"referralUrl": link,
		},
	}, nil
}
