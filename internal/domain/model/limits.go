package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

// ErrInvalidAssessmentInput is returned for negative or unknown assessment inputs.
var ErrInvalidAssessmentInput = errors.New("invalid assessment input")

// LimitProjection is the outcome of a limit check. It is never mutated.
type LimitProjection struct {
	BaseLimit       decimal.Decimal `json:"base_limit"`
	ProjectedLimit  decimal.Decimal `json:"projected_limit"`
	IncreasePercent int             `json:"increase_percent"`
}

// AssessmentInput is what the user declares for a credit assessment.
type AssessmentInput struct {
	MonthlyIncome   decimal.Decimal
	BusinessType    valueobject.BusinessType
	YearsInBusiness int
}

// Validate rejects negative amounts and unknown business types.
func (in AssessmentInput) Validate() error {
	if in.MonthlyIncome.IsNegative() {
		return fmt.Errorf("%w: monthly income must not be negative", ErrInvalidAssessmentInput)
	}
	if in.YearsInBusiness < 0 {
		return fmt.Errorf("%w: years in business must not be negative", ErrInvalidAssessmentInput)
	}
	if _, err := valueobject.NewBusinessType(string(in.BusinessType)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAssessmentInput, err)
	}
	return nil
}

// ScoreSource records which path produced an assessment.
type ScoreSource string

const (
	ScoreSourceModel    ScoreSource = "model"    // every field came from the scoring service
	ScoreSourcePartial  ScoreSource = "partial"  // some fields were defaulted
	ScoreSourceFallback ScoreSource = "fallback" // the scoring call failed
)

// ScoreReply is the decoded answer of the scoring service. Nil means the
// field was absent.
type ScoreReply struct {
	Score  *int
	Limit  *decimal.Decimal
	Reason string
}

// AssessmentResult is the score and eligible limit merged into a profile.
type AssessmentResult struct {
	CreditScore   int
	EligibleLimit decimal.Decimal
	Report        string
	Source        ScoreSource
}

// UpgradeTier is one priced package offered at checkout.
type UpgradeTier struct {
	ID    valueobject.TierID
	Limit decimal.Decimal
	Fee   decimal.Decimal
}

// DisplayName is the customer-facing package name.
func (t UpgradeTier) DisplayName() string { return t.ID.DisplayName() }
