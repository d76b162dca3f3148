package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
)

// FallbackPolicy holds the substitute values used when scoring is
// unavailable or incomplete. One limit serves both the total and the
// partial failure path.
type FallbackPolicy struct {
	Score         int
	Limit         decimal.Decimal
	Report        string // total failure
	PartialReport string // reply without a reason
}

// DefaultFallbackPolicy returns the production fallback values.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		Score:         650,
		Limit:         decimal.NewFromInt(12500),
		Report:        "Manual assessment logic applied.",
		PartialReport: "Eligibility confirmed based on turnover.",
	}
}

// AssessmentScorer turns assessment answers into a score and an eligible
// limit. The scoring service is asked first; whatever goes wrong there, a
// structurally valid result is returned within the timeout.
type AssessmentScorer struct {
	client  port.ScoringClient
	policy  FallbackPolicy
	timeout time.Duration
}

// NewAssessmentScorer creates an AssessmentScorer. A non-positive timeout
// means the caller's context alone bounds the call.
func NewAssessmentScorer(client port.ScoringClient, policy FallbackPolicy, timeout time.Duration) *AssessmentScorer {
	return &AssessmentScorer{client: client, policy: policy, timeout: timeout}
}

// Assess scores in. The only error is invalid input.
func (s *AssessmentScorer) Assess(ctx context.Context, in model.AssessmentInput) (model.AssessmentResult, error) {
	if err := in.Validate(); err != nil {
		return model.AssessmentResult{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.client.Score(ctx, AssessmentPrompt(in))
	if err != nil {
		return s.fallback(), nil
	}
	return s.merge(reply), nil
}

func (s *AssessmentScorer) fallback() model.AssessmentResult {
	return model.AssessmentResult{
		CreditScore:   s.policy.Score,
		EligibleLimit: s.policy.Limit,
		Report:        s.policy.Report,
		Source:        model.ScoreSourceFallback,
	}
}

// merge substitutes defaults for absent or zero fields only.
func (s *AssessmentScorer) merge(r model.ScoreReply) model.AssessmentResult {
	res := model.AssessmentResult{Source: model.ScoreSourceModel}

	if r.Score != nil && *r.Score != 0 {
		res.CreditScore = *r.Score
	} else {
		res.CreditScore = s.policy.Score
		res.Source = model.ScoreSourcePartial
	}

	if r.Limit != nil && !r.Limit.IsZero() {
		res.EligibleLimit = *r.Limit
	} else {
		res.EligibleLimit = s.policy.Limit
		res.Source = model.ScoreSourcePartial
	}

	if strings.TrimSpace(r.Reason) != "" {
		res.Report = r.Reason
	} else {
		res.Report = s.policy.PartialReport
		res.Source = model.ScoreSourcePartial
	}
	return res
}

// AssessmentPrompt renders the scoring request for in.
func AssessmentPrompt(in model.AssessmentInput) string {
	var b strings.Builder
	b.WriteString("Analyze credit risk for an M-Pesa user:\n")
	fmt.Fprintf(&b, "- Monthly Income: KES %s\n", in.MonthlyIncome.StringFixed(0))
	fmt.Fprintf(&b, "- Business: %s\n", in.BusinessType.Label())
	fmt.Fprintf(&b, "- Years Active: %d\n", in.YearsInBusiness)
	b.WriteString("Return a credit score between 300 and 850, a recommended overdraft limit in KES, and a one-sentence reason.")
	return b.String()
}
