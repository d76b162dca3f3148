package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
	"github.com/barkshad/fuliza/pkg/money"
)

// TierPolicy holds the pricing knobs of the package generator.
type TierPolicy struct {
	SilverRatio   decimal.Decimal
	BronzeRatio   decimal.Decimal
	FeeRate       decimal.Decimal
	FeeStep       decimal.Decimal
	LimitStep     decimal.Decimal
	MinLimit      decimal.Decimal
	FallbackLimit decimal.Decimal
}

// DefaultTierPolicy returns the production pricing.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{
		SilverRatio:   decimal.RequireFromString("0.75"),
		BronzeRatio:   decimal.RequireFromString("0.5"),
		FeeRate:       decimal.RequireFromString("0.10"),
		FeeStep:       decimal.NewFromInt(10),
		LimitStep:     decimal.NewFromInt(100),
		MinLimit:      decimal.NewFromInt(1000),
		FallbackLimit: decimal.NewFromInt(3000),
	}
}

// Validate checks that the ratios keep bronze <= silver <= gold.
func (p TierPolicy) Validate() error {
	one := decimal.NewFromInt(1)
	switch {
	case !p.BronzeRatio.IsPositive() || p.BronzeRatio.GreaterThan(p.SilverRatio):
		return fmt.Errorf("tier policy: bronze ratio %s must be in (0, silver ratio]", p.BronzeRatio)
	case p.SilverRatio.GreaterThan(one):
		return fmt.Errorf("tier policy: silver ratio %s must not exceed 1", p.SilverRatio)
	case p.FeeRate.IsNegative():
		return errors.New("tier policy: fee rate must not be negative")
	case !p.FeeStep.IsPositive() || !p.LimitStep.IsPositive():
		return errors.New("tier policy: rounding steps must be positive")
	case !p.MinLimit.IsPositive():
		return errors.New("tier policy: minimum limit must be positive")
	}
	return nil
}

// TierGenerator prices Bronze, Silver and Gold packages from one limit.
// Every fee is FeeRate of the tier's own limit rounded up to FeeStep, so a
// bigger package never costs less.
type TierGenerator struct {
	policy TierPolicy
}

// NewTierGenerator creates a TierGenerator after validating policy.
func NewTierGenerator(policy TierPolicy) (*TierGenerator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &TierGenerator{policy: policy}, nil
}

// Policy returns the generator's pricing.
func (g *TierGenerator) Policy() TierPolicy { return g.policy }

// Generate returns the three tiers in ascending order. A maxLimit under
// MinLimit is raised to MinLimit first.
func (g *TierGenerator) Generate(maxLimit decimal.Decimal) []model.UpgradeTier {
	gold := decimal.Max(maxLimit, g.policy.MinLimit)
	silver := money.FloorToStep(gold.Mul(g.policy.SilverRatio), g.policy.LimitStep)
	bronze := money.FloorToStep(gold.Mul(g.policy.BronzeRatio), g.policy.LimitStep)

	return []model.UpgradeTier{
		{ID: valueobject.TierBronze, Limit: bronze, Fee: g.Fee(bronze)},
		{ID: valueobject.TierSilver, Limit: silver, Fee: g.Fee(silver)},
		{ID: valueobject.TierGold, Limit: gold, Fee: g.Fee(gold)},
	}
}

// Tier returns the single tier id out of Generate(maxLimit).
func (g *TierGenerator) Tier(maxLimit decimal.Decimal, id valueobject.TierID) (model.UpgradeTier, error) {
	for _, t := range g.Generate(maxLimit) {
		if t.ID == id {
			return t, nil
		}
	}
	return model.UpgradeTier{}, fmt.Errorf("%w: %q", valueobject.ErrInvalidTier, id)
}

// Fee is the service fee for a limit.
func (g *TierGenerator) Fee(limit decimal.Decimal) decimal.Decimal {
	return money.CeilToStep(limit.Mul(g.policy.FeeRate), g.policy.FeeStep)
}

// ResolveMaxLimit picks the base of tier generation: a fresh projection
// first, then the profile's eligible limit, then FallbackLimit.
func (g *TierGenerator) ResolveMaxLimit(projection *model.LimitProjection, profileLimit decimal.Decimal) decimal.Decimal {
	switch {
	case projection != nil && projection.ProjectedLimit.IsPositive():
		return projection.ProjectedLimit
	case profileLimit.IsPositive():
		return profileLimit
	default:
		return g.policy.FallbackLimit
	}
}
