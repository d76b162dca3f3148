package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
	"github.com/barkshad/fuliza/pkg/money"
)

// ErrInvalidBaseLimit is returned for a base limit that is zero or negative.
var ErrInvalidBaseLimit = errors.New("base limit must be positive")

var (
	usageBonus    = decimal.RequireFromString("0.25")
	inflowBonus   = decimal.RequireFromString("0.20")
	stagnantBonus = decimal.RequireFromString("0.10")
	hundred       = decimal.NewFromInt(100)
)

// LimitProjectionEngine projects a new limit from behavioral signals.
//
// The usage bonus needs FrequentUser AND PayFast together; inflow and
// stagnation add independently, so the increase tops out at 55%. The result is
// rounded to the nearest 100. No ceiling is applied here; see CapProjection.
type LimitProjectionEngine struct{}

// NewLimitProjectionEngine creates a LimitProjectionEngine.
func NewLimitProjectionEngine() *LimitProjectionEngine {
	return &LimitProjectionEngine{}
}

// Project computes the projection for baseLimit.
func (e *LimitProjectionEngine) Project(baseLimit decimal.Decimal, s valueobject.BehavioralSignals) (model.LimitProjection, error) {
	if !baseLimit.IsPositive() {
		return model.LimitProjection{}, fmt.Errorf("%w: got %s", ErrInvalidBaseLimit, baseLimit)
	}

	increase := decimal.Zero
	if s.FrequentUser && s.PayFast {
		increase = increase.Add(usageBonus)
	}
	if s.HighInflow {
		increase = increase.Add(inflowBonus)
	}
	if s.Stagnant {
		increase = increase.Add(stagnantBonus)
	}

	raw := baseLimit.Mul(decimal.NewFromInt(1).Add(increase))
	return model.LimitProjection{
		BaseLimit:       baseLimit,
		ProjectedLimit:  money.RoundToStep(raw, hundred),
		IncreasePercent: int(increase.Mul(hundred).Round(0).IntPart()),
	}, nil
}

// CapProjection bounds a projection by an absolute ceiling. A zero or
// negative ceiling disables the cap. The projected limit never drops below
// the rounded base limit, and the reported increase is recomputed from the
// capped figure.
func CapProjection(p model.LimitProjection, ceiling decimal.Decimal) (model.LimitProjection, bool) {
	if !ceiling.IsPositive() || p.ProjectedLimit.LessThanOrEqual(ceiling) {
		return p, false
	}

	floor := money.RoundToStep(p.BaseLimit, hundred)
	capped := decimal.Max(ceiling, floor)
	if capped.Equal(p.ProjectedLimit) {
		return p, false
	}

	pct := 0
	if capped.GreaterThan(p.BaseLimit) {
		pct = int(capped.Div(p.BaseLimit).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(0).IntPart())
	}
	return model.LimitProjection{
		BaseLimit:       p.BaseLimit,
		ProjectedLimit:  capped,
		IncreasePercent: pct,
	}, true
}
