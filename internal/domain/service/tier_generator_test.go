package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

func newGenerator(t *testing.T) *service.TierGenerator {
	t.Helper()
	g, err := service.NewTierGenerator(service.DefaultTierPolicy())
	require.NoError(t, err)
	return g
}

func expectedFee(limit decimal.Decimal) decimal.Decimal {
	return limit.Mul(decimal.RequireFromString("0.1")).Div(d(10)).Ceil().Mul(d(10))
}

func TestTierGenerator_Scenario50000(t *testing.T) {
	tiers := newGenerator(t).Generate(d(50_000))
	require.Len(t, tiers, 3)

	want := []struct {
		id    valueobject.TierID
		name  string
		limit int64
		fee   int64
	}{
		{valueobject.TierBronze, "Bronze Boost", 25_000, 2500},
		{valueobject.TierSilver, "Silver Boost", 37_500, 3750},
		{valueobject.TierGold, "Gold Boost", 50_000, 5000},
	}
	for i, w := range want {
		assert.Equal(t, w.id, tiers[i].ID)
		assert.Equal(t, w.name, tiers[i].DisplayName())
		assert.True(t, tiers[i].Limit.Equal(d(w.limit)), "%s limit %s", w.id, tiers[i].Limit)
		assert.True(t, tiers[i].Fee.Equal(d(w.fee)), "%s fee %s", w.id, tiers[i].Fee)
	}
}

func TestTierGenerator_OrderingAndFees(t *testing.T) {
	g := newGenerator(t)

	for _, max := range []int64{1000, 1001, 1999, 2000, 3050, 7777, 12_345, 50_000, 123_456, 1_000_000} {
		tiers := g.Generate(d(max))
		bronze, silver, gold := tiers[0], tiers[1], tiers[2]

		assert.True(t, bronze.Limit.LessThanOrEqual(silver.Limit), "max %d", max)
		assert.True(t, silver.Limit.LessThanOrEqual(gold.Limit), "max %d", max)
		assert.True(t, gold.Limit.Equal(d(max)), "max %d", max)

		for _, tier := range tiers {
			assert.True(t, tier.Fee.Equal(expectedFee(tier.Limit)), "max %d %s fee %s", max, tier.ID, tier.Fee)
		}
		assert.True(t, bronze.Fee.LessThanOrEqual(silver.Fee))
		assert.True(t, silver.Fee.LessThanOrEqual(gold.Fee))
	}
}

func TestTierGenerator_ClampsBelowMinimum(t *testing.T) {
	g := newGenerator(t)

	for _, max := range []int64{-500, 0, 1, 999} {
		tiers := g.Generate(d(max))
		assert.True(t, tiers[2].Limit.Equal(d(1000)), "max %d", max)
		assert.True(t, tiers[1].Limit.Equal(d(700)))
		assert.True(t, tiers[0].Limit.Equal(d(500)))
		assert.True(t, tiers[0].Fee.Equal(d(50)))
		assert.True(t, tiers[1].Fee.Equal(d(70)))
		assert.True(t, tiers[2].Fee.Equal(d(100)))
	}
}

func TestTierGenerator_FeeRoundsUp(t *testing.T) {
	g := newGenerator(t)
	assert.True(t, g.Fee(d(3050)).Equal(d(310)))
	assert.True(t, g.Fee(d(3000)).Equal(d(300)))
	assert.True(t, g.Fee(decimal.RequireFromString("1234.5")).Equal(d(130)))
}

func TestTierGenerator_Tier(t *testing.T) {
	g := newGenerator(t)

	silver, err := g.Tier(d(20_000), valueobject.TierSilver)
	require.NoError(t, err)
	assert.True(t, silver.Limit.Equal(d(15_000)))
	assert.True(t, silver.Fee.Equal(d(1500)))

	_, err = g.Tier(d(20_000), valueobject.TierID{})
	assert.ErrorIs(t, err, valueobject.ErrInvalidTier)
}

func TestTierGenerator_ResolveMaxLimit(t *testing.T) {
	g := newGenerator(t)
	proj := &model.LimitProjection{BaseLimit: d(1500), ProjectedLimit: d(2000), IncreasePercent: 35}

	assert.True(t, g.ResolveMaxLimit(proj, d(12_500)).Equal(d(2000)))
	assert.True(t, g.ResolveMaxLimit(nil, d(12_500)).Equal(d(12_500)))
	assert.True(t, g.ResolveMaxLimit(nil, decimal.Zero).Equal(d(3000)))
	assert.True(t, g.ResolveMaxLimit(&model.LimitProjection{}, decimal.Zero).Equal(d(3000)))
}

func TestTierPolicy_Validate(t *testing.T) {
	require.NoError(t, service.DefaultTierPolicy().Validate())

	alt := service.DefaultTierPolicy()
	alt.SilverRatio = decimal.RequireFromString("0.5")
	alt.BronzeRatio = decimal.RequireFromString("0.2")
	require.NoError(t, alt.Validate())

	inverted := service.DefaultTierPolicy()
	inverted.BronzeRatio = decimal.RequireFromString("0.9")
	_, err := service.NewTierGenerator(inverted)
	assert.Error(t, err)

	oversize := service.DefaultTierPolicy()
	oversize.SilverRatio = decimal.RequireFromString("1.2")
	assert.Error(t, oversize.Validate())
}

func TestTierGenerator_AlternateRatios(t *testing.T) {
	policy := service.DefaultTierPolicy()
	policy.SilverRatio = decimal.RequireFromString("0.5")
	policy.BronzeRatio = decimal.RequireFromString("0.2")
	g, err := service.NewTierGenerator(policy)
	require.NoError(t, err)

	tiers := g.Generate(d(50_000))
	assert.True(t, tiers[0].Limit.Equal(d(10_000)))
	assert.True(t, tiers[1].Limit.Equal(d(25_000)))
	assert.True(t, tiers[1].Fee.Equal(d(2500)))
}
