package bonus_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wesell-system/internal/bonus"
)

func money(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func purchased(price int64, date time.Time) bonus.ClientRecord {
	return bonus.ClientRecord{Price: money(price), Purchased: true, PurchaseDate: date}
}

func TestMonthlyStats_SumsOnlyPurchasedInCurrentMonth(t *testing.T) {
	// GIVEN: purchases this month, a purchase last month, and a non-purchase
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	records := []bonus.ClientRecord{
		purchased(1790, now),
		purchased(5200, now.AddDate(0, 0, -3)),
		purchased(7700, now.AddDate(0, -1, 0)),
		{Price: money(1490), Purchased: false, PurchaseDate: now},
	}

	// WHEN
	stats, err := bonus.CalculateMonthlyStats(records, now)
	require.NoError(t, err)

	// THEN: only the two in-month purchases count
	assert.True(t, stats.TotalSales.Equal(money(6990)), "totalSales = %s", stats.TotalSales)
	assert.Equal(t, 2, stats.ClientCount)
}

func TestMonthlyStats_TierLiteral(t *testing.T) {
	// GIVEN: 55000 in monthly sales against the 50000/60000 rungs
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	records := []bonus.ClientRecord{purchased(55000, now)}

	stats, err := bonus.CalculateMonthlyStats(records, now)
	require.NoError(t, err)

	assert.True(t, stats.CurrentBonus.Equal(money(1700)))
	assert.True(t, stats.NextTierThreshold.Equal(money(60000)))
	assert.True(t, stats.NextTierBonus.Equal(money(2200)))
	assert.InDelta(t, 91.67, stats.ProgressPercentage, 0.01)
}

func TestMonthlyStats_BelowFirstTier(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	records := []bonus.ClientRecord{purchased(10000, now)}

	stats, err := bonus.CalculateMonthlyStats(records, now)
	require.NoError(t, err)

	assert.True(t, stats.CurrentBonus.IsZero())
	assert.True(t, stats.NextTierThreshold.Equal(money(50000)))
	assert.True(t, stats.NextTierBonus.Equal(money(1700)))
	assert.InDelta(t, 20.0, stats.ProgressPercentage, 0.001)
}

func TestMonthlyStats_TopTierCapsAtOneHundredPercent(t *testing.T) {
	// GIVEN: sales beyond the top tier
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	records := []bonus.ClientRecord{purchased(250000, now)}

	stats, err := bonus.CalculateMonthlyStats(records, now)
	require.NoError(t, err)

	// THEN: next-tier values pin to the top tier, progress caps at 100
	assert.True(t, stats.CurrentBonus.Equal(money(6600)))
	assert.True(t, stats.NextTierThreshold.Equal(money(120000)))
	assert.True(t, stats.NextTierBonus.Equal(money(6600)))
	assert.Equal(t, 100.0, stats.ProgressPercentage)
}

func TestMonthlyStats_EmptyInput(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	stats, err := bonus.CalculateMonthlyStats(nil, now)
	require.NoError(t, err)

	assert.True(t, stats.TotalSales.IsZero())
	assert.Equal(t, 0, stats.ClientCount)
	assert.True(t, stats.CurrentBonus.IsZero())
	assert.Equal(t, 0.0, stats.ProgressPercentage)
}

func TestMonthlyStats_NegativePriceRejected(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	records := []bonus.ClientRecord{purchased(-100, now)}

	_, err := bonus.CalculateMonthlyStats(records, now)
	assert.ErrorIs(t, err, bonus.ErrNegativePrice)
}

func TestMonthlyStats_ProgressAlwaysWithinBounds(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	for _, amount := range []int64{0, 1, 49999, 50000, 59999, 60000, 119999, 120000, 1000000} {
		stats, err := bonus.CalculateMonthlyStats([]bonus.ClientRecord{purchased(amount, now)}, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.ProgressPercentage, 0.0, "amount %d", amount)
		assert.LessOrEqual(t, stats.ProgressPercentage, 100.0, "amount %d", amount)
	}
}

func TestCurrentTier_Lookup(t *testing.T) {
	assert.Nil(t, bonus.CurrentTier(money(49999)))

	tier := bonus.CurrentTier(money(50000))
	require.NotNil(t, tier)
	assert.Equal(t, "Bronze", tier.Name)

	tier = bonus.CurrentTier(money(95000))
	require.NotNil(t, tier)
	assert.Equal(t, "Diamond", tier.Name)

	tier = bonus.CurrentTier(money(500000))
	require.NotNil(t, tier)
	assert.Equal(t, "Grand Master", tier.Name)
}
