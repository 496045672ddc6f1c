package bonus

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNegativePrice = errors.New("client record has a negative price")

// ClientRecord is the slice of a client document the calculators care about.
type ClientRecord struct {
	Price        decimal.Decimal
	Purchased    bool
	PurchaseDate time.Time
}

type MonthlyStats struct {
	TotalSales         decimal.Decimal
	ClientCount        int
	CurrentBonus       decimal.Decimal
	NextTierThreshold  decimal.Decimal
	NextTierBonus      decimal.Decimal
	ProgressPercentage float64
}

// CalculateMonthlyStats aggregates the purchased records dated within now's
// calendar month and resolves the agent's position on the bonus ladder.
// Once the top tier is reached the "next" tier stays pinned at the top tier
// and progress caps at 100%.
func CalculateMonthlyStats(records []ClientRecord, now time.Time) (MonthlyStats, error) {
	month, year := now.Month(), now.Year()

	totalSales := decimal.Zero
	clientCount := 0
	for _, rec := range records {
		if rec.Price.IsNegative() {
			return MonthlyStats{}, ErrNegativePrice
		}
		if !rec.Purchased {
			continue
		}
		if rec.PurchaseDate.Month() != month || rec.PurchaseDate.Year() != year {
			continue
		}
		totalSales = totalSales.Add(rec.Price)
		clientCount++
	}

	currentBonus := decimal.Zero
	nextThreshold := Tiers[0].Threshold
	nextBonus := Tiers[0].Bonus

	for i := 0; i < len(Tiers); i++ {
		if totalSales.GreaterThanOrEqual(Tiers[i].Threshold) {
			currentBonus = Tiers[i].Bonus
			if i < len(Tiers)-1 {
				nextThreshold = Tiers[i+1].Threshold
				nextBonus = Tiers[i+1].Bonus
			} else {
				nextThreshold = Tiers[i].Threshold
				nextBonus = Tiers[i].Bonus
			}
		} else {
			nextThreshold = Tiers[i].Threshold
			nextBonus = Tiers[i].Bonus
			break
		}
	}

	return MonthlyStats{
		TotalSales:         totalSales,
		ClientCount:        clientCount,
		CurrentBonus:       currentBonus,
		NextTierThreshold:  nextThreshold,
		NextTierBonus:      nextBonus,
		ProgressPercentage: progressPercentage(totalSales, nextThreshold),
	}, nil
}

func progressPercentage(totalSales, nextThreshold decimal.Decimal) float64 {
	if nextThreshold.IsZero() {
		if totalSales.IsPositive() {
			return 100
		}
		return 0
	}
	pct, _ := totalSales.Div(nextThreshold).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
