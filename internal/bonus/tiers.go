package bonus

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier is one rung of the monthly incentive ladder. Threshold is the minimum
// cumulative monthly sales to qualify, Bonus the fixed payout at that rung.
type Tier struct {
	Threshold decimal.Decimal
	Bonus     decimal.Decimal
	Name      string
}

// Tiers is the process-wide bonus table, strictly ascending by threshold.
// It is constant configuration and is never mutated at runtime.
var Tiers = []Tier{
	{Threshold: decimal.NewFromInt(50000), Bonus: decimal.NewFromInt(1700), Name: "Bronze"},
	{Threshold: decimal.NewFromInt(60000), Bonus: decimal.NewFromInt(2200), Name: "Silver"},
	{Threshold: decimal.NewFromInt(70000), Bonus: decimal.NewFromInt(2700), Name: "Gold"},
	{Threshold: decimal.NewFromInt(80000), Bonus: decimal.NewFromInt(3300), Name: "Platinum"},
	{Threshold: decimal.NewFromInt(90000), Bonus: decimal.NewFromInt(4000), Name: "Diamond"},
	{Threshold: decimal.NewFromInt(100000), Bonus: decimal.NewFromInt(5600), Name: "Master"},
	{Threshold: decimal.NewFromInt(120000), Bonus: decimal.NewFromInt(6600), Name: "Grand Master"},
}

func init() {
	for i := 1; i < len(Tiers); i++ {
		if !Tiers[i].Threshold.GreaterThan(Tiers[i-1].Threshold) {
			panic(fmt.Sprintf("bonus tier table not strictly ascending at %q", Tiers[i].Name))
		}
	}
}

// CurrentTier returns the highest tier whose threshold is met, or nil when no
// tier qualifies.
func CurrentTier(totalSales decimal.Decimal) *Tier {
	for i := len(Tiers) - 1; i >= 0; i-- {
		if totalSales.GreaterThanOrEqual(Tiers[i].Threshold) {
			return &Tiers[i]
		}
	}
	return nil
}
