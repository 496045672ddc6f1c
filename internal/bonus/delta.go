package bonus

import "github.com/shopspring/decimal"

type Mutation string

const (
	MutationAdded   Mutation = "added"
	MutationUpdated Mutation = "updated"
	MutationRemoved Mutation = "removed"
)

// Delta is the sale impact of a single client-record mutation.
type Delta struct {
	Sales decimal.Decimal
	Count int
}

func (d Delta) IsZero() bool {
	return d.Sales.IsZero() && d.Count == 0
}

// SaleImpact determines how a client-record mutation moves the running
// aggregate. Only status transitions in or out of "purchased" (or a price edit
// while purchased) have any effect. prev is required for updates and ignored
// otherwise.
func SaleImpact(kind Mutation, rec ClientRecord, prev *ClientRecord) Delta {
	switch kind {
	case MutationAdded:
		if rec.Purchased {
			return Delta{Sales: rec.Price, Count: 1}
		}
	case MutationRemoved:
		if rec.Purchased {
			return Delta{Sales: rec.Price.Neg(), Count: -1}
		}
	case MutationUpdated:
		if prev == nil {
			return Delta{Sales: decimal.Zero}
		}
		switch {
		case !prev.Purchased && rec.Purchased:
			return Delta{Sales: rec.Price, Count: 1}
		case prev.Purchased && !rec.Purchased:
			return Delta{Sales: prev.Price.Neg(), Count: -1}
		case prev.Purchased && rec.Purchased:
			return Delta{Sales: rec.Price.Sub(prev.Price)}
		}
	}
	return Delta{Sales: decimal.Zero}
}

// ApplyDelta folds a delta into the running aggregate, clamping both totals at
// zero to absorb out-of-order or duplicate mutation application.
func ApplyDelta(totalSales decimal.Decimal, clientCount int, d Delta) (decimal.Decimal, int) {
	newSales := totalSales.Add(d.Sales)
	if newSales.IsNegative() {
		newSales = decimal.Zero
	}
	newCount := clientCount + d.Count
	if newCount < 0 {
		newCount = 0
	}
	return newSales, newCount
}
