package bonus_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"wesell-system/internal/bonus"
)

func record(price int64, isPurchased bool) bonus.ClientRecord {
	return bonus.ClientRecord{Price: money(price), Purchased: isPurchased, PurchaseDate: time.Now()}
}

func TestSaleImpact_PolicyTable(t *testing.T) {
	cases := []struct {
		name      string
		kind      bonus.Mutation
		rec       bonus.ClientRecord
		prev      *bonus.ClientRecord
		wantSales int64
		wantCount int
	}{
		{"added purchased", bonus.MutationAdded, record(1790, true), nil, 1790, 1},
		{"added not purchased", bonus.MutationAdded, record(1790, false), nil, 0, 0},
		{"removed purchased", bonus.MutationRemoved, record(1790, true), nil, -1790, -1},
		{"removed not purchased", bonus.MutationRemoved, record(1790, false), nil, 0, 0},
		{"updated into purchased", bonus.MutationUpdated, record(5200, true), ptr(record(5200, false)), 5200, 1},
		{"updated out of purchased", bonus.MutationUpdated, record(5200, false), ptr(record(5200, true)), -5200, -1},
		{"updated price while purchased", bonus.MutationUpdated, record(7700, true), ptr(record(5200, true)), 2500, 0},
		{"updated never purchased", bonus.MutationUpdated, record(7700, false), ptr(record(5200, false)), 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := bonus.SaleImpact(tc.kind, tc.rec, tc.prev)
			assert.True(t, d.Sales.Equal(money(tc.wantSales)), "sales delta = %s, want %d", d.Sales, tc.wantSales)
			assert.Equal(t, tc.wantCount, d.Count)
		})
	}
}

func ptr(r bonus.ClientRecord) *bonus.ClientRecord { return &r }

func TestSaleImpact_UpdateWithoutPreviousIsNoop(t *testing.T) {
	d := bonus.SaleImpact(bonus.MutationUpdated, record(1790, true), nil)
	assert.True(t, d.IsZero())
}

func TestApplyDelta_AddThenRemoveRoundTrips(t *testing.T) {
	// GIVEN: an empty aggregate
	total, count := decimal.Zero, 0
	rec := record(1790, true)

	// WHEN: the same record is added then removed
	total, count = bonus.ApplyDelta(total, count, bonus.SaleImpact(bonus.MutationAdded, rec, nil))
	total, count = bonus.ApplyDelta(total, count, bonus.SaleImpact(bonus.MutationRemoved, rec, nil))

	// THEN: the aggregate is back at zero
	assert.True(t, total.IsZero())
	assert.Equal(t, 0, count)
}

func TestApplyDelta_ClampsAtZero(t *testing.T) {
	// Duplicate removal applied to an empty aggregate must not go negative.
	total, count := bonus.ApplyDelta(decimal.Zero, 0, bonus.SaleImpact(bonus.MutationRemoved, record(1790, true), nil))
	assert.True(t, total.IsZero())
	assert.Equal(t, 0, count)
}
