package bonus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wesell-system/internal/bonus"
)

func entry(entryID, agentID, sales int64, updated time.Time) bonus.LedgerEntry {
	return bonus.LedgerEntry{
		EntryID:    entryID,
		AgentID:    agentID,
		TotalSales: money(sales),
		UpdatedAt:  updated,
	}
}

func TestReconcileDuplicates_KeepsHighestSales(t *testing.T) {
	now := time.Now()

	// GIVEN: agent 7 has three ledger rows under different storage keys
	result := bonus.ReconcileDuplicates([]bonus.LedgerEntry{
		entry(10, 7, 100, now),
		entry(11, 7, 900, now.Add(-time.Hour)),
		entry(12, 7, 400, now),
		entry(20, 8, 50, now),
	})

	// THEN: the highest-sales row survives, the rest are removed
	require.Len(t, result.Keep, 2)
	assert.Equal(t, int64(11), result.Keep[0].EntryID)
	assert.ElementsMatch(t, []int64{10, 12}, result.Remove)
}

func TestReconcileDuplicates_TieBreaksOnMostRecentUpdate(t *testing.T) {
	now := time.Now()

	result := bonus.ReconcileDuplicates([]bonus.LedgerEntry{
		entry(1, 7, 500, now.Add(-2*time.Hour)),
		entry(2, 7, 500, now),
	})

	require.Len(t, result.Keep, 1)
	assert.Equal(t, int64(2), result.Keep[0].EntryID)
	assert.Equal(t, []int64{1}, result.Remove)
}

func TestReconcileDuplicates_Idempotent(t *testing.T) {
	now := time.Now()
	entries := []bonus.LedgerEntry{
		entry(1, 7, 500, now),
		entry(2, 7, 300, now),
		entry(3, 8, 100, now),
	}

	// WHEN: reconcile runs, then runs again on the survivors
	first := bonus.ReconcileDuplicates(entries)
	second := bonus.ReconcileDuplicates(first.Keep)

	// THEN: the second pass removes nothing
	assert.NotEmpty(t, first.Remove)
	assert.Empty(t, second.Remove)
	assert.Equal(t, first.Keep, second.Keep)
}

func TestReconcileDuplicates_NoDuplicates(t *testing.T) {
	now := time.Now()
	result := bonus.ReconcileDuplicates([]bonus.LedgerEntry{
		entry(1, 7, 500, now),
		entry(2, 8, 300, now),
	})

	assert.Len(t, result.Keep, 2)
	assert.Empty(t, result.Remove)
}
