package bonus

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one stored team-ledger row. EntryID is the storage key;
// AgentID is the logical owner. Duplicates are rows sharing an AgentID under
// different storage keys.
type LedgerEntry struct {
	EntryID     int64
	AgentID     int64
	Name        string
	TotalSales  decimal.Decimal
	ClientCount int
	UpdatedAt   time.Time
}

type ReconcileResult struct {
	Keep   []LedgerEntry
	Remove []int64
}

// ReconcileDuplicates collapses duplicate per-agent ledger rows to the single
// best record: highest total sales, ties broken by most recent update. Running
// it again on the surviving rows removes nothing.
func ReconcileDuplicates(entries []LedgerEntry) ReconcileResult {
	groups := make(map[int64][]LedgerEntry)
	order := make([]int64, 0, len(entries))
	for _, e := range entries {
		if _, ok := groups[e.AgentID]; !ok {
			order = append(order, e.AgentID)
		}
		groups[e.AgentID] = append(groups[e.AgentID], e)
	}

	result := ReconcileResult{}
	for _, agentID := range order {
		group := groups[agentID]
		if len(group) == 1 {
			result.Keep = append(result.Keep, group[0])
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].TotalSales.Equal(group[j].TotalSales) {
				return group[i].TotalSales.GreaterThan(group[j].TotalSales)
			}
			return group[i].UpdatedAt.After(group[j].UpdatedAt)
		})

		result.Keep = append(result.Keep, group[0])
		for _, loser := range group[1:] {
			result.Remove = append(result.Remove, loser.EntryID)
		}
	}
	return result
}
