package bonus

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Member is one row of the live team view.
type Member struct {
	AgentID      int64
	Name         string
	Role         string
	TotalSales   decimal.Decimal
	ClientCount  int
	Rank         int
	LastSaleTime int64
	LastActive   int64
	IsOnline     bool
}

type Leaderboard struct {
	Members          []Member
	TotalTeamSales   decimal.Decimal
	TotalTeamClients int
	LastUpdated      time.Time
}

// BuildLeaderboard ranks members by total sales, descending. Ties keep the
// input order (stable sort, no secondary key), and ranks are 1-based.
func BuildLeaderboard(members []Member) Leaderboard {
	ranked := make([]Member, len(members))
	copy(ranked, members)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalSales.GreaterThan(ranked[j].TotalSales)
	})

	totalSales := decimal.Zero
	totalClients := 0
	for i := range ranked {
		ranked[i].Rank = i + 1
		totalSales = totalSales.Add(ranked[i].TotalSales)
		totalClients += ranked[i].ClientCount
	}

	return Leaderboard{
		Members:          ranked,
		TotalTeamSales:   totalSales,
		TotalTeamClients: totalClients,
		LastUpdated:      time.Now(),
	}
}

// TopPerformers returns up to n ranked members with at least one sale. Members
// with zero sales never appear, even when n exceeds the number of sellers.
func (l Leaderboard) TopPerformers(n int) []Member {
	top := make([]Member, 0, n)
	for _, m := range l.Members {
		if !m.TotalSales.IsPositive() {
			continue
		}
		top = append(top, m)
		if len(top) == n {
			break
		}
	}
	return top
}
