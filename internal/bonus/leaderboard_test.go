package bonus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wesell-system/internal/bonus"
)

func member(id int64, name string, sales int64, clients int) bonus.Member {
	return bonus.Member{AgentID: id, Name: name, TotalSales: money(sales), ClientCount: clients}
}

func TestBuildLeaderboard_RanksBySalesDescending(t *testing.T) {
	lb := bonus.BuildLeaderboard([]bonus.Member{
		member(1, "Dana", 500, 1),
		member(2, "Omer", 9000, 4),
		member(3, "Noa", 3200, 2),
	})

	require.Len(t, lb.Members, 3)
	assert.Equal(t, "Omer", lb.Members[0].Name)
	assert.Equal(t, 1, lb.Members[0].Rank)
	assert.Equal(t, "Noa", lb.Members[1].Name)
	assert.Equal(t, 2, lb.Members[1].Rank)
	assert.Equal(t, "Dana", lb.Members[2].Name)
	assert.Equal(t, 3, lb.Members[2].Rank)

	assert.True(t, lb.TotalTeamSales.Equal(money(12700)))
	assert.Equal(t, 7, lb.TotalTeamClients)
}

func TestBuildLeaderboard_TiesKeepInputOrder(t *testing.T) {
	// GIVEN: two agents with equal totals
	lb := bonus.BuildLeaderboard([]bonus.Member{
		member(1, "First", 1000, 1),
		member(2, "Second", 1000, 1),
		member(3, "Leader", 2000, 2),
	})

	// THEN: the tied agents retain their original relative order
	assert.Equal(t, "Leader", lb.Members[0].Name)
	assert.Equal(t, "First", lb.Members[1].Name)
	assert.Equal(t, "Second", lb.Members[2].Name)
}

func TestBuildLeaderboard_DoesNotMutateInput(t *testing.T) {
	in := []bonus.Member{member(1, "A", 100, 1), member(2, "B", 200, 1)}
	bonus.BuildLeaderboard(in)
	assert.Equal(t, "A", in[0].Name)
	assert.Equal(t, 0, in[0].Rank)
}

func TestTopPerformers_FiltersZeroSales(t *testing.T) {
	// GIVEN: aggregates [{A,0},{B,500},{C,0}]
	lb := bonus.BuildLeaderboard([]bonus.Member{
		member(1, "A", 0, 0),
		member(2, "B", 500, 1),
		member(3, "C", 0, 0),
	})

	// WHEN: asking for more performers than exist
	top := lb.TopPerformers(5)

	// THEN: only B appears
	require.Len(t, top, 1)
	assert.Equal(t, "B", top[0].Name)
}

func TestTopPerformers_TruncatesToN(t *testing.T) {
	lb := bonus.BuildLeaderboard([]bonus.Member{
		member(1, "A", 100, 1),
		member(2, "B", 300, 1),
		member(3, "C", 200, 1),
	})

	top := lb.TopPerformers(2)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Name)
	assert.Equal(t, "C", top[1].Name)
}
