package bonus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wesell-system/internal/bonus"
)

var streakToday = time.Date(2026, time.March, 20, 14, 30, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return streakToday.AddDate(0, 0, -n)
}

func TestComputeStreak_ChainBreaksAtGap(t *testing.T) {
	// GIVEN: purchases today, yesterday, and three days ago
	dates := []time.Time{daysAgo(0), daysAgo(1), daysAgo(3)}

	// THEN: the gap before day -2 ends the chain at 2
	assert.Equal(t, 2, bonus.ComputeStreak(dates, streakToday))
}

func TestComputeStreak_ZeroWithoutPurchaseToday(t *testing.T) {
	dates := []time.Time{daysAgo(1), daysAgo(2)}
	assert.Equal(t, 0, bonus.ComputeStreak(dates, streakToday))
}

func TestComputeStreak_SameDayPurchasesCountOnce(t *testing.T) {
	// GIVEN: two purchases today at different hours and one yesterday
	dates := []time.Time{
		streakToday,
		streakToday.Add(-5 * time.Hour),
		daysAgo(1),
	}

	assert.Equal(t, 2, bonus.ComputeStreak(dates, streakToday))
}

func TestComputeStreak_UnsortedInput(t *testing.T) {
	dates := []time.Time{daysAgo(2), daysAgo(0), daysAgo(1)}
	assert.Equal(t, 3, bonus.ComputeStreak(dates, streakToday))
}

func TestComputeStreak_Empty(t *testing.T) {
	assert.Equal(t, 0, bonus.ComputeStreak(nil, streakToday))
}

func TestComputeStreak_SingleSaleToday(t *testing.T) {
	assert.Equal(t, 1, bonus.ComputeStreak([]time.Time{streakToday}, streakToday))
}
