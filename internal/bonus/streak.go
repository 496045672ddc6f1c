package bonus

import (
	"sort"
	"time"
)

// ComputeStreak counts the consecutive calendar days ending today on which at
// least one purchase was recorded. Multiple purchases on one day count once;
// the chain must include today itself, otherwise the streak is 0.
func ComputeStreak(purchaseDates []time.Time, today time.Time) int {
	if len(purchaseDates) == 0 {
		return 0
	}

	seen := make(map[time.Time]bool, len(purchaseDates))
	days := make([]time.Time, 0, len(purchaseDates))
	for _, d := range purchaseDates {
		day := truncateToDay(d)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	cursor := truncateToDay(today)
	streak := 0
	for _, day := range days {
		if !day.Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
