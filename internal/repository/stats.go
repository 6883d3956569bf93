package repository

import (
	"sort"
	"time"

	"zyboard/internal/domain"
)

// DefaultRecentActivityDays is the window used when GetRecentActivity gets days <= 0.
const DefaultRecentActivityDays = 7

// SortFileTypeStats orders by count descending, then by type.
func SortFileTypeStats(stats []domain.FileTypeStat) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Type < stats[j].Type
	})
}

// BucketByDay counts timestamps per UTC calendar day, newest day first.
func BucketByDay(stamps []time.Time) []domain.ActivityDay {
	counts := make(map[string]int64)
	for _, ts := range stamps {
		counts[ts.UTC().Format(time.DateOnly)]++
	}
	out := make([]domain.ActivityDay, 0, len(counts))
	for day, n := range counts {
		out = append(out, domain.ActivityDay{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
