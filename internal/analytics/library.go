package analytics

import (
	"sort"
	"time"

	"glassbox/internal/model"
)

// GenreBreakdown counts library videos per taxonomy-free genre label as
// stored, preserving the provider's casing of the first occurrence.
func GenreBreakdown(videos []model.Video) map[string]int {
	counts := make(map[string]int)
	for _, v := range videos {
		for _, g := range v.Genres {
			counts[g]++
		}
	}
	return counts
}

// DailyInteractions aggregates interactions into per-day, per-kind
// buckets.
func DailyInteractions(events []model.Interaction) map[time.Time]map[string]int {
	buckets := make(map[time.Time]map[string]int)
	for _, e := range events {
		key := time.Date(e.Timestamp.Year(), e.Timestamp.Month(), e.Timestamp.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := buckets[key]; !ok {
			buckets[key] = make(map[string]int)
		}
		buckets[key][e.Kind]++
	}
	return buckets
}

// SortedBucketKeys returns sorted day keys.
func SortedBucketKeys(m map[time.Time]map[string]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
