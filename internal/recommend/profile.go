package recommend

import (
	"sort"

	"glassbox/internal/model"
)

// recencyMultiplier boosts the most recently saved items: 5x for the
// newest, then 3x, 2x, and 1x for everything older.
func recencyMultiplier(pos int) float64 {
	switch pos {
	case 0:
		return 5
	case 1:
		return 3
	case 2:
		return 2
	}
	return 1
}

// BuildProfile folds a watch history into one normalized taste vector.
// Each item contributes its multi-hot vector weighted by rating (5.0 when
// unrated) times a recency multiplier; the accumulator is divided by the
// total weight. Empty history yields the zero vector.
func BuildProfile(history []model.Video) []float64 {
	profile := make([]float64, len(Genres))
	if len(history) == 0 {
		return profile
	}

	// Sort newest first even if the caller claims to have done it.
	sorted := make([]model.Video, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SavedAt.After(sorted[j].SavedAt) })

	totalWeight := 0.0
	for pos, v := range sorted {
		weight := v.Rating
		if weight <= 0 {
			weight = 5.0
		}
		weight *= recencyMultiplier(pos)
		totalWeight += weight
		vec := Vectorize(v)
		for i := range profile {
			profile[i] += vec[i] * weight
		}
	}

	if totalWeight > 0 {
		for i := range profile {
			profile[i] /= totalWeight
		}
	}
	return profile
}
