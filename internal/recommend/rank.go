package recommend

import (
	"sort"

	"glassbox/internal/model"
)

// Score is the raw dot product between a profile vector and a candidate's
// multi-hot vector. The profile is not unit-normalized, so magnitudes are
// only comparable within one ranking pass.
func Score(profile []float64, v model.Video) float64 {
	if len(profile) != len(Genres) {
		return 0
	}
	vec := Vectorize(v)
	score := 0.0
	for i := range vec {
		score += profile[i] * vec[i]
	}
	return score
}

// TopGenre returns the taxonomy label with the highest profile entry,
// first occurrence winning ties. When the maximum is not positive there
// is no usable signal and FallbackGenre is returned.
func TopGenre(profile []float64) string {
	if len(profile) != len(Genres) {
		return FallbackGenre
	}
	best := 0
	max := -1.0
	for i, s := range profile {
		if s > max {
			max = s
			best = i
		}
	}
	if max <= 0 {
		return FallbackGenre
	}
	return Genres[best]
}

// Rank drops candidates whose id is in exclude, scores the rest against
// the profile, and returns a new slice sorted by score descending. The
// sort is stable: equal scores keep their input order, and a score pair
// that does not order (NaN) is treated as equal rather than failing.
func Rank(candidates []model.Video, profile []float64, exclude map[string]struct{}) []model.Video {
	kept := make([]model.Video, 0, len(candidates))
	for _, c := range candidates {
		if _, seen := exclude[c.ID]; seen {
			continue
		}
		kept = append(kept, c)
	}
	scores := make([]float64, len(kept))
	for i, c := range kept {
		scores[i] = Score(profile, c)
	}
	idx := make([]int, len(kept))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	out := make([]model.Video, len(kept))
	for i, j := range idx {
		out[i] = kept[j]
	}
	return out
}
