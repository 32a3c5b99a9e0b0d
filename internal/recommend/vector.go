package recommend

import (
	"strings"

	"glassbox/internal/model"
)

// Vectorize maps a video to a multi-hot vector over the genre taxonomy:
// entry i is 1.0 when any of the video's genres equals Genres[i]
// case-insensitively, else 0.0.
func Vectorize(v model.Video) []float64 {
	vec := make([]float64, len(Genres))
	for i, g := range Genres {
		for _, have := range v.Genres {
			if strings.EqualFold(have, g) {
				vec[i] = 1.0
				break
			}
		}
	}
	return vec
}
