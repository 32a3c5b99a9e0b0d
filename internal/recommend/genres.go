package recommend

import "strings"

// Genres is the fixed, ordered genre taxonomy. Its order only matters for
// consistent vector indexing; it carries no ranking meaning.
var Genres = []string{
	"Action",
	"Adventure",
	"Anime",
	"Comedy",
	"Crime",
	"Drama",
	"Espionage",
	"Family",
	"Fantasy",
	"History",
	"Horror",
	"Music",
	"Mystery",
	"Romance",
	"Science-Fiction",
	"Supernatural",
	"Thriller",
	"War",
	"Western",
}

// FallbackGenre is returned when a profile has no positive signal.
const FallbackGenre = "Trending"

// Dim returns the number of taxonomy dimensions.
func Dim() int { return len(Genres) }

// GenreIndex returns the taxonomy index for a label, matching
// case-insensitively. An unknown label is not an error.
func GenreIndex(label string) (int, bool) {
	for i, g := range Genres {
		if strings.EqualFold(g, label) {
			return i, true
		}
	}
	return 0, false
}
