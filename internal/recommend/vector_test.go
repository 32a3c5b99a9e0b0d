package recommend

import (
	"testing"

	"glassbox/internal/model"
)

func TestVectorizeMatchesCaseInsensitive(t *testing.T) {
	v := model.Video{ID: "1", Genres: []string{"drama", "SCIENCE-FICTION", "Cooking"}}
	vec := Vectorize(v)
	if len(vec) != Dim() {
		t.Fatalf("expected %d dims, got %d", Dim(), len(vec))
	}
	for i, g := range Genres {
		want := 0.0
		if g == "Drama" || g == "Science-Fiction" {
			want = 1.0
		}
		if vec[i] != want {
			t.Fatalf("genre %s: expected %v, got %v", g, want, vec[i])
		}
	}
}

func TestVectorizeNoGenres(t *testing.T) {
	vec := Vectorize(model.Video{ID: "1"})
	for i, x := range vec {
		if x != 0 {
			t.Fatalf("expected zero at %d, got %v", i, x)
		}
	}
}

func TestGenreIndex(t *testing.T) {
	i, ok := GenreIndex("horror")
	if !ok || Genres[i] != "Horror" {
		t.Fatalf("expected Horror, got %v %v", i, ok)
	}
	if _, ok := GenreIndex("Telenovela"); ok {
		t.Fatalf("unknown label should not match")
	}
}
