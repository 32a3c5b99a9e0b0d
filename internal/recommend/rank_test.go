package recommend

import (
	"math"
	"testing"

	"glassbox/internal/model"
)

func TestTopGenreFallback(t *testing.T) {
	if g := TopGenre(make([]float64, Dim())); g != FallbackGenre {
		t.Fatalf("zero profile: expected %s, got %s", FallbackGenre, g)
	}
	if g := TopGenre(nil); g != FallbackGenre {
		t.Fatalf("wrong-length profile: expected %s, got %s", FallbackGenre, g)
	}
}

func TestTopGenreStableArgmax(t *testing.T) {
	p := make([]float64, Dim())
	p[3] = 0.4
	p[7] = 0.4
	if g := TopGenre(p); g != Genres[3] {
		t.Fatalf("tie should resolve to lowest index, got %s", g)
	}
}

func TestRankExcludesAndOrders(t *testing.T) {
	p := make([]float64, Dim())
	ia, _ := GenreIndex("Action")
	id, _ := GenreIndex("Drama")
	p[ia] = 0.6
	p[id] = 0.3

	cands := []model.Video{
		{ID: "seen", Genres: []string{"Action"}},
		{ID: "drama", Genres: []string{"Drama"}},
		{ID: "both", Genres: []string{"Action", "Drama"}},
		{ID: "none", Genres: []string{"Western"}},
	}
	out := Rank(cands, p, map[string]struct{}{"seen": {}})
	if len(out) != 3 {
		t.Fatalf("expected 3 ranked, got %d", len(out))
	}
	for _, v := range out {
		if v.ID == "seen" {
			t.Fatalf("excluded id leaked into result")
		}
	}
	if out[0].ID != "both" || out[1].ID != "drama" || out[2].ID != "none" {
		t.Fatalf("unexpected order: %s %s %s", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestRankPreservesTieOrder(t *testing.T) {
	p := make([]float64, Dim())
	i, _ := GenreIndex("Comedy")
	p[i] = 0.5
	cands := []model.Video{
		{ID: "first", Genres: []string{"Comedy"}},
		{ID: "second", Genres: []string{"Comedy"}},
		{ID: "third", Genres: []string{"Comedy"}},
	}
	out := Rank(cands, p, nil)
	if out[0].ID != "first" || out[1].ID != "second" || out[2].ID != "third" {
		t.Fatalf("tie order not preserved: %v", []string{out[0].ID, out[1].ID, out[2].ID})
	}
}

func TestRankSurvivesNaNProfile(t *testing.T) {
	p := make([]float64, Dim())
	for i := range p {
		p[i] = math.NaN()
	}
	cands := []model.Video{
		{ID: "a", Genres: []string{"Action"}},
		{ID: "b", Genres: []string{"Drama"}},
	}
	out := Rank(cands, p, nil)
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("NaN scores must rank as equal in input order, got %v", out)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	p := make([]float64, Dim())
	i, _ := GenreIndex("Horror")
	p[i] = 1
	cands := []model.Video{
		{ID: "low", Genres: []string{"Comedy"}},
		{ID: "high", Genres: []string{"Horror"}},
	}
	_ = Rank(cands, p, nil)
	if cands[0].ID != "low" || cands[1].ID != "high" {
		t.Fatalf("input slice reordered")
	}
}
