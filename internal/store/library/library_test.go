package library

import (
	"context"
	"testing"
	"time"

	"glassbox/internal/model"
)

func TestUpsertAndListVideos(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	older := model.Video{ID: "1", Title: "Old", Genres: []string{"Drama"}, Rating: 7.5, SavedAt: now.Add(-time.Hour)}
	newer := model.Video{ID: "2", Title: "New", Genres: []string{"Action", "Crime"}, SavedAt: now}
	if _, err := db.UpsertVideo(ctx, older); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertVideo(ctx, newer); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListVideos(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got[1].Rating != 7.5 || len(got[0].Genres) != 2 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}

	// Upsert same id replaces, does not duplicate.
	older.Title = "Old v2"
	stored, err := db.UpsertVideo(ctx, older)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "Old v2" {
		t.Fatalf("expected updated title, got %s", stored.Title)
	}
	got, _ = db.ListVideos(ctx)
	if len(got) != 2 {
		t.Fatalf("upsert duplicated row: %d", len(got))
	}
}

func TestInteractionAndSearchLogs(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	in := model.Interaction{UserID: "local", VideoID: "1", VideoTitle: "Old", Kind: "click", Timestamp: now}
	if err := db.AppendInteraction(ctx, in); err != nil {
		t.Fatal(err)
	}
	got, err := db.ListInteractions(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil || len(got) != 1 {
		t.Fatalf("expected 1 interaction: %v %d", err, len(got))
	}
	if got[0].Kind != "click" || !got[0].Timestamp.Equal(now) {
		t.Fatalf("interaction mismatch: %+v", got[0])
	}
	if err := db.AppendSearch(ctx, model.SearchQuery{UserID: "local", Query: "Drama", Timestamp: now}); err != nil {
		t.Fatal(err)
	}
	n, err := db.CountInteractions(ctx)
	if err != nil || n != 1 {
		t.Fatalf("count mismatch: %v %d", err, n)
	}
}

func TestReady(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if !db.Ready(context.Background()) {
		t.Fatalf("open store should be ready")
	}
	_ = db.Close()
	if db.Ready(context.Background()) {
		t.Fatalf("closed store should not be ready")
	}
}
