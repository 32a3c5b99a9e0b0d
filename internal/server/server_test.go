package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"glassbox/internal/audit"
	"glassbox/internal/detail"
	"glassbox/internal/feed"
	"glassbox/internal/model"
	"glassbox/internal/store/library"
)

type stubProvider struct {
	lastQuery string
	videos    []model.Video
	err       error
}

func (s *stubProvider) Search(ctx context.Context, query string) ([]model.Video, error) {
	s.lastQuery = query
	return s.videos, s.err
}

type harness struct {
	db       *library.DB
	provider *stubProvider
	engine   *feed.Engine
	api      *httptest.Server
}

func newHarness(t *testing.T, mirrors []string) *harness {
	t.Helper()
	db, err := library.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	provider := &stubProvider{}
	engine := feed.New(db, provider)
	srv := New(engine, db, provider, detail.NewFetcher(mirrors), audit.NewSink(db, "tester"))
	api := httptest.NewServer(srv.Routes())
	t.Cleanup(api.Close)
	return &harness{db: db, provider: provider, engine: engine, api: api}
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.api.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.get(t, "/healthz")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestLibrarySaveAndList(t *testing.T) {
	h := newHarness(t, nil)
	body, _ := json.Marshal(model.Video{
		ID: "tt1", Title: "Signals", Rating: 8.2, Genres: []string{"Drama"},
	})
	resp, err := http.Post(h.api.URL+"/api/library", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	stored := decode[model.Video](t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stored.ID != "tt1" || stored.SavedAt.IsZero() {
		t.Fatalf("unexpected stored video: %+v", stored)
	}

	list := decode[[]model.Video](t, h.get(t, "/api/library"))
	if len(list) != 1 || list[0].Title != "Signals" {
		t.Fatalf("unexpected list: %+v", list)
	}

	// The save must also land in the interaction log.
	n, err := h.db.CountInteractions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 interaction, got %d", n)
	}
}

func TestLibrarySaveRejectsIncomplete(t *testing.T) {
	h := newHarness(t, nil)
	resp, err := http.Post(h.api.URL+"/api/library", "application/json", bytes.NewReader([]byte(`{"title":"no id"}`)))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLibraryListEmptyIsArray(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.get(t, "/api/library")
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if got := bytes.TrimSpace(buf.Bytes()); !bytes.Equal(got, []byte("[]")) {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t, nil)
	h.provider.videos = []model.Video{{ID: "s1", Title: "Found", Genres: []string{"Comedy"}}}

	results := decode[[]model.Video](t, h.get(t, "/api/search?q=comedy"))
	if len(results) != 1 || results[0].ID != "s1" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if h.provider.lastQuery != "comedy" {
		t.Fatalf("query not forwarded: %q", h.provider.lastQuery)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.get(t, "/api/search")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestFeedSnapshotAfterRefresh(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.db.UpsertVideo(context.Background(), model.Video{
		ID: "seen", Title: "Seen", Rating: 9, Genres: []string{"Drama"},
	}); err != nil {
		t.Fatal(err)
	}
	h.provider.videos = []model.Video{
		{ID: "seen", Title: "Seen", Genres: []string{"Drama"}},
		{ID: "new", Title: "New", Genres: []string{"Drama"}},
	}
	if st := h.engine.Refresh(context.Background()); st != feed.StateReady {
		t.Fatalf("expected Ready, got %s", st)
	}

	snap := decode[feed.Snapshot](t, h.get(t, "/api/feed"))
	if snap.State != feed.StateReady || snap.Label != "Recommended for you (Drama)" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Videos) != 1 || snap.Videos[0].ID != "new" {
		t.Fatalf("library items must be excluded: %+v", snap.Videos)
	}
}

func TestRefreshAccepted(t *testing.T) {
	h := newHarness(t, nil)
	resp, err := http.Post(h.api.URL+"/api/feed/refresh", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
}

func TestDetail(t *testing.T) {
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/streams/abc123" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"title":"Deep Dive",
			"uploader":"docsnet",
			"thumbnailUrl":"https://img.example/abc123.jpg",
			"tags":["Documentary"],
			"relatedStreams":[{"url":"/watch?v=next1&list=x"}]
		}`)
	}))
	defer mirror.Close()

	h := newHarness(t, []string{mirror.URL})
	v := decode[model.Video](t, h.get(t, "/api/videos/abc123"))
	if v.ID != "abc123" || v.Title != "Deep Dive" || v.ChannelName != "docsnet" {
		t.Fatalf("unexpected detail: %+v", v)
	}
	if len(v.RelatedIDs) != 1 || v.RelatedIDs[0] != "next1" {
		t.Fatalf("unexpected related ids: %v", v.RelatedIDs)
	}

	// Viewing a detail is audited.
	n, err := h.db.CountInteractions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 interaction, got %d", n)
	}
}

func TestDetailAllMirrorsDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	h := newHarness(t, []string{down.URL})
	resp := h.get(t, "/api/videos/abc123")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	for i, genres := range [][]string{{"Drama"}, {"Drama", "Comedy"}} {
		if _, err := h.db.UpsertVideo(ctx, model.Video{
			ID: fmt.Sprintf("v%d", i), Title: fmt.Sprintf("v%d", i), Genres: genres,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.db.AppendInteraction(ctx, model.Interaction{
		UserID: "tester", VideoID: "v0", Kind: "save", Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	stats := decode[statsResponse](t, h.get(t, "/api/stats"))
	if stats.Videos != 2 || stats.Interactions != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.Genres["Drama"] != 2 || stats.Genres["Comedy"] != 1 {
		t.Fatalf("unexpected genre breakdown: %+v", stats.Genres)
	}
	if len(stats.Daily) != 1 {
		t.Fatalf("expected one daily bucket, got %+v", stats.Daily)
	}
}
