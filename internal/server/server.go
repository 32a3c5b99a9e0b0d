package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"glassbox/internal/analytics"
	"glassbox/internal/audit"
	"glassbox/internal/catalog"
	"glassbox/internal/detail"
	"glassbox/internal/feed"
	"glassbox/internal/logging"
	"glassbox/internal/model"
	"glassbox/internal/store/library"
)

// Server is the local JSON API in front of the feed engine and the
// library store.
type Server struct {
	engine   *feed.Engine
	db       *library.DB
	provider catalog.Provider
	details  *detail.Fetcher
	sink     *audit.Sink
}

func New(engine *feed.Engine, db *library.DB, provider catalog.Provider, details *detail.Fetcher, sink *audit.Sink) *Server {
	return &Server{engine: engine, db: db, provider: provider, details: details, sink: sink}
}

// Routes builds the chi router for the API surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(r chi.Router) {
		r.Get("/feed", s.handleFeed)
		r.Post("/feed/refresh", s.handleRefresh)
		r.Get("/library", s.handleLibraryList)
		r.Post("/library", s.handleLibrarySave)
		r.Get("/search", s.handleSearch)
		r.Get("/videos/{id}", s.handleDetail)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	// Fire the run asynchronously; readers poll /api/feed. Overlapping
	// triggers are safe: only the newest run commits.
	go s.engine.Refresh(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) handleLibraryList(w http.ResponseWriter, r *http.Request) {
	videos, err := s.db.ListVideos(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	if videos == nil {
		videos = []model.Video{}
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleLibrarySave(w http.ResponseWriter, r *http.Request) {
	var v model.Video
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if v.ID == "" || v.Title == "" {
		httpError(w, http.StatusBadRequest, errors.New("video_id and title are required"))
		return
	}
	stored, err := s.db.UpsertVideo(r.Context(), v)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.sink.Interaction(stored, "save")
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		httpError(w, http.StatusBadRequest, errors.New("missing q parameter"))
		return
	}
	videos, err := s.provider.Search(r.Context(), q)
	if err != nil {
		httpError(w, http.StatusBadGateway, err)
		return
	}
	s.sink.Search(q)
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := s.details.Fetch(r.Context(), id)
	if err != nil {
		httpError(w, http.StatusBadGateway, err)
		return
	}
	s.sink.Interaction(v, "view")
	writeJSON(w, http.StatusOK, v)
}

type statsResponse struct {
	Videos       int                       `json:"videos"`
	Interactions int                       `json:"interactions"`
	Genres       map[string]int            `json:"genres"`
	Daily        map[string]map[string]int `json:"daily"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	videos, err := s.db.ListVideos(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	now := time.Now().UTC()
	events, err := s.db.ListInteractions(r.Context(), now.AddDate(0, 0, -30), now.Add(time.Minute))
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	total, _ := s.db.CountInteractions(r.Context())
	daily := make(map[string]map[string]int)
	buckets := analytics.DailyInteractions(events)
	for _, day := range analytics.SortedBucketKeys(buckets) {
		daily[day.Format("2006-01-02")] = buckets[day]
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Videos:       len(videos),
		Interactions: total,
		Genres:       analytics.GenreBreakdown(videos),
		Daily:        daily,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("write_json", map[string]any{"error": err.Error()})
	}
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
