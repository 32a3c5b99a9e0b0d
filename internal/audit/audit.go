package audit

import (
	"context"
	"time"

	"glassbox/internal/logging"
	"glassbox/internal/metrics"
	"glassbox/internal/model"
)

// Recorder is the slice of the store the sink writes to.
type Recorder interface {
	AppendInteraction(ctx context.Context, in model.Interaction) error
	AppendSearch(ctx context.Context, q model.SearchQuery) error
}

// Sink writes interaction and search log entries best-effort: each write
// is attempted at most once with a short timeout, and failures are
// swallowed after logging and counting. Callers never see an error.
type Sink struct {
	rec     Recorder
	userID  string
	timeout time.Duration
	now     func() time.Time
}

func NewSink(rec Recorder, userID string) *Sink {
	return &Sink{rec: rec, userID: userID, timeout: 2 * time.Second, now: time.Now}
}

// Interaction records one interaction against a video.
func (s *Sink) Interaction(v model.Video, kind string) {
	if s.rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	in := model.Interaction{
		UserID:     s.userID,
		VideoID:    v.ID,
		VideoTitle: v.Title,
		Kind:       kind,
		Timestamp:  s.now().UTC(),
	}
	if err := s.rec.AppendInteraction(ctx, in); err != nil {
		metrics.IncAuditDrop("interaction")
		logging.Warn("audit_interaction_dropped", map[string]any{"video_id": v.ID, "kind": kind, "error": err.Error()})
	}
}

// Search records one search query.
func (s *Sink) Search(query string) {
	if s.rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	q := model.SearchQuery{UserID: s.userID, Query: query, Timestamp: s.now().UTC()}
	if err := s.rec.AppendSearch(ctx, q); err != nil {
		metrics.IncAuditDrop("search")
		logging.Warn("audit_search_dropped", map[string]any{"query": query, "error": err.Error()})
	}
}
