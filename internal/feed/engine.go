package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"glassbox/internal/catalog"
	"glassbox/internal/logging"
	"glassbox/internal/metrics"
	"glassbox/internal/model"
	"glassbox/internal/recommend"
)

// Store is the slice of the library store the engine consumes.
type Store interface {
	Ready(ctx context.Context) bool
	ListVideos(ctx context.Context) ([]model.Video, error)
}

// Engine drives one feed refresh at a time through the
// WaitingForStore -> ... -> Ready/Empty/Failed sequence and owns the
// published snapshot. It is the only writer; any number of readers may
// call Snapshot.
type Engine struct {
	store    Store
	provider catalog.Provider

	readyAttempts int
	readyDelay    time.Duration
	sleep         func(ctx context.Context, d time.Duration) error

	// seq hands out run tokens; only the newest run may commit.
	seq atomic.Uint64

	mu      sync.Mutex
	state   State
	reason  string
	videos  []model.Video
	label   string
	loading bool
}

func New(store Store, provider catalog.Provider) *Engine {
	return &Engine{
		store:         store,
		provider:      provider,
		readyAttempts: 15,
		readyDelay:    200 * time.Millisecond,
		sleep:         sleepCtx,
		state:         StateIdle,
		label:         LibraryLabel,
	}
}

// ConfigureReadiness overrides the store readiness budget. Zero values
// keep the defaults.
func (e *Engine) ConfigureReadiness(attempts int, delay time.Duration) {
	if attempts > 0 {
		e.readyAttempts = attempts
	}
	if delay > 0 {
		e.readyDelay = delay
	}
}

// Snapshot returns the published result. The videos slice is copied so
// readers can't alias the engine's state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	videos := make([]model.Video, len(e.videos))
	copy(videos, e.videos)
	return Snapshot{Videos: videos, Label: e.label, Loading: e.loading, State: e.state, Reason: e.reason}
}

// Refresh runs one full feed pass and returns its terminal state. It is
// safe to call concurrently: each call takes a fresh run token, and a run
// whose token has been superseded discards every write, including the
// loading clear, which then belongs to the newer run.
func (e *Engine) Refresh(ctx context.Context) State {
	token := e.seq.Add(1)
	start := time.Now()
	metrics.FeedRuns.Inc()
	e.begin(token)

	// Wait for the store, bounded.
	ready := false
	for attempt := 1; attempt <= e.readyAttempts; attempt++ {
		if e.store.Ready(ctx) {
			ready = true
			break
		}
		logging.Info("feed_store_wait", map[string]any{"attempt": attempt, "max": e.readyAttempts})
		if attempt < e.readyAttempts {
			if err := e.sleep(ctx, e.readyDelay); err != nil {
				break
			}
		}
	}
	if !ready {
		return e.fail(token, ReasonStoreUnavailable, ErrStoreUnavailable)
	}

	e.transition(token, StateFetchingHistory)
	library, err := e.store.ListVideos(ctx)
	if err != nil {
		return e.fail(token, ReasonStoreQuery, fmt.Errorf("library query: %w", err))
	}
	if len(library) == 0 {
		// Deliberately no provider call: an empty library means "no data
		// yet", published as an explicitly empty result.
		return e.commitEmpty(token)
	}

	e.transition(token, StateBuildingProfile)
	profile := recommend.BuildProfile(library)
	topGenre := recommend.TopGenre(profile)

	e.transition(token, StateFetchingCandidates)
	candidates, err := e.provider.Search(ctx, topGenre)
	if err != nil {
		return e.fail(token, ReasonSearch, fmt.Errorf("candidate search %q: %w", topGenre, err))
	}

	e.transition(token, StateRanking)
	exclude := make(map[string]struct{}, len(library))
	for _, v := range library {
		exclude[v.ID] = struct{}{}
	}
	ranked := recommend.Rank(candidates, profile, exclude)

	st := e.commitReady(token, ranked, topGenre)
	metrics.ObserveFeedDuration(start)
	logging.Info("feed_ready", map[string]any{"genre": topGenre, "candidates": len(candidates), "ranked": len(ranked)})
	return st
}

// RunLoop refreshes immediately and then on a ticker until ctx is
// cancelled.
func (e *Engine) RunLoop(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	e.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			logging.Info("feed_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			e.Refresh(ctx)
		}
	}
}

func (e *Engine) current(token uint64) bool { return token == e.seq.Load() }

func (e *Engine) begin(token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(token) {
		return
	}
	e.loading = true
	e.state = StateWaitingForStore
	e.reason = ""
}

func (e *Engine) transition(token uint64, st State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(token) {
		return
	}
	e.state = st
}

// fail converts a collaborator error into a terminal Failed state. The
// previously published result is left untouched.
func (e *Engine) fail(token uint64, reason string, err error) State {
	metrics.IncFeedFailure(reason)
	logging.Error("feed_failed", map[string]any{"reason": reason, "error": err.Error()})
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(token) {
		return StateFailed
	}
	e.state = StateFailed
	e.reason = reason
	e.loading = false
	return StateFailed
}

func (e *Engine) commitEmpty(token uint64) State {
	logging.Info("feed_empty", nil)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(token) {
		return StateEmpty
	}
	e.state = StateEmpty
	e.reason = ""
	e.videos = []model.Video{}
	e.label = LibraryLabel
	e.loading = false
	return StateEmpty
}

func (e *Engine) commitReady(token uint64, videos []model.Video, topGenre string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(token) {
		return StateReady
	}
	e.state = StateReady
	e.reason = ""
	e.videos = videos
	e.label = fmt.Sprintf("Recommended for you (%s)", topGenre)
	e.loading = false
	return StateReady
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
