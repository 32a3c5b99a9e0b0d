package feed

import (
	"errors"

	"glassbox/internal/model"
)

// State is where a feed run currently is. Ready, Empty and Failed are
// terminal; every refresh restarts from WaitingForStore.
type State string

const (
	StateIdle               State = "idle"
	StateWaitingForStore    State = "waiting_for_store"
	StateFetchingHistory    State = "fetching_history"
	StateBuildingProfile    State = "building_profile"
	StateFetchingCandidates State = "fetching_candidates"
	StateRanking            State = "ranking"
	StateReady              State = "ready"
	StateEmpty              State = "empty"
	StateFailed             State = "failed"
)

// Failure reasons attached to StateFailed.
const (
	ReasonStoreUnavailable = "store_unavailable"
	ReasonStoreQuery       = "store_query_error"
	ReasonSearch           = "search_error"
)

var ErrStoreUnavailable = errors.New("store not ready within retry budget")

// LibraryLabel is the active-criterion label before any recommendation
// has been published.
const LibraryLabel = "Your Library"

// Snapshot is what the presentation layer reads: the published result,
// the active-criterion label, and the loading flag that is true strictly
// between a trigger and its terminal transition.
type Snapshot struct {
	Videos  []model.Video `json:"videos"`
	Label   string        `json:"label"`
	Loading bool          `json:"loading"`
	State   State         `json:"state"`
	Reason  string        `json:"reason,omitempty"`
}
