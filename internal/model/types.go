package model

import "time"

// Video represents one catalog item (movie or show) as the rest of the
// system sees it: a transient snapshot from the search provider, or a
// stored row from the library.
type Video struct {
	// Provider id (TVMaze show id, Piped stream id), kept as string.
	ID           string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`

	// Discovery signals
	Rating float64  `json:"rating"` // 0-10, 0 means unknown
	Genres []string `json:"genres"` // free-form casing

	// Network/channel the item came from (e.g. "HBO")
	ChannelName string `json:"channel_name"`

	RelatedIDs []string  `json:"related_ids"`
	SavedAt    time.Time `json:"saved_at"`
}

// Interaction is one append-only interaction log entry. Never mutated
// after creation.
type Interaction struct {
	UserID     string    `json:"user_id"`
	VideoID    string    `json:"video_id"`
	VideoTitle string    `json:"video_title"`
	Kind       string    `json:"kind"` // click, view, save
	Timestamp  time.Time `json:"timestamp"`
}

// SearchQuery is one append-only search log entry.
type SearchQuery struct {
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}
