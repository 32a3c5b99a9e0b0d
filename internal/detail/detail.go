package detail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"glassbox/internal/logging"
	"glassbox/internal/model"
)

// DefaultMirrors is the ordered list of detail API mirrors tried in turn.
var DefaultMirrors = []string{
	"https://pipedapi.kavin.rocks",
	"https://pipedapi.tokhmi.xyz",
	"https://pipedapi.moomoo.me",
	"https://api-piped.mha.fi",
}

// ExhaustedError is returned when every mirror failed; it carries the
// last underlying error.
type ExhaustedError struct {
	VideoID string
	LastErr error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all mirrors failed for video %s: %v", e.VideoID, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// Fetcher resolves a single video's detail against an ordered mirror
// list, first success wins.
type Fetcher struct {
	mirrors    []string
	httpClient *http.Client
}

func NewFetcher(mirrors []string) *Fetcher {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	return &Fetcher{
		mirrors:    mirrors,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch tries each mirror in order and returns the first successful
// detail. When every mirror fails the error is an *ExhaustedError.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (model.Video, error) {
	var lastErr error
	for _, base := range f.mirrors {
		v, err := f.tryFetch(ctx, base, videoID)
		if err == nil {
			return v, nil
		}
		lastErr = err
		logging.Warn("detail_mirror_failed", map[string]any{"mirror": base, "video_id": videoID, "error": err.Error()})
		if ctx.Err() != nil {
			break
		}
	}
	return model.Video{}, &ExhaustedError{VideoID: videoID, LastErr: lastErr}
}

func (f *Fetcher) tryFetch(ctx context.Context, base, videoID string) (model.Video, error) {
	u := fmt.Sprintf("%s/streams/%s", base, videoID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.Video{}, fmt.Errorf("network: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return model.Video{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	var raw struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		Uploader     string   `json:"uploader"`
		ThumbnailURL string   `json:"thumbnailUrl"`
		Tags         []string `json:"tags"`
		Related      []struct {
			URL string `json:"url"`
		} `json:"relatedStreams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return model.Video{}, fmt.Errorf("parse: %w", err)
	}
	related := make([]string, 0, len(raw.Related))
	for _, r := range raw.Related {
		if id := relatedID(r.URL); id != "" {
			related = append(related, id)
		}
	}
	return model.Video{
		ID:           videoID,
		Title:        raw.Title,
		Description:  raw.Description,
		ThumbnailURL: raw.ThumbnailURL,
		ChannelName:  raw.Uploader,
		Genres:       raw.Tags,
		RelatedIDs:   related,
		SavedAt:      time.Now().UTC(),
	}, nil
}

// relatedID extracts the video id from a watch link's v= query parameter.
func relatedID(u string) string {
	var rest string
	if i := strings.Index(u, "watch?v="); i >= 0 {
		rest = u[i+len("watch?v="):]
	} else if i := strings.Index(u, "v="); i >= 0 {
		rest = u[i+len("v="):]
	} else {
		return ""
	}
	if j := strings.IndexByte(rest, '&'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
