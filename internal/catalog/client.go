package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"glassbox/internal/metrics"
	"glassbox/internal/model"
	"glassbox/internal/util"
)

// PlaceholderThumbnail is used when the provider has no poster image.
const PlaceholderThumbnail = "https://via.placeholder.com/210x295?text=No+Image"

// DefaultChannel is used when the provider has no network name.
const DefaultChannel = "Web Series"

// Provider is the catalog search surface the feed engine consumes.
type Provider interface {
	Search(ctx context.Context, query string) ([]model.Video, error)
}

// HTTPClient is a rate-limited, retrying client for a TVMaze-style
// catalog API.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.tvmaze.com"
	}
	return &HTTPClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: getEnvInt("CATALOG_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("CATALOG_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

// Search queries the catalog and maps the response into videos. Summaries
// are markup-stripped; missing fields get fixed defaults so downstream
// code never sees holes.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]model.Video, error) {
	if query == "" {
		return nil, errors.New("empty query")
	}
	u := fmt.Sprintf("%s/search/shows?q=%s", c.baseURL, url.QueryEscape(query))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("Accept", "application/json")
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("catalog api status %d", resp.StatusCode)
	}
	var raw []struct {
		Show struct {
			ID      int64   `json:"id"`
			Name    string  `json:"name"`
			Summary *string `json:"summary"`
			Image   *struct {
				Medium string `json:"medium"`
			} `json:"image"`
			Network *struct {
				Name string `json:"name"`
			} `json:"network"`
			Rating *struct {
				Average *float64 `json:"average"`
			} `json:"rating"`
			Genres []string `json:"genres"`
		} `json:"show"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]model.Video, 0, len(raw))
	for _, item := range raw {
		s := item.Show
		desc := "No description"
		if s.Summary != nil {
			desc = util.StripMarkup(*s.Summary)
		}
		thumb := PlaceholderThumbnail
		if s.Image != nil && s.Image.Medium != "" {
			thumb = s.Image.Medium
		}
		channel := DefaultChannel
		if s.Network != nil && s.Network.Name != "" {
			channel = s.Network.Name
		}
		rating := 0.0
		if s.Rating != nil && s.Rating.Average != nil {
			rating = *s.Rating.Average
		}
		out = append(out, model.Video{
			ID:           strconv.FormatInt(s.ID, 10),
			Title:        s.Name,
			Description:  desc,
			ThumbnailURL: thumb,
			ChannelName:  channel,
			Rating:       rating,
			Genres:       s.Genres,
			SavedAt:      time.Now().UTC(),
		})
	}
	return out, nil
}

func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				metrics.IncAPIRetry(req.URL.Path)
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}
