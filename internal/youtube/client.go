package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrMissingAPIKey is returned by every call when the client has no key.
var ErrMissingAPIKey = errors.New("missing YT_API_KEY")

type EventType string

const (
	EventLive     EventType = "live"
	EventUpcoming EventType = "upcoming"
)

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// New builds a client whose every call is bounded by timeout.
func New(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SearchResult is one item of search.list with part=snippet. Empty strings mean
// the upstream omitted the field.
type SearchResult struct {
	VideoID      string
	Title        string
	ChannelTitle string
	PublishedAt  string
	ThumbnailURL string
}

// WatchURL returns the watch page for the result, or "" when the item carries no
// playable video id.
func (r SearchResult) WatchURL() string {
	if r.VideoID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + r.VideoID
}

// SearchEvents lists a channel's videos currently in the given broadcast state,
// newest first.
func (c *Client) SearchEvents(ctx context.Context, channelID string, eventType EventType, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	u, err := url.Parse(c.baseURL() + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("part", "snippet")
	q.Set("channelId", channelID)
	q.Set("eventType", string(eventType)) // live | upcoming
	q.Set("type", "video")
	q.Set("order", "date")
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()

	var resp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				PublishedAt  string `json:"publishedAt"`
				Thumbnails   struct {
					Medium struct {
						URL string `json:"url"`
					} `json:"medium"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, fmt.Errorf("search %s channel=%s: %w", eventType, channelID, err)
	}

	out := make([]SearchResult, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, SearchResult{
			VideoID:      it.ID.VideoID,
			Title:        it.Snippet.Title,
			ChannelTitle: it.Snippet.ChannelTitle,
			PublishedAt:  it.Snippet.PublishedAt,
			ThumbnailURL: it.Snippet.Thumbnails.Medium.URL,
		})
	}
	return out, nil
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		// *url.Error embeds the full request URL, key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactKey(uerr.URL)
		}
		return fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("youtube api http %d: %s", res.StatusCode, excerpt(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func redactKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// excerpt keeps error messages readable when the API answers with an HTML page.
func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
