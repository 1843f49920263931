package livestatus

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	PlatformBilibili = "bilibili"
	PlatformYouTube  = "youtube"
)

type EventKind string

const (
	KindLive     EventKind = "live"
	KindUpcoming EventKind = "upcoming"
)

// LiveState is Room/get_info's live_status, passed through as received.
type LiveState int

const (
	StateNotLive LiveState = 0
	StateLive    LiveState = 1
	StateRerun   LiveState = 2
)

func (s LiveState) String() string {
	switch s {
	case StateNotLive:
		return "not_live"
	case StateLive:
		return "live"
	case StateRerun:
		return "rerun"
	}
	return strconv.Itoa(int(s))
}

// MarshalJSON writes known states by name and unknown codes as the raw number.
func (s LiveState) MarshalJSON() ([]byte, error) {
	switch s {
	case StateNotLive, StateLive, StateRerun:
		return json.Marshal(s.String())
	}
	return json.Marshal(int(s))
}

func (s *LiveState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		switch name {
		case "not_live":
			*s = StateNotLive
		case "live":
			*s = StateLive
		case "rerun":
			*s = StateRerun
		default:
			n, err := strconv.Atoi(name)
			if err != nil {
				return err
			}
			*s = LiveState(n)
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = LiveState(n)
	return nil
}

// RoomStatus is one configured Bilibili room. Nil fields could not be resolved
// for this request.
type RoomStatus struct {
	Platform      string     `json:"platform"`
	RoomID        string     `json:"roomId"`
	DisplayName   *string    `json:"displayName"`
	Title         *string    `json:"title"`
	LiveState     *LiveState `json:"liveState"`
	CoverImageURL *string    `json:"coverImageUrl"`
	CanonicalURL  string     `json:"canonicalUrl"`
}

// ChannelEvent is one search result for a YouTube channel. Kind is the event
// type that was queried, not the classification outcome.
type ChannelEvent struct {
	Platform     string    `json:"platform"`
	ChannelID    string    `json:"channelId"`
	Kind         EventKind `json:"eventKind"`
	Title        *string   `json:"title"`
	ChannelTitle *string   `json:"channelTitle"`
	PublishedAt  *string   `json:"publishedAt"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	WatchURL     *string   `json:"watchUrl"`
}

type AggregateResult struct {
	SchemaVersion     string         `json:"schemaVersion"`
	GeneratedAt       time.Time      `json:"generatedAt"`
	Rooms             []RoomStatus   `json:"rooms"`
	LiveEvents        []ChannelEvent `json:"liveEvents"`
	PlaceholderEvents []ChannelEvent `json:"placeholderEvents"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
