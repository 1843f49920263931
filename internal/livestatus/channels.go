package livestatus

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Arturia169/my-homepage/internal/youtube"
)

type VideoSearcher interface {
	SearchEvents(ctx context.Context, channelID string, eventType youtube.EventType, maxResults int) ([]youtube.SearchResult, error)
}

// ChannelResult holds both result sets for one channel, unclassified.
type ChannelResult struct {
	ChannelID string
	Live      []ChannelEvent
	Upcoming  []ChannelEvent
}

type ChannelAdapter struct {
	search     VideoSearcher
	maxResults int
	log        *zap.Logger
}

func NewChannelAdapter(search VideoSearcher, maxResults int, log *zap.Logger) *ChannelAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChannelAdapter{search: search, maxResults: maxResults, log: log}
}

// Lookup runs the live and upcoming searches independently. A failed search
// contributes an empty list; the error is non-nil only when a task panicked.
func (a *ChannelAdapter) Lookup(ctx context.Context, channelID string) (ChannelResult, error) {
	res := ChannelResult{
		ChannelID: channelID,
		Live:      []ChannelEvent{},
		Upcoming:  []ChannelEvent{},
	}

	var g errgroup.Group
	g.Go(protect(func() {
		res.Live = a.searchKind(ctx, channelID, KindLive)
	}))
	g.Go(protect(func() {
		res.Upcoming = a.searchKind(ctx, channelID, KindUpcoming)
	}))
	if err := g.Wait(); err != nil {
		return ChannelResult{ChannelID: channelID, Live: []ChannelEvent{}, Upcoming: []ChannelEvent{}}, err
	}
	return res, nil
}

func (a *ChannelAdapter) searchKind(ctx context.Context, channelID string, kind EventKind) []ChannelEvent {
	items, err := a.search.SearchEvents(ctx, channelID, youtube.EventType(kind), a.maxResults)
	if err != nil {
		a.log.Warn("channels: search failed", zap.String("channel", channelID), zap.String("event_type", string(kind)), zap.Error(err))
		return []ChannelEvent{}
	}
	out := make([]ChannelEvent, 0, len(items))
	for _, it := range items {
		out = append(out, ChannelEvent{
			Platform:     PlatformYouTube,
			ChannelID:    channelID,
			Kind:         kind,
			Title:        strPtr(it.Title),
			ChannelTitle: strPtr(it.ChannelTitle),
			PublishedAt:  strPtr(it.PublishedAt),
			ThumbnailURL: strPtr(it.ThumbnailURL),
			WatchURL:     strPtr(it.WatchURL()),
		})
	}
	return out
}
