package livestatus

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Targets is the ordered set of rooms and channels one aggregation covers.
type Targets struct {
	Rooms    []string
	Channels []string
}

type Options struct {
	Rooms *RoomAdapter
	// Channels is nil when no YouTube API key is configured; the YouTube branch
	// is then skipped.
	Channels      *ChannelAdapter
	Classifier    Classifier
	SchemaVersion string
	Now           func() time.Time
	Logger        *zap.Logger
}

type Aggregator struct {
	rooms         *RoomAdapter
	channels      *ChannelAdapter
	classifier    Classifier
	schemaVersion string
	now           func() time.Time
	log           *zap.Logger
}

func NewAggregator(opts Options) *Aggregator {
	a := &Aggregator{
		rooms:         opts.Rooms,
		channels:      opts.Channels,
		classifier:    opts.Classifier,
		schemaVersion: opts.SchemaVersion,
		now:           opts.Now,
		log:           opts.Logger,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Aggregate looks up every room and channel concurrently and merges the results
// in target order. Upstream failures never surface here; the error is reserved
// for internal faults (a panicking task).
func (a *Aggregator) Aggregate(ctx context.Context, t Targets) (AggregateResult, error) {
	rooms := make([]RoomStatus, len(t.Rooms))
	var channels []ChannelResult

	var g errgroup.Group
	for i, roomID := range t.Rooms {
		rooms[i] = emptyRoomStatus(roomID)
		if a.rooms == nil {
			continue
		}
		i, roomID := i, roomID
		g.Go(func() (err error) {
			defer recoverTo(&err)
			st, err := a.rooms.Lookup(ctx, roomID)
			if err != nil {
				return err
			}
			rooms[i] = st
			return nil
		})
	}

	switch {
	case len(t.Channels) == 0:
	case a.channels == nil:
		a.log.Debug("aggregate: youtube skipped, no api key", zap.Int("channels", len(t.Channels)))
	default:
		channels = make([]ChannelResult, len(t.Channels))
		for i, channelID := range t.Channels {
			i, channelID := i, channelID
			g.Go(func() (err error) {
				defer recoverTo(&err)
				res, err := a.channels.Lookup(ctx, channelID)
				if err != nil {
					return err
				}
				channels[i] = res
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return AggregateResult{}, fmt.Errorf("aggregate: %w", err)
	}

	out := AggregateResult{
		SchemaVersion:     a.schemaVersion,
		Rooms:             rooms,
		LiveEvents:        []ChannelEvent{},
		PlaceholderEvents: []ChannelEvent{},
	}
	for _, ch := range channels {
		out.LiveEvents = append(out.LiveEvents, ch.Live...)
		genuine, placeholders := a.classifier.Partition(ch.Upcoming)
		out.LiveEvents = append(out.LiveEvents, genuine...)
		out.PlaceholderEvents = append(out.PlaceholderEvents, placeholders...)
	}
	out.GeneratedAt = a.now().UTC()

	a.log.Debug("aggregate: done",
		zap.Int("rooms", len(out.Rooms)),
		zap.Int("live_events", len(out.LiveEvents)),
		zap.Int("placeholder_events", len(out.PlaceholderEvents)),
	)
	return out, nil
}

// protect adapts fn for errgroup, turning a panic into an error.
func protect(fn func()) func() error {
	return func() (err error) {
		defer recoverTo(&err)
		fn()
		return nil
	}
}

func recoverTo(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
	}
}
