package livestatus

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type TargetSource interface {
	Targets(ctx context.Context) Targets
}

// StaticTargets serves a fixed list, normally the environment configuration.
type StaticTargets Targets

func (s StaticTargets) Targets(context.Context) Targets {
	return Targets{
		Rooms:    append([]string(nil), s.Rooms...),
		Channels: append([]string(nil), s.Channels...),
	}
}

// Registry lists extra targets kept outside the environment.
type Registry interface {
	ListActiveRoomIDs(ctx context.Context) ([]string, error)
	ListActiveChannelIDs(ctx context.Context) ([]string, error)
}

// DefaultRegistryTimeout bounds each registry query when Timeout is unset.
const DefaultRegistryTimeout = 5 * time.Second

// RegistryTargets appends registry entries to a base list. A registry failure
// or timeout is logged and the base list is served alone.
type RegistryTargets struct {
	Base     Targets
	Registry Registry
	Timeout  time.Duration
	Log      *zap.Logger
}

func (s RegistryTargets) Targets(ctx context.Context) Targets {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	base := StaticTargets(s.Base).Targets(ctx)
	if s.Registry == nil {
		return base
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultRegistryTimeout
	}

	rooms, err := withTimeout(ctx, timeout, s.Registry.ListActiveRoomIDs)
	if err != nil {
		log.Warn("targets: registry rooms unavailable", zap.Error(err))
		rooms = nil
	}
	channels, err := withTimeout(ctx, timeout, s.Registry.ListActiveChannelIDs)
	if err != nil {
		log.Warn("targets: registry channels unavailable", zap.Error(err))
		channels = nil
	}
	return Targets{
		Rooms:    appendMissing(base.Rooms, rooms),
		Channels: appendMissing(base.Channels, channels),
	}
}

func withTimeout(ctx context.Context, d time.Duration, list func(context.Context) ([]string, error)) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return list(ctx)
}

// appendMissing keeps base untouched (duplicates included) and adds each extra id
// not already present.
func appendMissing(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, id := range base {
		seen[id] = struct{}{}
	}
	out := append(make([]string, 0, len(base)+len(extra)), base...)
	for _, id := range extra {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
