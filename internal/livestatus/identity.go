package livestatus

import (
	"context"

	"go.uber.org/zap"

	"github.com/Arturia169/my-homepage/internal/bilibili"
)

// RoomAPI is the subset of the Bilibili client the room lookups need.
type RoomAPI interface {
	FetchRoomInfo(ctx context.Context, roomID string) (bilibili.RoomInfo, error)
	FetchAnchorName(ctx context.Context, roomID string) (*string, error)
	FetchOwnerID(ctx context.Context, roomID string) (*int64, error)
	FetchOwnerName(ctx context.Context, uid int64) (*string, error)
}

// nameStrategy yields a display name or nil. Strategies never fail; errors are
// logged and reported as nil.
type nameStrategy func(ctx context.Context) *string

// known wraps an already computed name as a strategy.
func known(name *string) nameStrategy {
	return func(context.Context) *string { return name }
}

// firstName runs strategies in priority order and stops at the first name.
func firstName(ctx context.Context, strategies ...nameStrategy) *string {
	for _, s := range strategies {
		if name := s(ctx); name != nil && *name != "" {
			return name
		}
	}
	return nil
}

// IdentityResolver recovers a streamer name for a room: the room-info payload,
// then the anchor-in-room endpoint, then room_init uid -> profile name.
type IdentityResolver struct {
	api RoomAPI
	log *zap.Logger
}

func NewIdentityResolver(api RoomAPI, log *zap.Logger) *IdentityResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentityResolver{api: api, log: log}
}

// Resolve picks the display name in priority order. inline and anchor are the
// names already fetched from room info and the anchor endpoint; the owner chain
// is only queried when both are missing.
func (r *IdentityResolver) Resolve(ctx context.Context, roomID string, inline, anchor *string) *string {
	return firstName(ctx,
		known(inline),
		known(anchor),
		func(ctx context.Context) *string { return r.OwnerName(ctx, roomID) },
	)
}

func (r *IdentityResolver) AnchorName(ctx context.Context, roomID string) *string {
	name, err := r.api.FetchAnchorName(ctx, roomID)
	if err != nil {
		r.log.Debug("identity: anchor lookup failed", zap.String("room", roomID), zap.Error(err))
		return nil
	}
	return name
}

func (r *IdentityResolver) OwnerName(ctx context.Context, roomID string) *string {
	uid, err := r.api.FetchOwnerID(ctx, roomID)
	if err != nil {
		r.log.Debug("identity: room init failed", zap.String("room", roomID), zap.Error(err))
		return nil
	}
	if uid == nil {
		return nil
	}
	name, err := r.api.FetchOwnerName(ctx, *uid)
	if err != nil {
		r.log.Debug("identity: owner profile failed", zap.String("room", roomID), zap.Int64("uid", *uid), zap.Error(err))
		return nil
	}
	return name
}
