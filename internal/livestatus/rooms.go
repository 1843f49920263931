package livestatus

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Arturia169/my-homepage/internal/bilibili"
)

// RoomAdapter builds a RoomStatus for one room. Lookups always produce a status;
// upstream failures only leave fields nil.
type RoomAdapter struct {
	api      RoomAPI
	resolver *IdentityResolver
	log      *zap.Logger
}

func NewRoomAdapter(api RoomAPI, log *zap.Logger) *RoomAdapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomAdapter{
		api:      api,
		resolver: NewIdentityResolver(api, log),
		log:      log,
	}
}

// Lookup fetches room info and the anchor name concurrently, then falls back to
// the owner profile only if neither carried a name. The returned error is
// non-nil only when a task panicked.
func (a *RoomAdapter) Lookup(ctx context.Context, roomID string) (RoomStatus, error) {
	var (
		info   bilibili.RoomInfo
		infoOK bool
		anchor *string
	)

	var g errgroup.Group
	g.Go(protect(func() {
		ri, err := a.api.FetchRoomInfo(ctx, roomID)
		if err != nil {
			a.log.Warn("rooms: room info failed", zap.String("room", roomID), zap.Error(err))
			return
		}
		info, infoOK = ri, true
	}))
	g.Go(protect(func() {
		anchor = a.resolver.AnchorName(ctx, roomID)
	}))
	if err := g.Wait(); err != nil {
		return emptyRoomStatus(roomID), err
	}

	st := emptyRoomStatus(roomID)
	if infoOK {
		st.Title = info.Title
		if info.LiveStatus != nil {
			ls := LiveState(*info.LiveStatus)
			st.LiveState = &ls
		}
		st.CoverImageURL = info.UserCover
		if st.CoverImageURL == nil {
			st.CoverImageURL = info.Keyframe
		}
	}

	// Priority order is fixed here, after both concurrent strategies finished.
	st.DisplayName = a.resolver.Resolve(ctx, roomID, info.Uname, anchor)
	return st, nil
}

func emptyRoomStatus(roomID string) RoomStatus {
	return RoomStatus{
		Platform:     PlatformBilibili,
		RoomID:       roomID,
		CanonicalURL: bilibili.RoomURL(roomID),
	}
}
