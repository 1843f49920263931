package livestatus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Arturia169/my-homepage/internal/bilibili"
	"github.com/Arturia169/my-homepage/internal/youtube"
)

var errUpstream = errors.New("upstream down")

type fakeRoom struct {
	info      *bilibili.RoomInfo // nil -> FetchRoomInfo fails
	anchor    *string
	anchorErr error
	// anchorDelay holds the anchor answer back so it arrives after room info.
	anchorDelay time.Duration
	uid         *int64
	uidErr      error
	ownerName   *string
	ownerErr    error
	panicInfo   bool
}

type fakeRoomAPI struct {
	rooms map[string]fakeRoom

	ownerIDCalls atomic.Int32
}

func (f *fakeRoomAPI) FetchRoomInfo(_ context.Context, roomID string) (bilibili.RoomInfo, error) {
	r := f.rooms[roomID]
	if r.panicInfo {
		panic("boom")
	}
	if r.info == nil {
		return bilibili.RoomInfo{}, errUpstream
	}
	return *r.info, nil
}

func (f *fakeRoomAPI) FetchAnchorName(ctx context.Context, roomID string) (*string, error) {
	r := f.rooms[roomID]
	if r.anchorDelay > 0 {
		select {
		case <-time.After(r.anchorDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.anchor, r.anchorErr
}

func (f *fakeRoomAPI) FetchOwnerID(_ context.Context, roomID string) (*int64, error) {
	f.ownerIDCalls.Add(1)
	r := f.rooms[roomID]
	return r.uid, r.uidErr
}

func (f *fakeRoomAPI) FetchOwnerName(_ context.Context, uid int64) (*string, error) {
	for _, r := range f.rooms {
		if r.uid != nil && *r.uid == uid {
			return r.ownerName, r.ownerErr
		}
	}
	return nil, nil
}

type searchKey struct {
	channel string
	kind    youtube.EventType
}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[searchKey][]youtube.SearchResult
	errs    map[searchKey]error
	calls   []searchKey
}

func (f *fakeSearcher) SearchEvents(_ context.Context, channelID string, eventType youtube.EventType, _ int) ([]youtube.SearchResult, error) {
	k := searchKey{channelID, eventType}
	f.mu.Lock()
	f.calls = append(f.calls, k)
	f.mu.Unlock()
	if err := f.errs[k]; err != nil {
		return nil, err
	}
	return f.results[k], nil
}

func ptr[T any](v T) *T { return &v }
