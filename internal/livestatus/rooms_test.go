package livestatus

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Arturia169/my-homepage/internal/bilibili"
)

func TestRoomLookupFullInfo(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"100": {
			info: &bilibili.RoomInfo{
				Title:      ptr("Evening"),
				LiveStatus: ptr(1),
				UserCover:  ptr("https://i0.hdslb.com/cover.jpg"),
				Keyframe:   ptr("https://i0.hdslb.com/key.jpg"),
			},
			anchor: ptr("Anchor"),
		},
	}}

	st, err := NewRoomAdapter(api, nil).Lookup(context.Background(), "100")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if st.Platform != PlatformBilibili || st.RoomID != "100" || st.CanonicalURL != "https://live.bilibili.com/100" {
		t.Fatalf("identity fields wrong: %+v", st)
	}
	if st.Title == nil || *st.Title != "Evening" {
		t.Fatalf("Title = %v", st.Title)
	}
	if st.LiveState == nil || *st.LiveState != StateLive {
		t.Fatalf("LiveState = %v", st.LiveState)
	}
	if st.CoverImageURL == nil || *st.CoverImageURL != "https://i0.hdslb.com/cover.jpg" {
		t.Fatalf("CoverImageURL = %v, want user cover", st.CoverImageURL)
	}
	if st.DisplayName == nil || *st.DisplayName != "Anchor" {
		t.Fatalf("DisplayName = %v", st.DisplayName)
	}
	if n := api.ownerIDCalls.Load(); n != 0 {
		t.Fatalf("owner chain called %d times, want 0", n)
	}
}

func TestRoomLookupCoverFallsBackToKeyframe(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {info: &bilibili.RoomInfo{Keyframe: ptr("https://i0.hdslb.com/key.jpg"), LiveStatus: ptr(2)}},
	}}

	st, _ := NewRoomAdapter(api, nil).Lookup(context.Background(), "1")
	if st.CoverImageURL == nil || *st.CoverImageURL != "https://i0.hdslb.com/key.jpg" {
		t.Fatalf("CoverImageURL = %v, want keyframe", st.CoverImageURL)
	}
	if st.LiveState == nil || *st.LiveState != StateRerun {
		t.Fatalf("LiveState = %v, want rerun", st.LiveState)
	}
}

func TestRoomLookupInfoFailsAnchorSucceeds(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {info: nil, anchor: ptr("Mika")},
	}}

	st, err := NewRoomAdapter(api, nil).Lookup(context.Background(), "1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if st.DisplayName == nil || *st.DisplayName != "Mika" {
		t.Fatalf("DisplayName = %v, want Mika", st.DisplayName)
	}
	if st.Title != nil || st.LiveState != nil || st.CoverImageURL != nil {
		t.Fatalf("info fields should be nil: %+v", st)
	}
	if st.CanonicalURL != "https://live.bilibili.com/1" {
		t.Fatalf("CanonicalURL = %q", st.CanonicalURL)
	}
}

func TestRoomLookupEverythingFails(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {anchorErr: errUpstream, uidErr: errUpstream},
	}}

	st, err := NewRoomAdapter(api, nil).Lookup(context.Background(), "1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if st.DisplayName != nil || st.Title != nil || st.LiveState != nil {
		t.Fatalf("expected all nullable fields nil: %+v", st)
	}
}

func TestNamePriorityInlineBeatsAnchor(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {
			info:      &bilibili.RoomInfo{Uname: ptr("Inline")},
			anchor:    ptr("Anchor"),
			uid:       ptr(int64(9)),
			ownerName: ptr("Owner"),
		},
	}}

	st, _ := NewRoomAdapter(api, nil).Lookup(context.Background(), "1")
	if st.DisplayName == nil || *st.DisplayName != "Inline" {
		t.Fatalf("DisplayName = %v, want Inline", st.DisplayName)
	}
}

func TestNamePrioritySlowAnchorStillWins(t *testing.T) {
	// The anchor answer arrives well after room info; the owner chain must not
	// be consulted nor win in the meantime.
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {
			info:        &bilibili.RoomInfo{Title: ptr("t")},
			anchor:      ptr("Anchor"),
			anchorDelay: 50 * time.Millisecond,
			uid:         ptr(int64(9)),
			ownerName:   ptr("Owner"),
		},
	}}

	for i := 0; i < 20; i++ {
		st, _ := NewRoomAdapter(api, nil).Lookup(context.Background(), "1")
		if st.DisplayName == nil || *st.DisplayName != "Anchor" {
			t.Fatalf("run %d: DisplayName = %v, want Anchor", i, st.DisplayName)
		}
	}
	if n := api.ownerIDCalls.Load(); n != 0 {
		t.Fatalf("owner chain called %d times, want 0", n)
	}
}

func TestNameFallsThroughToOwner(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {
			info:      &bilibili.RoomInfo{},
			anchorErr: errUpstream,
			uid:       ptr(int64(9)),
			ownerName: ptr("Owner"),
		},
	}}

	st, _ := NewRoomAdapter(api, nil).Lookup(context.Background(), "1")
	if st.DisplayName == nil || *st.DisplayName != "Owner" {
		t.Fatalf("DisplayName = %v, want Owner", st.DisplayName)
	}
}

func TestLookupNamePriority(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {info: &bilibili.RoomInfo{Uname: ptr("Inline")}, anchor: ptr("Anchor"), uid: ptr(int64(3)), ownerName: ptr("Owner")},
		"2": {info: &bilibili.RoomInfo{}, anchor: ptr("Anchor"), uid: ptr(int64(3)), ownerName: ptr("Owner")},
		"3": {uid: ptr(int64(4)), ownerName: ptr("Owner3")},
		"4": {uid: nil},
	}}
	adapter := NewRoomAdapter(api, nil)
	ctx := context.Background()

	cases := []struct {
		room string
		want *string
	}{
		{"1", ptr("Inline")},
		{"2", ptr("Anchor")},
		{"3", ptr("Owner3")},
		{"4", nil},
	}
	for _, tc := range cases {
		st, err := adapter.Lookup(ctx, tc.room)
		if err != nil {
			t.Fatalf("room %s: %v", tc.room, err)
		}
		if !reflect.DeepEqual(st.DisplayName, tc.want) {
			t.Fatalf("room %s DisplayName = %v, want %v", tc.room, deref(st.DisplayName), deref(tc.want))
		}
	}
	// Only rooms 3 and 4 reach the owner chain.
	if n := api.ownerIDCalls.Load(); n != 2 {
		t.Fatalf("owner chain called %d times, want 2", n)
	}
}

func TestLookupEmptyNamesFallThrough(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{
		"1": {info: &bilibili.RoomInfo{Uname: ptr("")}, anchor: ptr(""), uid: ptr(int64(3)), ownerName: ptr("Owner")},
	}}
	st, _ := NewRoomAdapter(api, nil).Lookup(context.Background(), "1")
	if st.DisplayName == nil || *st.DisplayName != "Owner" {
		t.Fatalf("DisplayName = %v, want Owner", st.DisplayName)
	}
}

func TestResolveSkipsOwnerWhenAnchorKnown(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]fakeRoom{"1": {uid: ptr(int64(3)), ownerName: ptr("Owner")}}}
	got := NewIdentityResolver(api, nil).Resolve(context.Background(), "1", nil, ptr("Anchor"))
	if got == nil || *got != "Anchor" {
		t.Fatalf("Resolve = %v, want Anchor", got)
	}
	if n := api.ownerIDCalls.Load(); n != 0 {
		t.Fatalf("owner chain called %d times", n)
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
