package livestatus

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeRegistry struct {
	rooms       []string
	channels    []string
	roomsErr    error
	channelsErr error
}

func (f fakeRegistry) ListActiveRoomIDs(context.Context) ([]string, error) {
	return f.rooms, f.roomsErr
}

func (f fakeRegistry) ListActiveChannelIDs(context.Context) ([]string, error) {
	return f.channels, f.channelsErr
}

func TestRegistryTargetsAppendsAfterBase(t *testing.T) {
	src := RegistryTargets{
		Base: Targets{Rooms: []string{"1", "2", "1"}, Channels: []string{"UC1"}},
		Registry: fakeRegistry{
			rooms:    []string{"2", "3", "3", ""},
			channels: []string{"UC2", "UC1"},
		},
	}

	got := src.Targets(context.Background())

	if want := []string{"1", "2", "1", "3"}; !reflect.DeepEqual(got.Rooms, want) {
		t.Fatalf("Rooms = %v, want %v", got.Rooms, want)
	}
	if want := []string{"UC1", "UC2"}; !reflect.DeepEqual(got.Channels, want) {
		t.Fatalf("Channels = %v, want %v", got.Channels, want)
	}
}

func TestRegistryTargetsFailureServesBase(t *testing.T) {
	boom := errors.New("db down")
	src := RegistryTargets{
		Base:     Targets{Rooms: []string{"1"}, Channels: []string{"UC1"}},
		Registry: fakeRegistry{roomsErr: boom, channels: []string{"UC9"}},
	}

	got := src.Targets(context.Background())

	if want := []string{"1"}; !reflect.DeepEqual(got.Rooms, want) {
		t.Fatalf("Rooms = %v, want %v", got.Rooms, want)
	}
	if want := []string{"UC1", "UC9"}; !reflect.DeepEqual(got.Channels, want) {
		t.Fatalf("Channels = %v, want %v", got.Channels, want)
	}
}

// stalledRegistry blocks until its context is done.
type stalledRegistry struct{}

func (stalledRegistry) ListActiveRoomIDs(ctx context.Context) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledRegistry) ListActiveChannelIDs(ctx context.Context) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRegistryTargetsStalledRegistryTimesOut(t *testing.T) {
	src := RegistryTargets{
		Base:     Targets{Rooms: []string{"1"}, Channels: []string{"UC1"}},
		Registry: stalledRegistry{},
		Timeout:  50 * time.Millisecond,
	}

	done := make(chan Targets, 1)
	go func() { done <- src.Targets(context.Background()) }()

	select {
	case got := <-done:
		if want := []string{"1"}; !reflect.DeepEqual(got.Rooms, want) {
			t.Fatalf("Rooms = %v, want %v", got.Rooms, want)
		}
		if want := []string{"UC1"}; !reflect.DeepEqual(got.Channels, want) {
			t.Fatalf("Channels = %v, want %v", got.Channels, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Targets blocked on a stalled registry")
	}
}

func TestStaticTargetsCopies(t *testing.T) {
	base := StaticTargets{Rooms: []string{"1"}}
	got := base.Targets(context.Background())
	got.Rooms[0] = "changed"
	if base.Rooms[0] != "1" {
		t.Fatal("StaticTargets leaked its backing slice")
	}
}
