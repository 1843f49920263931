package livestatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SnapshotKey = "livedash:snapshot"
	RoomsKey    = "livedash:rooms"
)

// RedisStore mirrors the latest aggregate for other consumers. It is a current
// view only; /api/live never reads from it.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// publishAttempts bounds retries when a concurrent publish touches the rooms
// hash between WATCH and EXEC.
const publishAttempts = 5

func (s *RedisStore) Publish(ctx context.Context, res AggregateResult) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("nil redis client")
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	snapshot, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	keep := make(map[string]struct{}, len(res.Rooms))
	rooms := make(map[string]string, len(res.Rooms))
	for _, room := range res.Rooms {
		b, err := json.Marshal(room)
		if err != nil {
			return fmt.Errorf("marshal room %s: %w", room.RoomID, err)
		}
		keep[room.RoomID] = struct{}{}
		rooms[room.RoomID] = string(b)
	}

	// Rooms no longer configured are removed so the hash stays a clean current
	// view. The field list is read under WATCH so a concurrent publish cannot
	// slip stale fields in between the read and the write.
	write := func(tx *redis.Tx) error {
		existing, err := tx.HKeys(ctx, RoomsKey).Result()
		if err != nil {
			return fmt.Errorf("redis HKEYS %s: %w", RoomsKey, err)
		}
		var toDelete []string
		for _, field := range existing {
			if _, ok := keep[field]; !ok {
				toDelete = append(toDelete, field)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, SnapshotKey, snapshot, ttl)
			for _, room := range res.Rooms {
				// Single-field HSET for older servers.
				pipe.HSet(ctx, RoomsKey, room.RoomID, rooms[room.RoomID])
			}
			if len(toDelete) > 0 {
				pipe.HDel(ctx, RoomsKey, toDelete...)
			}
			pipe.Expire(ctx, RoomsKey, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < publishAttempts; i++ {
		err = s.Client.Watch(ctx, write, RoomsKey, SnapshotKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Latest returns the last published snapshot; ok is false when none is stored
// or it has expired.
func (s *RedisStore) Latest(ctx context.Context) (res AggregateResult, ok bool, err error) {
	if s == nil || s.Client == nil {
		return AggregateResult{}, false, fmt.Errorf("nil redis client")
	}
	raw, err := s.Client.Get(ctx, SnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return AggregateResult{}, false, nil
	}
	if err != nil {
		return AggregateResult{}, false, fmt.Errorf("redis GET %s: %w", SnapshotKey, err)
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return AggregateResult{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return res, true, nil
}

// Room returns one room's last published status.
func (s *RedisStore) Room(ctx context.Context, roomID string) (RoomStatus, bool, error) {
	if s == nil || s.Client == nil {
		return RoomStatus{}, false, fmt.Errorf("nil redis client")
	}
	raw, err := s.Client.HGet(ctx, RoomsKey, roomID).Bytes()
	if errors.Is(err, redis.Nil) {
		return RoomStatus{}, false, nil
	}
	if err != nil {
		return RoomStatus{}, false, fmt.Errorf("redis HGET %s %s: %w", RoomsKey, roomID, err)
	}
	var st RoomStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return RoomStatus{}, false, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return st, true, nil
}
