package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Room is a Bilibili live room tracked in addition to BILIBILI_ROOMS.
type Room struct {
	RoomID string
	Label  *string
}

// Channel is a YouTube channel tracked in addition to YT_CHANNELS.
type Channel struct {
	YouTubeChannelID string
	Name             *string
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	normalizedURL, schema := normalizeDatabaseURL(databaseURL)
	cfg, err := pgxpool.ParseConfig(normalizedURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		if cfg.ConnConfig.RuntimeParams == nil {
			cfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	// SimpleProtocol so SchemaSQL can run as one multi-statement Exec.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return p, nil
}

// normalizeDatabaseURL moves a ?schema= parameter out of the URL so it can be
// applied as search_path.
func normalizeDatabaseURL(databaseURL string) (string, string) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL, ""
	}
	q := u.Query()
	schema := q.Get("schema")
	if schema == "" {
		return databaseURL, ""
	}
	q.Del("schema")
	u.RawQuery = q.Encode()
	return u.String(), schema
}

func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("nil pool")
	}
	if _, err := pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func ListActiveRooms(ctx context.Context, pool *pgxpool.Pool) ([]Room, error) {
	rows, err := pool.Query(ctx, `
		SELECT room_id, label
		FROM live.bilibili_rooms
		WHERE is_active = true
		ORDER BY created_at ASC, room_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active rooms: %w", err)
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.RoomID, &r.Label); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate rooms: %w", rows.Err())
	}
	return out, nil
}

func ListActiveChannels(ctx context.Context, pool *pgxpool.Pool) ([]Channel, error) {
	rows, err := pool.Query(ctx, `
		SELECT youtube_channel_id, name
		FROM live.youtube_channels
		WHERE is_active = true
		ORDER BY created_at ASC, youtube_channel_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.YouTubeChannelID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate channels: %w", rows.Err())
	}
	return out, nil
}

func UpsertRoom(ctx context.Context, pool *pgxpool.Pool, r Room) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO live.bilibili_rooms (
			room_id,
			label,
			is_active,
			updated_at
		) VALUES ($1,$2,TRUE,now())
		ON CONFLICT (room_id)
		DO UPDATE SET
			label = EXCLUDED.label,
			is_active = TRUE,
			updated_at = now()
	`, r.RoomID, r.Label)
	if err != nil {
		return fmt.Errorf("upsert room (id=%s): %w", r.RoomID, err)
	}
	return nil
}

func UpsertChannel(ctx context.Context, pool *pgxpool.Pool, c Channel) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO live.youtube_channels (
			youtube_channel_id,
			name,
			is_active,
			updated_at
		) VALUES ($1,$2,TRUE,now())
		ON CONFLICT (youtube_channel_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			is_active = TRUE,
			updated_at = now()
	`, c.YouTubeChannelID, c.Name)
	if err != nil {
		return fmt.Errorf("upsert channel (id=%s): %w", c.YouTubeChannelID, err)
	}
	return nil
}

// Deactivate hides a room or channel from aggregation without deleting it.
func Deactivate(ctx context.Context, pool *pgxpool.Pool, kind Kind, id string) (bool, error) {
	var q string
	switch kind {
	case KindRoom:
		q = `UPDATE live.bilibili_rooms SET is_active = false, updated_at = now() WHERE room_id = $1`
	case KindChannel:
		q = `UPDATE live.youtube_channels SET is_active = false, updated_at = now() WHERE youtube_channel_id = $1`
	default:
		return false, fmt.Errorf("unknown kind %q", kind)
	}
	tag, err := pool.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("deactivate %s (id=%s): %w", kind, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

type Kind string

const (
	KindRoom    Kind = "room"
	KindChannel Kind = "channel"
)

// Registry exposes the active ids to the aggregator.
type Registry struct {
	Pool *pgxpool.Pool
}

func (r Registry) ListActiveRoomIDs(ctx context.Context) ([]string, error) {
	rooms, err := ListActiveRooms(ctx, r.Pool)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.RoomID)
	}
	return out, nil
}

func (r Registry) ListActiveChannelIDs(ctx context.Context) ([]string, error) {
	channels, err := ListActiveChannels(ctx, r.Pool)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(channels))
	for _, c := range channels {
		out = append(out, c.YouTubeChannelID)
	}
	return out, nil
}
