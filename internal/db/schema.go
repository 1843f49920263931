package db

const SchemaSQL = `
CREATE SCHEMA IF NOT EXISTS live;

CREATE TABLE IF NOT EXISTS live.bilibili_rooms (
	room_id    text PRIMARY KEY,
	label      text,
	is_active  boolean NOT NULL DEFAULT true,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS live.youtube_channels (
	youtube_channel_id text PRIMARY KEY,
	name               text,
	is_active          boolean NOT NULL DEFAULT true,
	created_at         timestamptz NOT NULL DEFAULT now(),
	updated_at         timestamptz NOT NULL DEFAULT now()
);
`
