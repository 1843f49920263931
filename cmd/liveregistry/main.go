package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Arturia169/my-homepage/internal/config"
	"github.com/Arturia169/my-homepage/internal/db"
)

func main() {
	config.LoadEnvFile()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatalf("missing DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := db.ApplySchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	in := bufio.NewReader(os.Stdin)

	fmt.Println("Manage tracked Bilibili rooms and YouTube channels.")
	fmt.Println("Actions: add-room, add-channel, remove-room, remove-channel, list.")
	fmt.Println("Enter 'q' at any prompt to quit.")
	fmt.Println()

	for {
		action, ok := prompt(in, "action")
		if !ok {
			return
		}

		switch strings.ToLower(action) {
		case "add-room":
			id, ok := prompt(in, "room_id")
			if !ok {
				return
			}
			if id == "" {
				fmt.Print("room_id is required.\n\n")
				continue
			}
			label, ok := prompt(in, "label (optional)")
			if !ok {
				return
			}
			if err := db.UpsertRoom(ctx, pool, db.Room{RoomID: id, Label: optional(label)}); err != nil {
				fmt.Printf("ERROR: %v\n\n", err)
				continue
			}
			fmt.Printf("OK: upserted room %s\n\n", id)

		case "add-channel":
			id, ok := prompt(in, "youtube_channel_id")
			if !ok {
				return
			}
			if id == "" {
				fmt.Print("youtube_channel_id is required.\n\n")
				continue
			}
			name, ok := prompt(in, "name (optional)")
			if !ok {
				return
			}
			if err := db.UpsertChannel(ctx, pool, db.Channel{YouTubeChannelID: id, Name: optional(name)}); err != nil {
				fmt.Printf("ERROR: %v\n\n", err)
				continue
			}
			fmt.Printf("OK: upserted channel %s\n\n", id)

		case "remove-room", "remove-channel":
			kind := db.KindRoom
			if strings.HasSuffix(strings.ToLower(action), "channel") {
				kind = db.KindChannel
			}
			id, ok := prompt(in, "id")
			if !ok {
				return
			}
			found, err := db.Deactivate(ctx, pool, kind, id)
			switch {
			case err != nil:
				fmt.Printf("ERROR: %v\n\n", err)
			case !found:
				fmt.Printf("no %s with id %s\n\n", kind, id)
			default:
				fmt.Printf("OK: deactivated %s %s\n\n", kind, id)
			}

		case "list":
			if err := list(ctx, pool); err != nil {
				fmt.Printf("ERROR: %v\n\n", err)
			}

		case "":
			continue

		default:
			fmt.Printf("unknown action %q\n\n", action)
		}
	}
}

func list(ctx context.Context, pool *pgxpool.Pool) error {
	rooms, err := db.ListActiveRooms(ctx, pool)
	if err != nil {
		return err
	}
	channels, err := db.ListActiveChannels(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Printf("rooms (%d):\n", len(rooms))
	for _, r := range rooms {
		fmt.Printf("  %s  %s\n", r.RoomID, deref(r.Label))
	}
	fmt.Printf("channels (%d):\n", len(channels))
	for _, c := range channels {
		fmt.Printf("  %s  %s\n", c.YouTubeChannelID, deref(c.Name))
	}
	fmt.Println()
	return nil
}

func prompt(in *bufio.Reader, label string) (string, bool) {
	fmt.Printf("%s: ", label)
	raw, err := in.ReadString('\n')
	if err != nil {
		return "", false
	}
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "q") {
		return "", false
	}
	return s, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
