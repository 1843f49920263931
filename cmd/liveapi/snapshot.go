package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var snapshotRoom string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the last snapshot published to Redis",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotRoom, "room", "", "print only this Bilibili room")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if a.Snapshots == nil {
		return errors.New("snapshots unavailable: REDIS_URL unset or unreachable")
	}

	var (
		out any
		ok  bool
	)
	if snapshotRoom != "" {
		out, ok, err = a.Snapshots.Room(ctx, snapshotRoom)
	} else {
		out, ok, err = a.Snapshots.Latest(ctx)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no snapshot stored")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
