package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sweeney/trip-fusion/internal/config"
	"github.com/sweeney/trip-fusion/internal/gpsstatus"
	"github.com/sweeney/trip-fusion/internal/mqtt"
	"github.com/sweeney/trip-fusion/internal/recorder"
	"github.com/sweeney/trip-fusion/internal/replay"
	"github.com/sweeney/trip-fusion/internal/stats"
)

// ReplaySummary is printed after a replay.
type ReplaySummary struct {
	TrackID  string        `json:"track_id"`
	Fixes    int           `json:"fixes"`
	Points   int           `json:"points"`
	Rejected int           `json:"rejected"`
	Pauses   int           `json:"pauses"`
	Samples  int           `json:"samples"`
	Stats    stats.Summary `json:"stats"`
}

func newReplayCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay a GPX track through the recorder and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			points, _ := cmd.Flags().GetBool("points")
			return replayFile(cmd.OutOrStdout(), cfg, args[0], points)
		},
	}
	cmd.Flags().Bool("points", false, "Print every recorded point payload before the summary")
	return cmd
}

func replayFile(w io.Writer, cfg config.Config, path string, points bool) error {
	doc, err := replay.ParseFile(path)
	if err != nil {
		return err
	}

	rec, err := recorder.New(cfg.Recorder(), gpsstatus.ProviderFunc(func() bool { return true }))
	if err != nil {
		return fmt.Errorf("create recorder: %w", err)
	}

	var writeErr error
	onPoint := func(p recorder.Point) {
		if !points || writeErr != nil {
			return
		}
		payload, err := mqtt.FormatPoint(p)
		if err != nil {
			writeErr = err
			return
		}
		_, writeErr = fmt.Fprintf(w, "%s\n", payload)
	}

	res, err := replay.Run(rec, doc, onPoint)
	if err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("write point: %w", writeErr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ReplaySummary{
		TrackID:  res.TrackID,
		Fixes:    res.Counters.Fixes,
		Points:   res.Counters.Points,
		Rejected: res.Counters.Rejected,
		Pauses:   res.Counters.Pauses,
		Samples:  res.Counters.Samples,
		Stats:    res.Statistics.Summary(),
	})
}
