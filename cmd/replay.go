package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/replay"
	"github.com/JakeFAU/convert-progress/internal/server"
)

type replayOptions struct {
	port      int
	fixtures  string
	interval  time.Duration
	failAfter int
}

func newReplayCmd() *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Serve recorded progress fixtures over SSE",
		Long: `Starts a local server that streams snapshot fixtures on
/progress/{session_id}. Files in --fixtures named <session>.json (array) or
<session>.jsonl (one snapshot per line) are served for that session; any
other session gets the default fixture.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 0, "listen port (overrides replay.port)")
	cmd.Flags().StringVar(&opts.fixtures, "fixtures", "", "fixtures directory (overrides replay.fixtures_dir)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "delay between frames (overrides replay.interval_ms)")
	cmd.Flags().IntVar(&opts.failAfter, "fail-after", 0, "abort streams after N frames (overrides replay.fail_after)")
	return cmd
}

func runReplay(cmd *cobra.Command, opts *replayOptions) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := a.Config
	logger := a.Logger.Named("replay")

	port := cfg.Replay.Port
	if cmd.Flags().Changed("port") {
		port = opts.port
	}
	dir := cfg.Replay.FixturesDir
	if cmd.Flags().Changed("fixtures") {
		dir = opts.fixtures
	}
	replayCfg := replay.Config{Interval: cfg.ReplayInterval(), FailAfter: cfg.Replay.FailAfter}
	if cmd.Flags().Changed("interval") {
		replayCfg.Interval = opts.interval
	}
	if cmd.Flags().Changed("fail-after") {
		replayCfg.FailAfter = opts.failAfter
	}

	fixtures, err := replay.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	logger.Info("fixtures loaded", zap.Strings("sessions", fixtures.Sessions()), zap.String("dir", dir))

	srv, err := replay.NewServer(fixtures, replayCfg, logger, a.Registry)
	if err != nil {
		return err
	}
	return server.Run(cmd.Context(), ":"+strconv.Itoa(port), srv.Handler(), logger)
}
