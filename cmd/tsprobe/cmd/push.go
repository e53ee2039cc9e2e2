package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsproto/ingest/srt"
)

func (a *app) pushCommand() *cobra.Command {
	var (
		bitrate int64
		loop    bool
	)
	cmd := &cobra.Command{
		Use:   "push <file> <srt://host:port?streamid=key>",
		Short: "Publish a transport stream file to an SRT listener",
		Long: `push sends a transport stream file to an SRT listener in caller mode, paced
at --bitrate. With --loop the file repeats until interrupted, with continuity
counters carried across each loop so the receiver sees one unbroken stream.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bitrate < 0 {
				return fmt.Errorf("bitrate must not be negative")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			addr, streamID, err := srt.ParseURL(args[1])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := srt.Dial(ctx, addr, streamID, a.cfg.SRT.DialTimeout)
			if err != nil {
				return err
			}
			defer conn.Close()

			opts := srt.PublishOptions{
				BytesPerSecond: float64(bitrate) / 8,
				Passes:         1,
				Logger:         a.log,
			}
			if loop {
				opts.Passes = 0
			}
			a.log.Info("publishing", "file", args[0], "addr", addr, "streamID", streamID, "bytes", len(data))
			sent, err := srt.Publish(ctx, conn, data, opts)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("publish finished", "bytes", sent)
			return nil
		},
	}
	cmd.Flags().Int64Var(&bitrate, "bitrate", 5_000_000, "pacing rate in bits per second (0 sends unpaced)")
	cmd.Flags().BoolVar(&loop, "loop", false, "repeat the file until interrupted")
	return cmd
}
