package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsproto/ingest/srt"
	"github.com/zsiec/tsproto/pipeline"
)

// errStreamFaults is returned by inspect --strict when the stream had
// discontinuities or errors.
var errStreamFaults = errors.New("stream has faults")

func (a *app) inspectCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "inspect [file | - | srt://host:port?streamid=key]",
		Short: "Check continuity and report the PSI tables of a transport stream",
		Long: `inspect reads a transport stream to its end, checks the continuity counter of
every PID, and reassembles the PAT, PMT and other PSI tables it carries.

The input is a file, "-" or nothing for stdin, or an srt:// URL to pull from.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			override(flags, "shards", flags.GetInt, &a.cfg.Inspect.Shards)
			override(flags, "output", flags.GetString, &a.cfg.Inspect.Output)
			override(flags, "events", flags.GetBool, &a.cfg.Inspect.Events)
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			source := "-"
			if len(args) == 1 {
				source = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, err := a.openSource(ctx, source)
			if err != nil {
				return err
			}
			defer r.Close()

			rep, err := a.inspect(ctx, source, r)
			if err != nil {
				return err
			}
			if err := writeReport(a.stdout, a.cfg.Inspect.Output, rep); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			if strict && (rep.ErrorCount > 0 || len(rep.Discontinuities) > 0) {
				return errStreamFaults
			}
			return nil
		},
	}
	cmd.Flags().Int("shards", 0, "continuity worker goroutines (default from config, 0 inspects inline)")
	cmd.Flags().StringP("output", "o", "text", "report format (text, json, yaml)")
	cmd.Flags().Bool("events", false, "print every event as it is found")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the stream has discontinuities or errors")
	return cmd
}

// inspect runs the pipeline over r and returns the finished report.
func (a *app) inspect(ctx context.Context, source string, r io.Reader) (report, error) {
	var onEvent func(pipeline.Event)
	if a.cfg.Inspect.Events {
		onEvent = a.printEvent(source)
	}
	c := newCollector(source, onEvent)
	stats, err := pipeline.Run(ctx, r, pipeline.Options{
		Shards: a.cfg.Inspect.Shards,
		Logger: a.log.With("source", source),
	}, c.handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return report{}, fmt.Errorf("inspecting %s: %w", source, err)
	}
	return c.finish(stats), nil
}

// printEvent writes events as lines on stdout for the text report, and
// logs them otherwise so structured output stays parseable.
func (a *app) printEvent(source string) func(pipeline.Event) {
	if a.cfg.Inspect.Output == "text" {
		return func(ev pipeline.Event) { fmt.Fprintln(a.stdout, ev) }
	}
	log := a.log.With("source", source)
	return func(ev pipeline.Event) {
		log.Info("event", "kind", ev.Kind, "pid", ev.PID, "packet", ev.Packet, "detail", ev.String())
	}
}

func (a *app) openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case source == "-":
		return io.NopCloser(a.stdin), nil
	case strings.HasPrefix(source, "srt://"):
		addr, streamID, err := srt.ParseURL(source)
		if err != nil {
			return nil, err
		}
		conn, err := srt.Dial(ctx, addr, streamID, a.cfg.SRT.DialTimeout)
		if err != nil {
			return nil, err
		}
		a.log.Info("pulling SRT stream", "addr", addr, "streamID", streamID)
		return conn, nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}
