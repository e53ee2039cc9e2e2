package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/tsproto/ingest"
	"github.com/zsiec/tsproto/ingest/srt"
)

func (a *app) listenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Inspect SRT streams as they are published or pulled",
		Long: `listen accepts SRT publishers on srt.listen and dials every source listed in
srt.pulls. Each stream is inspected as it arrives; its report is written when
the stream ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			override(flags, "addr", flags.GetString, &a.cfg.SRT.Listen)
			override(flags, "shards", flags.GetInt, &a.cfg.Inspect.Shards)
			override(flags, "output", flags.GetString, &a.cfg.Inspect.Output)
			override(flags, "events", flags.GetBool, &a.cfg.Inspect.Events)
			pulls, _ := flags.GetStringArray("pull")
			for _, raw := range pulls {
				addr, streamID, err := srt.ParseURL(raw)
				if err != nil {
					return err
				}
				key := streamID
				if key == "" {
					key = addr
				}
				a.cfg.SRT.Pulls = append(a.cfg.SRT.Pulls, srt.PullRequest{Address: addr, StreamKey: key, StreamID: streamID})
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.listen(ctx)
		},
	}
	cmd.Flags().String("addr", ":6000", "SRT listen address")
	cmd.Flags().StringArray("pull", nil, "srt:// URL to pull from (repeatable)")
	cmd.Flags().Int("shards", 0, "continuity worker goroutines per stream")
	cmd.Flags().StringP("output", "o", "text", "report format (text, json, yaml)")
	cmd.Flags().Bool("events", false, "print every event as it is found")
	return cmd
}

func (a *app) listen(ctx context.Context) error {
	registry := ingest.NewRegistry(a.streamHandler(ctx, a.stdout))
	server := srt.NewServer(a.cfg.SRT.Listen, registry, a.log)
	caller := srt.NewCaller(registry, a.cfg.SRT.DialTimeout, a.log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	for _, req := range a.cfg.SRT.Pulls {
		g.Go(func() error {
			if err := caller.Pull(ctx, req); err != nil {
				a.log.Error("pull failed", "address", req.Address, "stream_key", req.StreamKey, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	registry.Wait()
	return err
}

// streamHandler inspects each ingested stream and writes its report to w
// once the stream ends. Reports of concurrent streams are not interleaved.
func (a *app) streamHandler(ctx context.Context, w io.Writer) ingest.Handler {
	var mu sync.Mutex
	return func(s *ingest.Stream, r io.Reader) {
		log := a.log.With("stream_key", s.Key)
		log.Info("inspecting stream")
		rep, err := a.inspect(ctx, s.Key, r)
		if err != nil {
			log.Error("inspection failed", "error", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if a.cfg.Inspect.Output == "text" {
			fmt.Fprintf(w, "== %s\n", s.Key)
		}
		if err := writeReport(w, a.cfg.Inspect.Output, rep); err != nil {
			log.Error("writing report", "error", err)
		}
	}
}
