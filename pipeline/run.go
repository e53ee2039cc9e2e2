package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/tsproto/mpegts"
)

const queueSize = 256

// Options configures Run.
type Options struct {
	// Shards is the number of worker goroutines that report on PIDs not
	// carrying PSI. Each worker owns the PIDs congruent to its index modulo
	// Shards. Zero runs everything on the reading goroutine.
	Shards int

	// Codec decodes packets. The zero value uses the raw adaptation field
	// codec.
	Codec mpegts.Codec

	Logger *slog.Logger
}

// Stats summarizes a Run.
type Stats struct {
	Packets         int64
	Discontinuities int64
	Tables          int64
	Errors          int64
	Duration        time.Duration
}

type job struct {
	index  int64
	packet mpegts.CheckedPacket
}

// Run reads the transport stream r to its end and passes every Event to
// handle. Continuity is checked for every PID on the reading goroutine, so
// a PID keeps its counter when a PAT moves it in or out of the PMT set. The
// PAT, CAT and PMT PIDs are also inspected there; the checked packets of the
// remaining PIDs are spread over Options.Shards workers. Events of one
// PID reach handle in stream order, and handle is never called
// concurrently.
//
// A packet that fails to decode is reported as an EventError and skipped.
// Run returns when the input is exhausted, or with the context's error
// when ctx is cancelled.
func Run(ctx context.Context, r io.Reader, opts Options, handle func(Event)) (Stats, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "pipeline")
	if handle == nil {
		handle = func(Event) {}
	}
	start := time.Now()

	events := make(chan Event, queueSize)
	queues := make([]chan job, max(opts.Shards, 0))
	for i := range queues {
		queues[i] = make(chan job, queueSize)
	}

	send := func(ctx context.Context, evs []Event) error {
		for _, ev := range evs {
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	producers, pctx := errgroup.WithContext(ctx)
	pr := mpegts.NewPacketReader(pctx, r, mpegts.PacketReaderOptCodec(opts.Codec))

	producers.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()

		in := NewInspector()
		for {
			index := pr.Count()
			p, err := pr.Next()
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case errors.Is(err, mpegts.ErrFraming):
				if serr := send(pctx, []Event{{Kind: EventError, Packet: index, Err: err}}); serr != nil {
					return serr
				}
				if errors.Is(err, io.ErrUnexpectedEOF) {
					return nil
				}
				continue
			case err != nil:
				return err
			}

			pid := p.Header.PID
			if len(queues) == 0 || in.IsPSI(pid) || pid == mpegts.PIDNull {
				if err := send(pctx, in.feed(index, p)); err != nil {
					return err
				}
				continue
			}
			cp := in.continuity.Step(p)
			select {
			case queues[int(pid)%len(queues)] <- job{index: index, packet: cp}:
			case <-pctx.Done():
				return pctx.Err()
			}
		}
	})

	for i, q := range queues {
		producers.Go(func() error {
			in := NewInspector()
			for j := range q {
				if err := send(pctx, in.feedChecked(j.index, j.packet)); err != nil {
					return err
				}
			}
			log.Debug("shard done", "shard", i, "packets", in.Packets())
			return nil
		})
	}

	var stats Stats
	g := new(errgroup.Group)
	g.Go(func() error {
		err := producers.Wait()
		close(events)
		return err
	})
	g.Go(func() error {
		for ev := range events {
			switch ev.Kind {
			case EventDiscontinuity:
				stats.Discontinuities++
			case EventPAT, EventPMT, EventTable:
				stats.Tables++
			case EventError:
				stats.Errors++
				log.Debug("inspection error", "pid", ev.PID, "packet", ev.Packet, "error", ev.Err)
			}
			handle(ev)
		}
		return nil
	})

	err := g.Wait()
	stats.Packets = pr.Count()
	stats.Duration = time.Since(start)
	log.Info("stream inspected",
		"packets", stats.Packets,
		"discontinuities", stats.Discontinuities,
		"tables", stats.Tables,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
	return stats, err
}
