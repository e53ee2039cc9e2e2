package srt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zsiec/tsproto/mpegts"
)

// publishChunkSize is seven packets, the standard SRT payload.
const publishChunkSize = mpegts.PacketSize * 7

const publishLogInterval = 10 * time.Second

// PublishOptions configures Publish.
type PublishOptions struct {
	// BytesPerSecond paces writes against a global clock. Zero writes as
	// fast as w accepts.
	BytesPerSecond float64

	// Passes is the number of times data is sent. Zero repeats until ctx
	// is done.
	Passes int

	Logger *slog.Logger
}

// Publish writes the transport stream data to w, typically a connection
// made with Dial. From the second pass on, continuity counters are
// rewritten so every PID counts on across the loop seam. It returns the
// number of bytes written.
func Publish(ctx context.Context, w io.Writer, data []byte, opts PublishOptions) (int64, error) {
	if len(data) == 0 || len(data)%mpegts.PacketSize != 0 {
		return 0, fmt.Errorf("publish: %d bytes is not a whole number of packets", len(data))
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "srt-publish")

	var (
		sent     int64
		start    = time.Now()
		lastLog  = start
		counters = make(map[mpegts.PID]mpegts.ContinuityCounter)
		buf      = make([]byte, len(data))
	)
	for pass := 1; opts.Passes == 0 || pass <= opts.Passes; pass++ {
		out := data
		if pass > 1 {
			copy(buf, data)
			out = buf
		}
		restamp(out, counters, pass > 1)

		for i := 0; i < len(out); i += publishChunkSize {
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			end := min(i+publishChunkSize, len(out))
			n, err := w.Write(out[i:end])
			sent += int64(n)
			if err != nil {
				return sent, fmt.Errorf("publish: %w", err)
			}

			// Pace against the global clock so there is no burst at the
			// loop seam.
			if opts.BytesPerSecond > 0 {
				expected := time.Duration(float64(sent) / opts.BytesPerSecond * float64(time.Second))
				if wait := expected - time.Since(start); wait > 0 {
					select {
					case <-time.After(wait):
					case <-ctx.Done():
						return sent, ctx.Err()
					}
				}
			}
			if time.Since(lastLog) >= publishLogInterval {
				log.Info("publishing", "pass", pass, "bytes", sent,
					"rate", float64(sent)/time.Since(start).Seconds())
				lastLog = time.Now()
			}
		}
		log.Debug("pass complete", "pass", pass, "bytes", sent)
	}
	return sent, nil
}

// restamp records the last continuity counter of every PID in data into
// counters. When rewrite is set, each packet first gets the counter
// following the one recorded for its PID. Packets that fail to decode are
// left as they are.
func restamp(data []byte, counters map[mpegts.PID]mpegts.ContinuityCounter, rewrite bool) {
	for off := 0; off < len(data); off += mpegts.PacketSize {
		frame := data[off : off+mpegts.PacketSize]
		p, err := mpegts.Decode(frame)
		if err != nil {
			continue
		}
		pid := p.Header.PID
		if last, ok := counters[pid]; ok && rewrite {
			p.Header.ContinuityCounter = last.Next()
			b, err := mpegts.Encode(p)
			if err != nil {
				continue
			}
			copy(frame, b)
		}
		counters[pid] = p.Header.ContinuityCounter
	}
}
