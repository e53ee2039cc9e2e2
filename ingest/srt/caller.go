package srt

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sort"
	"sync"
	"time"

	srtgo "github.com/zsiec/srtgo"

	"github.com/zsiec/tsproto/ingest"
)

// DefaultDialTimeout bounds a caller-mode handshake when no timeout is
// given.
const DefaultDialTimeout = 10 * time.Second

// ParseURL splits an srt://host:port?streamid=... URL into the dial
// address and the stream id.
func ParseURL(raw string) (addr, streamID string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("SRT url %q: %w", raw, err)
	}
	if u.Scheme != "srt" {
		return "", "", fmt.Errorf("SRT url %q: scheme must be srt", raw)
	}
	if _, _, err := net.SplitHostPort(u.Host); err != nil {
		return "", "", fmt.Errorf("SRT url %q: %w", raw, err)
	}
	return u.Host, u.Query().Get("streamid"), nil
}

// Dial connects to the SRT listener at addr in caller mode. It gives up
// after timeout, or when ctx is done; a zero timeout means
// DefaultDialTimeout.
func Dial(ctx context.Context, addr, streamID string, timeout time.Duration) (*srtgo.Conn, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	cfg := srtgo.DefaultConfig()
	cfg.Latency = srtLatencyNs
	cfg.StreamID = streamID

	type dialResult struct {
		conn *srtgo.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := srtgo.Dial(addr, cfg)
		ch <- dialResult{conn, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("SRT dial %s failed: %w", addr, res.err)
		}
		return res.conn, nil
	case <-timer.C:
		// Drain the dial result in the background and close any leaked connection.
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, fmt.Errorf("SRT dial %s timed out after %s", addr, timeout)
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// PullRequest describes a remote SRT source to pull from.
type PullRequest struct {
	Address   string `json:"address" yaml:"address" mapstructure:"address"`
	StreamKey string `json:"streamKey" yaml:"streamKey" mapstructure:"stream_key"`
	StreamID  string `json:"streamId,omitempty" yaml:"streamId,omitempty" mapstructure:"stream_id"`
}

type activePull struct {
	req    PullRequest
	cancel context.CancelFunc
}

// Caller manages SRT pull connections, dialing remote SRT sources and
// streaming their data into the ingest registry.
type Caller struct {
	log         *slog.Logger
	registry    *ingest.Registry
	dialTimeout time.Duration

	mu    sync.Mutex
	pulls map[string]*activePull
}

// NewCaller creates a Caller that registers pulled streams with registry.
// If log is nil, slog.Default() is used.
func NewCaller(registry *ingest.Registry, dialTimeout time.Duration, log *slog.Logger) *Caller {
	if log == nil {
		log = slog.Default()
	}
	return &Caller{
		log:         log.With("component", "srt-caller"),
		registry:    registry,
		dialTimeout: dialTimeout,
		pulls:       make(map[string]*activePull),
	}
}

// Pull dials the remote SRT listener synchronously, returning an error if
// the connection fails. On success, streaming continues in a background
// goroutine until the source ends, Stop is called or ctx is cancelled.
func (c *Caller) Pull(ctx context.Context, req PullRequest) error {
	if req.Address == "" {
		return fmt.Errorf("address is required")
	}
	if req.StreamKey == "" {
		return fmt.Errorf("streamKey is required")
	}

	c.mu.Lock()
	if _, exists := c.pulls[req.StreamKey]; exists {
		c.mu.Unlock()
		return fmt.Errorf("pull already active for stream key %q", req.StreamKey)
	}
	c.mu.Unlock()

	streamID := req.StreamID
	if streamID == "" {
		streamID = "live/" + req.StreamKey
	}
	c.log.Info("dialing", "address", req.Address, "stream_key", req.StreamKey)
	conn, err := Dial(ctx, req.Address, streamID, c.dialTimeout)
	if err != nil {
		return err
	}
	return c.startStreaming(ctx, req, conn)
}

func (c *Caller) startStreaming(ctx context.Context, req PullRequest, conn *srtgo.Conn) error {
	pullCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if _, exists := c.pulls[req.StreamKey]; exists {
		c.mu.Unlock()
		cancel()
		conn.Close()
		return fmt.Errorf("pull already active for stream key %q", req.StreamKey)
	}
	stream, err := c.registry.Register(req.StreamKey)
	if err != nil {
		c.mu.Unlock()
		cancel()
		conn.Close()
		return err
	}
	c.pulls[req.StreamKey] = &activePull{req: req, cancel: cancel}
	c.mu.Unlock()

	c.log.Info("connected", "address", req.Address, "stream_key", req.StreamKey)
	stream.SetRemoteAddr(req.Address)

	go func() {
		defer func() {
			conn.Close()
			stats := stream.Stats()
			c.registry.Unregister(req.StreamKey)
			c.mu.Lock()
			delete(c.pulls, req.StreamKey)
			c.mu.Unlock()
			c.log.Info("pull ended", "stream_key", req.StreamKey,
				"bytes", stats.BytesReceived, "writes", stats.WriteCount,
				"uptime", stats.Uptime)
		}()
		copyStream(pullCtx, c.log, conn, stream)
	}()

	return nil
}

// Stop cancels the pull for streamKey.
func (c *Caller) Stop(streamKey string) error {
	c.mu.Lock()
	ap, ok := c.pulls[streamKey]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("no active pull for stream key %q", streamKey)
	}

	ap.cancel()
	return nil
}

// ActivePulls returns the active pulls ordered by stream key.
func (c *Caller) ActivePulls() []PullRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]PullRequest, 0, len(c.pulls))
	for _, ap := range c.pulls {
		out = append(out, ap.req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreamKey < out[j].StreamKey })
	return out
}
