// Package ingest manages live transport stream inputs, coupling the bytes
// a network receiver produces with a handler that inspects them, and
// collecting connection statistics along the way.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStreamExists is returned by Register when the key is already active.
var ErrStreamExists = errors.New("ingest: stream key already active")

// Stats captures connection-level metrics for a stream.
type Stats struct {
	BytesReceived int64         `json:"bytesReceived" yaml:"bytesReceived"`
	WriteCount    int64         `json:"writeCount" yaml:"writeCount"`
	ConnectedAt   time.Time     `json:"connectedAt" yaml:"connectedAt"`
	Uptime        time.Duration `json:"uptime" yaml:"uptime"`
	RemoteAddr    string        `json:"remoteAddr,omitempty" yaml:"remoteAddr,omitempty"`
}

// Stream is one active input. The network receiver writes the bytes it
// reads into the Stream; the registry's handler reads them back in order.
type Stream struct {
	Key       string
	StartedAt time.Time

	pr   *io.PipeReader
	pw   *io.PipeWriter
	done chan struct{}

	bytesReceived atomic.Int64
	writeCount    atomic.Int64
	remoteAddr    atomic.Value
}

// Write hands p to the stream's handler. It blocks until the handler has
// consumed p, and fails once the handler has returned or the stream has
// been unregistered.
func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	s.bytesReceived.Add(int64(n))
	s.writeCount.Add(1)
	return n, err
}

// SetRemoteAddr records the peer address for diagnostics.
func (s *Stream) SetRemoteAddr(addr string) {
	s.remoteAddr.Store(addr)
}

// Done is closed when the stream is unregistered.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Stats returns a snapshot of the stream's metrics.
func (s *Stream) Stats() Stats {
	addr, _ := s.remoteAddr.Load().(string)
	return Stats{
		BytesReceived: s.bytesReceived.Load(),
		WriteCount:    s.writeCount.Load(),
		ConnectedAt:   s.StartedAt,
		Uptime:        time.Since(s.StartedAt),
		RemoteAddr:    addr,
	}
}

// Handler consumes one stream. r yields the stream's bytes and returns
// io.EOF once the stream is unregistered.
type Handler func(s *Stream, r io.Reader)

// Registry tracks active streams by key and starts a Handler goroutine for
// each. It is the rendezvous point between the network receivers and the
// inspection pipeline.
type Registry struct {
	mu      sync.RWMutex
	streams map[string]*Stream
	handle  Handler
	wg      sync.WaitGroup
}

// NewRegistry creates a Registry. A nil handler discards stream bytes.
func NewRegistry(handle Handler) *Registry {
	if handle == nil {
		handle = func(_ *Stream, r io.Reader) { _, _ = io.Copy(io.Discard, r) }
	}
	return &Registry{
		streams: make(map[string]*Stream),
		handle:  handle,
	}
}

// Register creates a stream under key and starts its handler.
func (r *Registry) Register(key string) (*Stream, error) {
	pr, pw := io.Pipe()
	stream := &Stream{
		Key:       key,
		StartedAt: time.Now(),
		pr:        pr,
		pw:        pw,
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	if _, ok := r.streams[key]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrStreamExists, key)
	}
	r.streams[key] = stream
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.handle(stream, pr)
		// Unblock the writer if the handler stopped reading early.
		pr.Close()
	}()
	return stream, nil
}

// Unregister removes a stream by key, ending its input and closing Done.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	stream, ok := r.streams[key]
	if ok {
		delete(r.streams, key)
	}
	r.mu.Unlock()

	if ok {
		stream.pw.Close()
		close(stream.done)
	}
}

// Get returns the Stream for key, or false if it is not active.
func (r *Registry) Get(key string) (*Stream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[key]
	return s, ok
}

// Keys returns the active stream keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.streams))
	for k := range r.streams {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Wait blocks until every handler started so far has returned.
func (r *Registry) Wait() { r.wg.Wait() }
