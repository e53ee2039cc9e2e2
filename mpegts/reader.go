package mpegts

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// PacketReader reads and decodes consecutive 188-byte packets from an
// io.Reader.
type PacketReader struct {
	ctx     context.Context
	reader  io.Reader
	codec   Codec
	readBuf []byte
	count   int64
}

// NewPacketReader creates a PacketReader reading from r.
func NewPacketReader(ctx context.Context, r io.Reader, opts ...func(*PacketReader)) *PacketReader {
	pr := &PacketReader{
		ctx:     ctx,
		reader:  r,
		readBuf: make([]byte, PacketSize),
	}
	for _, opt := range opts {
		opt(pr)
	}
	return pr
}

// PacketReaderOptCodec sets the codec used to decode packets, for example
// to plug in a structured adaptation field codec.
func PacketReaderOptCodec(c Codec) func(*PacketReader) {
	return func(pr *PacketReader) {
		pr.codec = c
	}
}

// Count returns the number of frames read so far, including frames that
// failed to decode.
func (pr *PacketReader) Count() int64 { return pr.count }

// Next reads the next packet. It returns io.EOF at a clean end of input. A
// frame that fails to decode is reported with an error wrapping ErrFraming;
// the reader stays aligned on the following frame, so the caller may skip
// it and continue.
func (pr *PacketReader) Next() (Packet, error) {
	if err := pr.ctx.Err(); err != nil {
		return Packet{}, err
	}
	if _, err := io.ReadFull(pr.reader, pr.readBuf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, fmt.Errorf("%w: truncated final packet: %w", ErrFraming, err)
		}
		return Packet{}, err
	}
	pr.count++
	return pr.codec.Decode(pr.readBuf)
}
