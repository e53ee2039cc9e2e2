// Package descriptor implements the tag-length-value descriptor format
// carried in PSI tables (ISO/IEC 13818-1 section 2.6).
//
// Every descriptor is an 8-bit tag, an 8-bit length and exactly length bytes
// of body. Tags listed in the known table decode to structured values; any
// other tag decodes to Unknown, which keeps the body verbatim. Decoding an
// unknown tag never fails.
package descriptor

import (
	"errors"
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
)

var (
	// ErrFraming reports a descriptor whose body does not match its length
	// byte: the input ends early, or the body codec reads past or stops short
	// of the declared length.
	ErrFraming = errors.New("descriptor: framing error")

	// ErrFieldRange reports a value that does not fit its wire field on
	// encode.
	ErrFieldRange = errors.New("descriptor: field out of range")
)

// MaxBodySize is the largest body a descriptor length byte can declare.
const MaxBodySize = 255

// Descriptor is one decoded descriptor. The set of implementations is closed:
// the known variants of this package plus Unknown.
type Descriptor interface {
	// Tag returns the descriptor_tag.
	Tag() uint8

	encode(e *encoder)
}

type decodeFunc func(r *bitbuf.Reader) Descriptor

type entry struct {
	name   string
	decode decodeFunc
}

// known maps tags to body decoders. It is consulted before the Unknown
// fallback.
var known = map[uint8]entry{
	TagVideoStream:                {"video_stream", decodeVideoStream},
	TagAudioStream:                {"audio_stream", decodeAudioStream},
	TagHierarchy:                  {"hierarchy", decodeHierarchy},
	TagRegistration:               {"registration", decodeRegistration},
	TagDataStreamAlignment:        {"data_stream_alignment", decodeDataStreamAlignment},
	TagTargetBackgroundGrid:       {"target_background_grid", decodeTargetBackgroundGrid},
	TagVideoWindow:                {"video_window", decodeVideoWindow},
	TagCA:                         {"CA", decodeCA},
	TagISO639Language:             {"ISO_639_language", decodeISO639Language},
	TagSystemClock:                {"system_clock", decodeSystemClock},
	TagMultiplexBufferUtilization: {"multiplex_buffer_utilization", decodeMultiplexBufferUtilization},
	TagCopyright:                  {"copyright", decodeCopyright},
	TagMaximumBitrate:             {"maximum_bitrate", decodeMaximumBitrate},
	TagPrivateDataIndicator:       {"private_data_indicator", decodePrivateDataIndicator},
	TagSmoothingBuffer:            {"smoothing_buffer", decodeSmoothingBuffer},
	TagSTD:                        {"STD", decodeSTD},
	TagIBP:                        {"IBP", decodeIBP},
	TagMPEG4Video:                 {"MPEG-4_video", decodeMPEG4Video},
	TagMPEG4Audio:                 {"MPEG-4_audio", decodeMPEG4Audio},
	TagIOD:                        {"IOD", decodeIOD},
	TagSL:                         {"SL", decodeSL},
	TagFMC:                        {"FMC", decodeFMC},
	TagExternalESID:               {"External_ES_ID", decodeExternalESID},
	TagMuxCode:                    {"MuxCode", decodeMuxCode},
	TagFmxBufferSize:              {"FmxBufferSize", decodeFmxBufferSize},
	TagMultiplexBuffer:            {"MultiplexBuffer", decodeMultiplexBuffer},
}

// Known reports whether tag has a structured decoder.
func Known(tag uint8) bool {
	_, ok := known[tag]
	return ok
}

// Name returns the standard name of a known tag, or "unknown".
func Name(tag uint8) string {
	if e, ok := known[tag]; ok {
		return e.name
	}
	return "unknown"
}

// Unknown is a descriptor whose tag has no structured decoder. Data holds the
// body verbatim and is nil when the body is empty.
type Unknown struct {
	ID   uint8
	Data []byte
}

// Tag implements Descriptor.
func (d Unknown) Tag() uint8 { return d.ID }

// Length returns the body length.
func (d Unknown) Length() int { return len(d.Data) }

func (d Unknown) encode(e *encoder) { e.bytes(d.Data) }

// Decode decodes the descriptor at the start of b and returns it with the
// number of bytes consumed.
func Decode(b []byte) (Descriptor, int, error) {
	if len(b) < 2 {
		return nil, 0, fmt.Errorf("%w: %d bytes, need tag and length", ErrFraming, len(b))
	}
	tag, length := b[0], int(b[1])
	if len(b) < 2+length {
		return nil, 0, fmt.Errorf("%w: tag %d declares %d bytes, %d available", ErrFraming, tag, length, len(b)-2)
	}
	body := b[2 : 2+length]

	e, ok := known[tag]
	if !ok {
		d := Unknown{ID: tag}
		if length > 0 {
			d.Data = append([]byte(nil), body...)
		}
		return d, 2 + length, nil
	}

	r := bitbuf.NewReader(body)
	d := e.decode(r)
	if err := r.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %s descriptor overruns its %d bytes: %v", ErrFraming, e.name, length, err)
	}
	if left := r.BitsLeft(); left != 0 {
		return nil, 0, fmt.Errorf("%w: %s descriptor leaves %d of %d bits unread", ErrFraming, e.name, left, length*8)
	}
	return d, 2 + length, nil
}

// DecodeAll decodes a descriptor loop that fills b exactly.
func DecodeAll(b []byte) ([]Descriptor, error) {
	var out []Descriptor
	for offset := 0; offset < len(b); {
		d, n, err := Decode(b[offset:])
		if err != nil {
			return nil, fmt.Errorf("descriptor at offset %d: %w", offset, err)
		}
		out = append(out, d)
		offset += n
	}
	return out, nil
}

// Encode encodes d with its tag and length. Reserved bits are written as
// zero.
func Encode(d Descriptor) ([]byte, error) {
	return appendDescriptor(nil, d)
}

// EncodeAll encodes ds back to back.
func EncodeAll(ds []Descriptor) ([]byte, error) {
	var out []byte
	for i, d := range ds {
		var err error
		if out, err = appendDescriptor(out, d); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
	}
	return out, nil
}

func appendDescriptor(dst []byte, d Descriptor) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrFieldRange)
	}
	e := encoder{w: bitbuf.NewWriter(16)}
	d.encode(&e)
	if e.err != nil {
		return nil, e.err
	}
	if e.w.Len()%8 != 0 {
		panic(fmt.Sprintf("descriptor: tag %d encoded %d bits", d.Tag(), e.w.Len()))
	}
	body := e.w.BytesOut()
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: tag %d body is %d bytes, limit %d", ErrFraming, d.Tag(), len(body), MaxBodySize)
	}
	dst = append(dst, d.Tag(), byte(len(body)))
	return append(dst, body...), nil
}

// encoder writes descriptor fields, checking that each value fits its
// width. The first failure is kept and later writes are ignored.
type encoder struct {
	w   *bitbuf.Writer
	err error
}

func (e *encoder) uint(n int, v uint64, field string) {
	if e.err != nil {
		return
	}
	if n < 64 && v>>n != 0 {
		e.err = fmt.Errorf("%w: %s = %d does not fit in %d bits", ErrFieldRange, field, v, n)
		return
	}
	e.w.Uint(n, v)
}

func (e *encoder) bool(v bool) {
	if e.err == nil {
		e.w.Bool(v)
	}
}

func (e *encoder) reserved(n int) {
	if e.err == nil {
		e.w.Zero(n)
	}
}

func (e *encoder) bytes(b []byte) {
	if e.err == nil {
		e.w.Bytes(b)
	}
}
