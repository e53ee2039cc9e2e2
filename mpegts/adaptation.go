package mpegts

import (
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
)

// maxAdaptationFieldLength is the largest adaptation_field_length that fits
// after the header.
const maxAdaptationFieldLength = PacketSize - headerSize - 1

// AdaptationField is the decoded form of a packet's adaptation field. Its
// layout belongs to the AdaptationFieldCodec that produced it; the packet
// layer only needs the discontinuity flag.
type AdaptationField interface {
	Discontinuity() bool
}

// AdaptationFieldCodec decodes and encodes the adaptation field, including
// its leading length byte. Implementations must consume and produce exactly
// the bytes of the field.
type AdaptationFieldCodec interface {
	DecodeAdaptationField(r *bitbuf.Reader) (AdaptationField, error)
	EncodeAdaptationField(w *bitbuf.Writer, af AdaptationField) error
}

// RawAdaptationField is an adaptation field body kept as opaque bytes. A
// zero-length field, as used for single-byte stuffing, is nil.
type RawAdaptationField []byte

// Discontinuity reports the discontinuity_indicator, the first flag bit of
// the body.
func (f RawAdaptationField) Discontinuity() bool {
	return len(f) > 0 && f[0]&0x80 != 0
}

// RandomAccess reports the random_access_indicator.
func (f RawAdaptationField) RandomAccess() bool {
	return len(f) > 0 && f[0]&0x40 != 0
}

// RawAdaptationFieldCodec reads the length byte and keeps the body verbatim.
type RawAdaptationFieldCodec struct{}

// DecodeAdaptationField implements AdaptationFieldCodec.
func (RawAdaptationFieldCodec) DecodeAdaptationField(r *bitbuf.Reader) (AdaptationField, error) {
	n := int(r.Uint8(8))
	if n > maxAdaptationFieldLength {
		return nil, fmt.Errorf("%w: adaptation field length %d exceeds %d", ErrFraming, n, maxAdaptationFieldLength)
	}
	body := r.Bytes(n)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: adaptation field: %v", ErrFraming, err)
	}
	return RawAdaptationField(body), nil
}

// EncodeAdaptationField implements AdaptationFieldCodec.
func (RawAdaptationFieldCodec) EncodeAdaptationField(w *bitbuf.Writer, af AdaptationField) error {
	raw, ok := af.(RawAdaptationField)
	if !ok {
		return fmt.Errorf("%w: raw codec cannot encode adaptation field of type %T", ErrInconsistentPacket, af)
	}
	if len(raw) > maxAdaptationFieldLength {
		return fmt.Errorf("%w: adaptation field length %d exceeds %d", ErrFraming, len(raw), maxAdaptationFieldLength)
	}
	w.Uint(8, uint64(len(raw)))
	w.Bytes(raw)
	return nil
}
