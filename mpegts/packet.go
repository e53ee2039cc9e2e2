package mpegts

import (
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
)

const (
	// PacketSize is the size in bytes of every transport stream packet.
	PacketSize = 188

	headerSize = 4

	// PayloadSize is the payload slot of a packet with no adaptation field
	// and no pointer field.
	PayloadSize = PacketSize - headerSize

	// SectionStartPayloadSize is the payload slot of a packet with no
	// adaptation field that carries a pointer field.
	SectionStartPayloadSize = PayloadSize - 1
)

// Codec decodes and encodes packets. The zero value uses
// RawAdaptationFieldCodec.
type Codec struct {
	AdaptationField AdaptationFieldCodec
}

var defaultCodec Codec

// Decode decodes the first PacketSize bytes of buf with the default codec.
func Decode(buf []byte) (Packet, error) { return defaultCodec.Decode(buf) }

// Encode encodes p with the default codec.
func Encode(p Packet) ([]byte, error) { return defaultCodec.Encode(p) }

func (c Codec) adaptationField() AdaptationFieldCodec {
	if c.AdaptationField == nil {
		return RawAdaptationFieldCodec{}
	}
	return c.AdaptationField
}

// Decode decodes the first PacketSize bytes of buf. The header is read
// first; its flags then decide whether an adaptation field, a pointer field
// and payload follow. Payload is everything left in the frame, stuffing
// included.
func (c Codec) Decode(buf []byte) (Packet, error) {
	if len(buf) < PacketSize {
		return Packet{}, fmt.Errorf("%w: packet size %d, expected %d", ErrFraming, len(buf), PacketSize)
	}
	r := bitbuf.NewReader(buf[:PacketSize])

	h, err := decodeHeader(r)
	if err != nil {
		return Packet{}, err
	}
	p := Packet{Header: h}

	if h.AdaptationFieldIncluded() {
		af, err := c.adaptationField().DecodeAdaptationField(r)
		if err != nil {
			return Packet{}, err
		}
		p.AdaptationField = af
	}
	if h.PayloadUnitStartIndicator {
		p.PointerField = r.Uint8(8)
	}
	if h.PayloadIncluded() {
		p.Payload = r.Rest()
	}
	if err := r.Err(); err != nil {
		return Packet{}, fmt.Errorf("%w: %v", ErrFraming, err)
	}
	return p, nil
}

// Encode encodes p into exactly PacketSize bytes. The packet must be
// consistent with its header flags and its fields must fill the frame;
// payloads are not padded here (see NewPayloadPacket).
func (c Codec) Encode(p Packet) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	w := bitbuf.NewWriter(PacketSize)
	encodeHeader(w, p.Header)
	if p.Header.AdaptationFieldIncluded() {
		if err := c.adaptationField().EncodeAdaptationField(w, p.AdaptationField); err != nil {
			return nil, err
		}
	}
	if p.Header.PayloadUnitStartIndicator {
		w.Uint(8, uint64(p.PointerField))
	}
	if p.Header.PayloadIncluded() {
		w.Bits(p.Payload)
	}

	if w.Len() != PacketSize*8 {
		return nil, fmt.Errorf("%w: encoded %d bits, expected %d", ErrFraming, w.Len(), PacketSize*8)
	}
	return w.BytesOut(), nil
}

func (p Packet) validate() error {
	if err := p.Header.validate(); err != nil {
		return err
	}
	if p.Header.AdaptationFieldIncluded() != (p.AdaptationField != nil) {
		return fmt.Errorf("%w: adaptation field control %d with adaptation field present=%t",
			ErrInconsistentPacket, p.Header.AdaptationFieldControl, p.AdaptationField != nil)
	}
	if !p.Header.PayloadIncluded() && !p.Payload.IsEmpty() {
		return fmt.Errorf("%w: adaptation field control %d with %d payload bits",
			ErrInconsistentPacket, p.Header.AdaptationFieldControl, p.Payload.Len())
	}
	if !p.Header.PayloadUnitStartIndicator && p.PointerField != 0 {
		return fmt.Errorf("%w: pointer field %d without payload unit start", ErrInconsistentPacket, p.PointerField)
	}
	return nil
}

// NewPayloadPacket returns a payload-only packet that continues a payload
// unit. Payload shorter than PayloadSize bytes is padded with stuffing (one
// bits).
func NewPayloadPacket(pid PID, cc ContinuityCounter, payload bitbuf.Vector) (Packet, error) {
	if payload.Len() > PayloadSize*8 {
		return Packet{}, fmt.Errorf("%w: payload of %d bits exceeds %d", ErrInconsistentPacket, payload.Len(), PayloadSize*8)
	}
	return payloadPacket(pid, cc, false, 0, payload), nil
}

// NewSectionStartPacket returns a payload-only packet with the payload unit
// start indicator set and the given pointer field. Payload shorter than
// SectionStartPayloadSize bytes is padded with stuffing.
func NewSectionStartPacket(pid PID, cc ContinuityCounter, pointer uint8, payload bitbuf.Vector) (Packet, error) {
	if payload.Len() > SectionStartPayloadSize*8 {
		return Packet{}, fmt.Errorf("%w: payload of %d bits exceeds %d", ErrInconsistentPacket, payload.Len(), SectionStartPayloadSize*8)
	}
	return payloadPacket(pid, cc, true, pointer, payload), nil
}

func payloadPacket(pid PID, cc ContinuityCounter, start bool, pointer uint8, payload bitbuf.Vector) Packet {
	slot := PayloadSize * 8
	if start {
		slot = SectionStartPayloadSize * 8
	}
	return Packet{
		Header: Header{
			PayloadUnitStartIndicator: start,
			PID:                       pid,
			AdaptationFieldControl:    AdaptationFieldControlPayloadOnly,
			ContinuityCounter:         cc,
		},
		PointerField: pointer,
		Payload:      payload.Concat(bitbuf.High(slot - payload.Len())),
	}
}
