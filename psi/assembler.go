package psi

import (
	"fmt"

	"github.com/zsiec/tsproto/mpegts"
)

const stuffingByte = 0xFF

// Assembler turns the packets of one PID into whole section byte strings,
// following pointer fields across packet boundaries. Bytes before the first
// payload unit start are skipped, a 0xFF table id ends the sections of a
// packet, and a discontinuity or transport error drops any partial section.
//
// An Assembler is a value; Push leaves the receiver unchanged.
type Assembler struct {
	buf     []byte
	started bool
}

// Push feeds one packet and returns the sections it completed, each exactly
// as long as its section_length declares.
func (a Assembler) Push(cp mpegts.CheckedPacket) (Assembler, [][]byte, error) {
	p := cp.Packet
	if p.Header.TransportErrorIndicator || cp.Discontinuity != nil {
		a = Assembler{}
	}
	if p.Header.TransportErrorIndicator || !p.Header.PayloadIncluded() {
		return a, nil, nil
	}
	payload := p.Payload.Bytes()

	var (
		out [][]byte
		buf []byte
	)
	if p.Header.PayloadUnitStartIndicator {
		pointer := int(p.PointerField)
		if pointer > len(payload) {
			return Assembler{}, nil, fmt.Errorf("%w: pid %s pointer field %d beyond %d payload bytes",
				ErrFraming, p.Header.PID, pointer, len(payload))
		}
		if a.started {
			// The bytes ahead of the pointer finish the pending section. A
			// section still incomplete at this point is lost.
			tail := append(a.buf[:len(a.buf):len(a.buf)], payload[:pointer]...)
			out, _, _ = splitSections(tail)
		}
		buf = payload[pointer:]
	} else {
		if !a.started {
			return a, nil, nil
		}
		buf = append(a.buf[:len(a.buf):len(a.buf)], payload...)
	}

	sections, rest, more := splitSections(buf)
	out = append(out, sections...)
	next := Assembler{started: more}
	if more && len(rest) > 0 {
		next.buf = append([]byte(nil), rest...)
	}
	return next, out, nil
}

// splitSections cuts complete sections off the front of b. It returns the
// unconsumed bytes and whether more section data may follow; stuffing ends
// the run.
func splitSections(b []byte) (sections [][]byte, rest []byte, more bool) {
	for len(b) > 0 {
		if b[0] == stuffingByte {
			return sections, nil, false
		}
		n, ok := SectionLength(b)
		if !ok || n > len(b) {
			return sections, b, true
		}
		sections = append(sections, append([]byte(nil), b[:n]...))
		b = b[n:]
	}
	return sections, nil, true
}
