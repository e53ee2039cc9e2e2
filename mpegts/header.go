package mpegts

import (
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
)

const syncByte = 0x47

// Header is the fixed 4-byte transport stream packet header.
type Header struct {
	TransportErrorIndicator   bool
	PayloadUnitStartIndicator bool
	TransportPriority         bool
	PID                       PID
	ScramblingControl         uint8
	AdaptationFieldControl    AdaptationFieldControl
	ContinuityCounter         ContinuityCounter
}

// AdaptationFieldIncluded reports whether an adaptation field follows the header.
func (h Header) AdaptationFieldIncluded() bool {
	return h.AdaptationFieldControl&0x2 != 0
}

// PayloadIncluded reports whether the packet carries payload bytes.
func (h Header) PayloadIncluded() bool {
	return h.AdaptationFieldControl&0x1 != 0
}

func (h Header) validate() error {
	switch {
	case !h.PID.Valid():
		return fmt.Errorf("%w: pid %d exceeds 13 bits", ErrInconsistentPacket, h.PID)
	case h.ScramblingControl > 0x3:
		return fmt.Errorf("%w: scrambling control %d exceeds 2 bits", ErrInconsistentPacket, h.ScramblingControl)
	case h.AdaptationFieldControl > 0x3:
		return fmt.Errorf("%w: adaptation field control %d exceeds 2 bits", ErrInconsistentPacket, h.AdaptationFieldControl)
	case !h.ContinuityCounter.Valid():
		return fmt.Errorf("%w: continuity counter %d exceeds 4 bits", ErrInconsistentPacket, h.ContinuityCounter)
	}
	return nil
}

func decodeHeader(r *bitbuf.Reader) (Header, error) {
	if b := r.Uint8(8); b != syncByte {
		return Header{}, fmt.Errorf("%w: invalid sync byte 0x%02X", ErrFraming, b)
	}
	h := Header{
		TransportErrorIndicator:   r.Bool(),
		PayloadUnitStartIndicator: r.Bool(),
		TransportPriority:         r.Bool(),
		PID:                       PID(r.Uint16(13)),
		ScramblingControl:         r.Uint8(2),
		AdaptationFieldControl:    AdaptationFieldControl(r.Uint8(2)),
		ContinuityCounter:         ContinuityCounter(r.Uint8(4)),
	}
	if err := r.Err(); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", ErrFraming, err)
	}
	return h, nil
}

func encodeHeader(w *bitbuf.Writer, h Header) {
	w.Uint(8, syncByte)
	w.Bool(h.TransportErrorIndicator)
	w.Bool(h.PayloadUnitStartIndicator)
	w.Bool(h.TransportPriority)
	w.Uint(13, uint64(h.PID))
	w.Uint(2, uint64(h.ScramblingControl))
	w.Uint(2, uint64(h.AdaptationFieldControl))
	w.Uint(4, uint64(h.ContinuityCounter))
}
