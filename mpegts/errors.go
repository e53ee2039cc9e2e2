package mpegts

import (
	"errors"
	"fmt"
)

var (
	// ErrFraming reports a buffer that does not hold exactly one well-formed
	// packet: too few bytes, a bad sync byte, or fields that do not fill the
	// 188-byte frame.
	ErrFraming = errors.New("mpegts: framing error")

	// ErrInconsistentPacket reports a Packet whose header flags disagree with
	// the fields that are present, or whose header fields are out of range.
	ErrInconsistentPacket = errors.New("mpegts: inconsistent packet")
)

// DiscontinuityError reports a continuity counter that does not follow the
// previous counter seen on the same PID.
type DiscontinuityError struct {
	PID     PID
	Last    ContinuityCounter
	Current ContinuityCounter
}

func (e *DiscontinuityError) Error() string {
	return fmt.Sprintf("mpegts: pid %s discontinuity: last counter %d, got %d (expected %d)",
		e.PID, e.Last, e.Current, e.Last.Next())
}
