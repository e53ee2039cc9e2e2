// Package mpegts implements the MPEG-2 transport stream packet layer: the
// 188-byte packet codec, a packetizer that spreads PSI/SI sections over
// packets of a single PID, and a continuity counter validator.
//
// Packets are plain values. The stateful parts (continuity tracking) are
// expressed as folds over an explicit state value, so callers choose how to
// thread and shard that state.
package mpegts

import (
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
)

// PID identifies a substream within a transport stream. Valid values are
// 0 through MaxPID.
type PID uint16

// Well-known PIDs.
const (
	PIDPAT  PID = 0x0000
	PIDCAT  PID = 0x0001
	PIDTSDT PID = 0x0002
	PIDNull PID = 0x1FFF

	MaxPID PID = 0x1FFF
)

// Valid reports whether p fits in 13 bits.
func (p PID) Valid() bool { return p <= MaxPID }

func (p PID) String() string { return fmt.Sprintf("0x%04X", uint16(p)) }

// ContinuityCounter is the 4-bit per-PID packet sequence number.
type ContinuityCounter uint8

// Next returns the counter that should follow c, wrapping after 15.
func (c ContinuityCounter) Next() ContinuityCounter { return (c + 1) & 0x0F }

// Valid reports whether c fits in 4 bits.
func (c ContinuityCounter) Valid() bool { return c <= 0x0F }

// AdaptationFieldControl is the 2-bit header field that says which of the
// adaptation field and payload follow the header.
type AdaptationFieldControl uint8

// Adaptation field control values.
const (
	AdaptationFieldControlReserved             AdaptationFieldControl = 0
	AdaptationFieldControlPayloadOnly          AdaptationFieldControl = 1
	AdaptationFieldControlAdaptationOnly       AdaptationFieldControl = 2
	AdaptationFieldControlAdaptationAndPayload AdaptationFieldControl = 3
)

// Packet is a transport stream packet. AdaptationField is set iff
// Header.AdaptationFieldIncluded, PointerField is meaningful iff
// Header.PayloadUnitStartIndicator, and Payload is non-empty only if
// Header.PayloadIncluded. Encoded, a packet is always PacketSize bytes.
type Packet struct {
	Header          Header
	AdaptationField AdaptationField
	PointerField    uint8
	Payload         bitbuf.Vector
}
