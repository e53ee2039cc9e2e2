package pipeline

import (
	"fmt"

	"github.com/zsiec/tsproto/mpegts"
	"github.com/zsiec/tsproto/psi"
)

// EventKind classifies an Event.
type EventKind int

const (
	// EventDiscontinuity reports a continuity counter gap on a PID.
	EventDiscontinuity EventKind = iota + 1
	// EventPAT reports a new version of the program association table.
	EventPAT
	// EventPMT reports a new version of a program map table.
	EventPMT
	// EventTable reports any other complete table found on a PSI PID.
	EventTable
	// EventError reports a packet, section or table that could not be
	// decoded, or a section the grouper rejected.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventDiscontinuity:
		return "discontinuity"
	case EventPAT:
		return "pat"
	case EventPMT:
		return "pmt"
	case EventTable:
		return "table"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one finding of an Inspector. Packet is the zero-based index of
// the packet that produced it. Exactly one of the payload fields is set,
// according to Kind.
type Event struct {
	Kind   EventKind
	PID    mpegts.PID
	Packet int64

	Discontinuity *mpegts.DiscontinuityError
	PAT           *psi.PAT
	PMT           *psi.PMT
	Table         []psi.ExtendedSection
	Err           error
}

func (e Event) String() string {
	prefix := fmt.Sprintf("#%d pid %s %s", e.Packet, e.PID, e.Kind)
	switch e.Kind {
	case EventDiscontinuity:
		return fmt.Sprintf("%s: last %d, got %d", prefix, e.Discontinuity.Last, e.Discontinuity.Current)
	case EventPAT:
		return fmt.Sprintf("%s: ts id %d v%d, %d programs", prefix, e.PAT.TransportStreamID, e.PAT.Version, len(e.PAT.Programs))
	case EventPMT:
		return fmt.Sprintf("%s: program %d v%d, %d streams", prefix, e.PMT.ProgramNumber, e.PMT.Version, len(e.PMT.Streams))
	case EventTable:
		return fmt.Sprintf("%s: %s", prefix, e.Table[0].Identity())
	case EventError:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}
