package mpegts

import "github.com/zsiec/tsproto/bitbuf"

// Packetize spreads a single section over payload-only packets on pid. The
// first packet starts the payload unit with a pointer field of zero and
// holds SectionStartPayloadSize bytes; the following packets hold
// PayloadSize bytes each. Counters start at cc and advance by one per
// packet. The last packet is padded with stuffing. An empty section yields
// no packets.
func Packetize(pid PID, cc ContinuityCounter, section bitbuf.Vector) []Packet {
	var packets []Packet
	remaining := section
	for start := true; !remaining.IsEmpty(); start = false {
		slot := PayloadSize * 8
		if start {
			slot = SectionStartPayloadSize * 8
		}
		var chunk bitbuf.Vector
		chunk, remaining = remaining.SplitAt(slot)
		packets = append(packets, payloadPacket(pid, cc, start, 0, chunk))
		cc = cc.Next()
	}
	return packets
}

// PacketizeMany emits sections back to back on pid as one continuous
// payload stream, the way a multiplexer carries a run of PSI/SI sections.
//
// Each packet is built from one PayloadSize slot of the stream. When a new
// section begins inside that slot, the packet starts a payload unit: its
// pointer field is the byte offset of the new section within the slot, only
// the first SectionStartPayloadSize bytes are kept and the last byte is
// carried into the next packet. The tail of one section and the head of the
// next may therefore share a packet, and a section may span several packets.
// Counters start at cc and advance by one per packet.
func PacketizeMany(pid PID, cc ContinuityCounter, sections []bitbuf.Vector) []Packet {
	var (
		packets   []Packet
		remaining bitbuf.Vector
		pending   = sections
	)
	for !remaining.IsEmpty() || len(pending) > 0 {
		chunk, overflow, touched := fillSlot(PayloadSize*8, remaining, pending)
		if touched > 0 {
			pointer := uint8(remaining.Len() / 8)
			payload, carry := chunk.SplitAt(SectionStartPayloadSize * 8)
			packets = append(packets, payloadPacket(pid, cc, true, pointer, payload))
			remaining = carry.Concat(overflow)
		} else {
			packets = append(packets, payloadPacket(pid, cc, false, 0, chunk))
			remaining = overflow
		}
		pending = pending[touched:]
		cc = cc.Next()
	}
	return packets
}

// fillSlot takes up to n bits from head and then from sections. It returns
// the bits taken, the untaken tail of the last input it read from, and how
// many of sections it read from.
func fillSlot(n int, head bitbuf.Vector, sections []bitbuf.Vector) (bitbuf.Vector, bitbuf.Vector, int) {
	var w bitbuf.Writer
	taken, rest := head.SplitAt(n)
	w.Bits(taken)
	if w.Len() == n {
		return w.Vector(), rest, 0
	}
	for i, s := range sections {
		taken, rest := s.SplitAt(n - w.Len())
		w.Bits(taken)
		if w.Len() == n {
			return w.Vector(), rest, i + 1
		}
	}
	return w.Vector(), bitbuf.Vector{}, len(sections)
}
