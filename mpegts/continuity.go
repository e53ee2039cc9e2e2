package mpegts

// ContinuityState is the last continuity counter observed per PID. The zero
// value is the empty state. Check never modifies its receiver and returns a
// new state, so a value it returned can be kept or shared freely. Step
// updates the state in place for a single owner.
type ContinuityState struct {
	last map[PID]ContinuityCounter
}

// Last returns the counter last observed on pid.
func (s ContinuityState) Last(pid PID) (ContinuityCounter, bool) {
	cc, ok := s.last[pid]
	return cc, ok
}

// Len returns the number of PIDs tracked.
func (s ContinuityState) Len() int { return len(s.last) }

// CheckedPacket is one output of the continuity validator: the input packet,
// always forwarded, and the discontinuity it revealed, if any.
type CheckedPacket struct {
	Packet        Packet
	Discontinuity *DiscontinuityError
}

// Check is one step of the continuity fold. The first packet on a PID is
// recorded without error. Later packets must carry the successor of the
// previous counter; otherwise a DiscontinuityError is reported next to the
// packet. The state records the packet's counter either way.
func (s ContinuityState) Check(p Packet) (ContinuityState, CheckedPacket) {
	next := ContinuityState{last: make(map[PID]ContinuityCounter, len(s.last)+1)}
	for pid, cc := range s.last {
		next.last[pid] = cc
	}
	return next, next.check(p)
}

// Step is Check without the copy: it records p in s itself and returns the
// same CheckedPacket Check would. Copies of s made before the call share the
// storage Step updates, so s must not be shared.
func (s *ContinuityState) Step(p Packet) CheckedPacket {
	if s.last == nil {
		s.last = make(map[PID]ContinuityCounter)
	}
	return s.check(p)
}

// CheckContinuity folds Check over packets, returning the final state and
// one CheckedPacket per input in input order. state is not modified.
func CheckContinuity(state ContinuityState, packets []Packet) (ContinuityState, []CheckedPacket) {
	if len(packets) == 0 {
		return state, nil
	}
	next, first := state.Check(packets[0])
	out := make([]CheckedPacket, 0, len(packets))
	out = append(out, first)
	for _, p := range packets[1:] {
		out = append(out, next.check(p))
	}
	return next, out
}

// check mutates s.last, which must be owned by the caller.
func (s ContinuityState) check(p Packet) CheckedPacket {
	pid := p.Header.PID
	cur := p.Header.ContinuityCounter
	out := CheckedPacket{Packet: p}
	if last, ok := s.last[pid]; ok && last.Next() != cur {
		out.Discontinuity = &DiscontinuityError{PID: pid, Last: last, Current: cur}
	}
	s.last[pid] = cur
	return out
}
