// Package pipeline inspects a transport stream end to end: it validates
// continuity on every PID, reassembles and groups the PSI sections found on
// the PAT, CAT and PMT PIDs, and reports what it finds as Events.
package pipeline

import (
	"fmt"

	"github.com/zsiec/tsproto/mpegts"
	"github.com/zsiec/tsproto/psi"
)

// Inspector is a single-goroutine fold over the packets of one transport
// stream. PMT PIDs are learned from the PAT, so packets must be fed in
// stream order. Null packets are counted but not checked: their continuity
// counter carries no meaning.
//
// An Inspector is not safe for concurrent use; Run shards a stream over
// several of them.
type Inspector struct {
	continuity mpegts.ContinuityState
	assemblers map[mpegts.PID]psi.Assembler
	grouper    psi.Grouper
	pat        *psi.PAT
	pmtPIDs    map[mpegts.PID]uint16
	pmts       map[uint16]psi.PMT
	packets    int64
}

// NewInspector returns an Inspector with no stream state.
func NewInspector() *Inspector {
	return &Inspector{
		assemblers: make(map[mpegts.PID]psi.Assembler),
		pmtPIDs:    make(map[mpegts.PID]uint16),
		pmts:       make(map[uint16]psi.PMT),
	}
}

// Packets returns the number of packets fed so far.
func (in *Inspector) Packets() int64 { return in.packets }

// PAT returns the current program association table, if one was seen.
func (in *Inspector) PAT() (psi.PAT, bool) {
	if in.pat == nil {
		return psi.PAT{}, false
	}
	return *in.pat, true
}

// PMT returns the current program map table of a program.
func (in *Inspector) PMT(program uint16) (psi.PMT, bool) {
	t, ok := in.pmts[program]
	return t, ok
}

// IsPSI reports whether pid carries tables the Inspector decodes: the PAT
// and CAT PIDs, and every PMT PID of the current PAT.
func (in *Inspector) IsPSI(pid mpegts.PID) bool {
	if pid == mpegts.PIDPAT || pid == mpegts.PIDCAT {
		return true
	}
	_, ok := in.pmtPIDs[pid]
	return ok
}

// Feed folds one packet into the Inspector and returns the events it
// produced, in the order they occurred.
func (in *Inspector) Feed(p mpegts.Packet) []Event {
	return in.feed(in.packets, p)
}

func (in *Inspector) feed(index int64, p mpegts.Packet) []Event {
	if p.Header.PID == mpegts.PIDNull {
		in.packets++
		return nil
	}
	return in.feedChecked(index, in.continuity.Step(p))
}

// feedChecked is feed for a packet whose continuity another state already
// checked. The Inspector's own continuity state is left untouched.
func (in *Inspector) feedChecked(index int64, cp mpegts.CheckedPacket) []Event {
	in.packets++
	pid := cp.Packet.Header.PID

	var events []Event
	if cp.Discontinuity != nil {
		events = append(events, Event{Kind: EventDiscontinuity, PID: pid, Packet: index, Discontinuity: cp.Discontinuity})
	}
	if !in.IsPSI(pid) {
		return events
	}

	asm, raw, err := in.assemblers[pid].Push(cp)
	in.assemblers[pid] = asm
	if err != nil {
		events = append(events, Event{Kind: EventError, PID: pid, Packet: index, Err: err})
	}
	for _, b := range raw {
		events = in.section(events, index, pid, b)
	}
	return events
}

func (in *Inspector) section(events []Event, index int64, pid mpegts.PID, b []byte) []Event {
	fail := func(err error) []Event {
		return append(events, Event{Kind: EventError, PID: pid, Packet: index, Err: err})
	}

	s, err := psi.DecodeSection(b)
	if err != nil {
		return fail(err)
	}
	es, ok := s.Extended()
	if !ok || !es.Extension.CurrentNextIndicator {
		return events
	}
	g, table, err := in.grouper.Add(es)
	if err != nil {
		return fail(err)
	}
	in.grouper = g
	if table == nil {
		return events
	}

	switch {
	case pid == mpegts.PIDPAT && es.TableID == psi.TableIDPAT:
		pat, err := psi.DecodePAT(table)
		if err != nil {
			return fail(err)
		}
		if in.pat != nil && in.pat.Version == pat.Version {
			return events
		}
		in.setPAT(pat)
		return append(events, Event{Kind: EventPAT, PID: pid, Packet: index, PAT: &pat})

	case es.TableID == psi.TableIDPMT && pid != mpegts.PIDPAT && pid != mpegts.PIDCAT:
		pmt, err := psi.DecodePMT(table[0])
		if err != nil {
			return fail(err)
		}
		if want, ok := in.pmtPIDs[pid]; ok && want != pmt.ProgramNumber {
			return fail(fmt.Errorf("pipeline: PMT for program %d on pid %s, which the PAT assigns to program %d",
				pmt.ProgramNumber, pid, want))
		}
		if prev, ok := in.pmts[pmt.ProgramNumber]; ok && prev.Version == pmt.Version {
			return events
		}
		in.pmts[pmt.ProgramNumber] = pmt
		return append(events, Event{Kind: EventPMT, PID: pid, Packet: index, PMT: &pmt})
	}
	return append(events, Event{Kind: EventTable, PID: pid, Packet: index, Table: table})
}

// setPAT installs a new PAT, forgetting the PMT PIDs and programs it no
// longer lists.
func (in *Inspector) setPAT(pat psi.PAT) {
	in.pat = &pat
	pids := make(map[mpegts.PID]uint16, len(pat.Programs))
	programs := make(map[uint16]bool, len(pat.Programs))
	for _, p := range pat.Programs {
		pids[p.PMTPID] = p.Number
		programs[p.Number] = true
	}
	for pid := range in.pmtPIDs {
		if _, ok := pids[pid]; !ok {
			delete(in.assemblers, pid)
		}
	}
	for number := range in.pmts {
		if !programs[number] {
			delete(in.pmts, number)
		}
	}
	in.pmtPIDs = pids
}
