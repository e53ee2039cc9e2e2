package psi

import (
	"encoding/binary"
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
	"github.com/zsiec/tsproto/descriptor"
	"github.com/zsiec/tsproto/mpegts"
)

const (
	TableIDPAT = 0x00
	TableIDCAT = 0x01
	TableIDPMT = 0x02

	patEntrySize = 4
	// Program entries per PAT section: section_length minus the extension
	// block and CRC, in four-byte entries.
	patEntriesPerSection = (MaxPSISectionLength - extensionHeaderSize - crcSize) / patEntrySize
)

// Program maps a program number to the PID of its PMT.
type Program struct {
	Number uint16
	PMTPID mpegts.PID
}

// PAT is a program association table. Program number zero, which names the
// network PID, is kept in NetworkPID rather than Programs; NetworkPID is
// zero when the table has no such entry.
type PAT struct {
	TransportStreamID uint16
	Version           uint8
	NetworkPID        mpegts.PID
	Programs          []Program
}

// PMTPID returns the PMT PID of program number, if the table lists it.
func (t PAT) PMTPID(number uint16) (mpegts.PID, bool) {
	for _, p := range t.Programs {
		if p.Number == number {
			return p.PMTPID, true
		}
	}
	return 0, false
}

// DecodePAT decodes a complete table, as yielded by a Grouper.
func DecodePAT(sections []ExtendedSection) (PAT, error) {
	if len(sections) == 0 {
		return PAT{}, fmt.Errorf("%w: PAT without sections", ErrFraming)
	}
	first := sections[0]
	t := PAT{
		TransportStreamID: first.Extension.TableIDExtension,
		Version:           first.Extension.Version,
	}
	for _, s := range sections {
		if s.TableID != TableIDPAT {
			return PAT{}, fmt.Errorf("%w: PAT section with table id 0x%02X", ErrFraming, s.TableID)
		}
		if len(s.Payload)%patEntrySize != 0 {
			return PAT{}, fmt.Errorf("%w: PAT section %d body of %d bytes", ErrFraming, s.Extension.SectionNumber, len(s.Payload))
		}
		for i := 0; i < len(s.Payload); i += patEntrySize {
			number := binary.BigEndian.Uint16(s.Payload[i:])
			pid := mpegts.PID(binary.BigEndian.Uint16(s.Payload[i+2:]) & 0x1FFF)
			if number == 0 {
				t.NetworkPID = pid
				continue
			}
			t.Programs = append(t.Programs, Program{Number: number, PMTPID: pid})
		}
	}
	return t, nil
}

// EncodePAT encodes t into as many sections as its entries need.
func EncodePAT(t PAT) ([]ExtendedSection, error) {
	if t.Version > 0x1F {
		return nil, fmt.Errorf("%w: PAT version %d", ErrFieldRange, t.Version)
	}
	var entries [][patEntrySize]byte
	addEntry := func(number uint16, pid mpegts.PID) error {
		if !pid.Valid() {
			return fmt.Errorf("%w: program %d PID %d", ErrFieldRange, number, pid)
		}
		var e [patEntrySize]byte
		binary.BigEndian.PutUint16(e[0:], number)
		binary.BigEndian.PutUint16(e[2:], 0xE000|uint16(pid))
		entries = append(entries, e)
		return nil
	}
	if t.NetworkPID != 0 {
		if err := addEntry(0, t.NetworkPID); err != nil {
			return nil, err
		}
	}
	for _, p := range t.Programs {
		if p.Number == 0 {
			return nil, fmt.Errorf("%w: program number 0 belongs in NetworkPID", ErrFieldRange)
		}
		if err := addEntry(p.Number, p.PMTPID); err != nil {
			return nil, err
		}
	}

	count := (len(entries) + patEntriesPerSection - 1) / patEntriesPerSection
	if count == 0 {
		count = 1
	}
	if count > 256 {
		return nil, fmt.Errorf("%w: %d PAT entries need %d sections", ErrFieldRange, len(entries), count)
	}
	sections := make([]ExtendedSection, count)
	for i := range sections {
		lo := i * patEntriesPerSection
		hi := min(lo+patEntriesPerSection, len(entries))
		var payload []byte
		for _, e := range entries[lo:hi] {
			payload = append(payload, e[:]...)
		}
		sections[i] = ExtendedSection{
			TableID: TableIDPAT,
			Extension: Extension{
				TableIDExtension:     t.TransportStreamID,
				Version:              t.Version,
				CurrentNextIndicator: true,
				SectionNumber:        uint8(i),
				LastSectionNumber:    uint8(count - 1),
			},
			Payload: payload,
		}
	}
	return sections, nil
}

// ElementaryStream is one stream entry of a PMT.
type ElementaryStream struct {
	StreamType  StreamType
	PID         mpegts.PID
	Descriptors []descriptor.Descriptor
}

// PMT is a program map table.
type PMT struct {
	ProgramNumber uint16
	Version       uint8
	PCRPID        mpegts.PID
	ProgramInfo   []descriptor.Descriptor
	Streams       []ElementaryStream
}

// DecodePMT decodes a PMT. A PMT is always a single section.
func DecodePMT(s ExtendedSection) (PMT, error) {
	if s.TableID != TableIDPMT {
		return PMT{}, fmt.Errorf("%w: PMT section with table id 0x%02X", ErrFraming, s.TableID)
	}
	t := PMT{
		ProgramNumber: s.Extension.TableIDExtension,
		Version:       s.Extension.Version,
	}

	r := bitbuf.NewReader(s.Payload)
	r.Skip(3)
	t.PCRPID = mpegts.PID(r.Uint16(13))
	r.Skip(4)
	info, err := decodeDescriptorLoop(r, "program_info")
	if err != nil {
		return PMT{}, err
	}
	t.ProgramInfo = info

	for r.BitsLeft() > 0 && r.Err() == nil {
		var es ElementaryStream
		es.StreamType = StreamType(r.Uint8(8))
		r.Skip(3)
		es.PID = mpegts.PID(r.Uint16(13))
		r.Skip(4)
		if es.Descriptors, err = decodeDescriptorLoop(r, "ES_info"); err != nil {
			return PMT{}, fmt.Errorf("stream pid %s: %w", es.PID, err)
		}
		t.Streams = append(t.Streams, es)
	}
	if err := r.Err(); err != nil {
		return PMT{}, fmt.Errorf("%w: PMT program %d: %v", ErrFraming, t.ProgramNumber, err)
	}
	return t, nil
}

func decodeDescriptorLoop(r *bitbuf.Reader, name string) ([]descriptor.Descriptor, error) {
	n := int(r.Uint16(12))
	loop := r.Bytes(n)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s_length %d: %v", ErrFraming, name, n, err)
	}
	ds, err := descriptor.DecodeAll(loop)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFraming, name, err)
	}
	return ds, nil
}

// EncodePMT encodes t into its single section.
func EncodePMT(t PMT) (ExtendedSection, error) {
	if t.Version > 0x1F {
		return ExtendedSection{}, fmt.Errorf("%w: PMT version %d", ErrFieldRange, t.Version)
	}
	if !t.PCRPID.Valid() {
		return ExtendedSection{}, fmt.Errorf("%w: PCR PID %d", ErrFieldRange, t.PCRPID)
	}
	w := bitbuf.NewWriter(64)
	w.Uint(3, 0x7)
	w.Uint(13, uint64(t.PCRPID))
	if err := encodeDescriptorLoop(w, t.ProgramInfo); err != nil {
		return ExtendedSection{}, fmt.Errorf("program_info: %w", err)
	}
	for _, es := range t.Streams {
		if !es.PID.Valid() {
			return ExtendedSection{}, fmt.Errorf("%w: elementary PID %d", ErrFieldRange, es.PID)
		}
		w.Uint(8, uint64(es.StreamType))
		w.Uint(3, 0x7)
		w.Uint(13, uint64(es.PID))
		if err := encodeDescriptorLoop(w, es.Descriptors); err != nil {
			return ExtendedSection{}, fmt.Errorf("stream pid %s: %w", es.PID, err)
		}
	}

	payload := w.BytesOut()
	if n := len(payload) + extensionHeaderSize + crcSize; n > MaxPSISectionLength {
		return ExtendedSection{}, fmt.Errorf("%w: PMT section_length %d exceeds %d", ErrFieldRange, n, MaxPSISectionLength)
	}
	return ExtendedSection{
		TableID: TableIDPMT,
		Extension: Extension{
			TableIDExtension:     t.ProgramNumber,
			Version:              t.Version,
			CurrentNextIndicator: true,
		},
		Payload: payload,
	}, nil
}

func encodeDescriptorLoop(w *bitbuf.Writer, ds []descriptor.Descriptor) error {
	loop, err := descriptor.EncodeAll(ds)
	if err != nil {
		return err
	}
	if len(loop) > 0x3FF {
		return fmt.Errorf("%w: descriptor loop of %d bytes", ErrFieldRange, len(loop))
	}
	w.Uint(4, 0xF)
	w.Uint(12, uint64(len(loop)))
	w.Bytes(loop)
	return nil
}
