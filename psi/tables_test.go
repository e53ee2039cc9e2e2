package psi

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsproto/descriptor"
	"github.com/zsiec/tsproto/mpegts"
)

type patEntry struct{ num, pid uint16 }

// buildPAT constructs a PAT section with CRC32 byte by byte.
func buildPAT(tsID uint16, programs []patEntry) []byte {
	sectionLength := 5 + len(programs)*4 + 4 // extension + entries + CRC

	data := make([]byte, 3+sectionLength)
	data[0] = TableIDPAT
	data[1] = 0xB0 | byte(sectionLength>>8)&0x0F // section_syntax_indicator=1
	data[2] = byte(sectionLength)
	data[3] = byte(tsID >> 8)
	data[4] = byte(tsID)
	data[5] = 0xC1 // reserved(2) + version(0) + current_next(1)
	data[6] = 0x00 // section_number
	data[7] = 0x00 // last_section_number

	offset := 8
	for _, p := range programs {
		data[offset] = byte(p.num >> 8)
		data[offset+1] = byte(p.num)
		data[offset+2] = 0xE0 | byte(p.pid>>8)&0x1F // reserved(3) + PID
		data[offset+3] = byte(p.pid)
		offset += 4
	}

	binary.BigEndian.PutUint32(data[offset:], CRC32(data[:offset]))
	return data
}

type pmtEntry struct {
	streamType uint8
	pid        uint16
}

// buildPMT constructs a PMT section with CRC32 and no descriptors.
func buildPMT(programNum uint16, pcrPID uint16, streams []pmtEntry) []byte {
	sectionLength := 9 + len(streams)*5 + 4

	data := make([]byte, 3+sectionLength)
	data[0] = TableIDPMT
	data[1] = 0xB0 | byte(sectionLength>>8)&0x0F
	data[2] = byte(sectionLength)
	data[3] = byte(programNum >> 8)
	data[4] = byte(programNum)
	data[5] = 0xC1
	data[6] = 0x00
	data[7] = 0x00
	data[8] = 0xE0 | byte(pcrPID>>8)&0x1F
	data[9] = byte(pcrPID)
	data[10] = 0xF0 // reserved(4) + program_info_length(12) = 0
	data[11] = 0x00

	offset := 12
	for _, s := range streams {
		data[offset] = s.streamType
		data[offset+1] = 0xE0 | byte(s.pid>>8)&0x1F
		data[offset+2] = byte(s.pid)
		data[offset+3] = 0xF0 // reserved(4) + ES_info_length(12) = 0
		data[offset+4] = 0x00
		offset += 5
	}

	binary.BigEndian.PutUint32(data[offset:], CRC32(data[:offset]))
	return data
}

func decodePATBytes(t *testing.T, b []byte) PAT {
	t.Helper()
	s, err := DecodeExtendedSection(b)
	require.NoError(t, err)
	pat, err := DecodePAT([]ExtendedSection{s})
	require.NoError(t, err)
	return pat
}

func TestDecodePAT_OneProgram(t *testing.T) {
	t.Parallel()
	pat := decodePATBytes(t, buildPAT(1, []patEntry{{1, 0x1000}}))

	if len(pat.Programs) != 1 {
		t.Fatalf("expected 1 program, got %d", len(pat.Programs))
	}
	if pat.Programs[0].Number != 1 {
		t.Errorf("program number = %d, want 1", pat.Programs[0].Number)
	}
	if pat.Programs[0].PMTPID != 0x1000 {
		t.Errorf("PMT PID = %s, want 0x1000", pat.Programs[0].PMTPID)
	}
	if pat.TransportStreamID != 1 {
		t.Errorf("transport stream id = %d, want 1", pat.TransportStreamID)
	}
}

func TestDecodePAT_TwoPrograms(t *testing.T) {
	t.Parallel()
	pat := decodePATBytes(t, buildPAT(1, []patEntry{{1, 0x100}, {2, 0x200}}))
	if len(pat.Programs) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(pat.Programs))
	}
	pid, ok := pat.PMTPID(2)
	require.True(t, ok)
	require.Equal(t, mpegts.PID(0x200), pid)
	_, ok = pat.PMTPID(3)
	require.False(t, ok)
}

func TestDecodePAT_NetworkPID(t *testing.T) {
	t.Parallel()
	// program_number=0 names the network PID rather than a program.
	pat := decodePATBytes(t, buildPAT(1, []patEntry{{0, 0x10}, {1, 0x100}}))
	if len(pat.Programs) != 1 {
		t.Fatalf("expected 1 program (NIT separated), got %d", len(pat.Programs))
	}
	require.Equal(t, mpegts.PID(0x10), pat.NetworkPID)
}

func TestDecodePAT_BadCRC(t *testing.T) {
	t.Parallel()
	data := buildPAT(1, []patEntry{{1, 0x100}})
	data[len(data)-1] ^= 0xFF // corrupt CRC

	_, err := DecodeExtendedSection(data)
	require.ErrorIs(t, err, ErrCRC)
}

func TestDecodePMT_H264_AAC(t *testing.T) {
	t.Parallel()
	data := buildPMT(1, 481, []pmtEntry{
		{0x1B, 481}, // H.264
		{0x0F, 494}, // AAC
	})
	s, err := DecodeExtendedSection(data)
	require.NoError(t, err)
	pmt, err := DecodePMT(s)
	require.NoError(t, err)

	if len(pmt.Streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(pmt.Streams))
	}
	require.Equal(t, StreamTypeH264, pmt.Streams[0].StreamType)
	require.Equal(t, mpegts.PID(481), pmt.Streams[0].PID)
	require.Equal(t, StreamTypeAAC, pmt.Streams[1].StreamType)
	require.Equal(t, mpegts.PID(494), pmt.Streams[1].PID)
	require.Equal(t, mpegts.PID(481), pmt.PCRPID)
	require.Equal(t, uint16(1), pmt.ProgramNumber)
	require.Empty(t, pmt.ProgramInfo)
}

func TestDecodePMT_BadCRC(t *testing.T) {
	t.Parallel()
	data := buildPMT(1, 481, []pmtEntry{{0x1B, 481}})
	data[len(data)-1] ^= 0xFF

	_, err := DecodeExtendedSection(data)
	require.ErrorIs(t, err, ErrCRC)
}

func TestDecodePMT_TruncatedStream(t *testing.T) {
	t.Parallel()
	s := ExtendedSection{TableID: TableIDPMT, Payload: []byte{0xE1, 0x00, 0xF0, 0x00, 0x1B, 0xE1}}
	_, err := DecodePMT(s)
	require.ErrorIs(t, err, ErrFraming)
}

func TestDecodePMT_BadDescriptorLoop(t *testing.T) {
	t.Parallel()
	// program_info_length 3 holds a descriptor declaring 5 bytes.
	s := ExtendedSection{TableID: TableIDPMT, Payload: []byte{0xE1, 0x00, 0xF0, 0x03, 0x05, 0x05, 'C'}}
	_, err := DecodePMT(s)
	require.ErrorIs(t, err, ErrFraming)
	require.ErrorIs(t, err, descriptor.ErrFraming)
}

func TestPMT_RoundTrip(t *testing.T) {
	t.Parallel()
	pmt := PMT{
		ProgramNumber: 7,
		Version:       3,
		PCRPID:        0x100,
		ProgramInfo: []descriptor.Descriptor{
			descriptor.Registration{FormatIdentifier: 0x43554549},
			descriptor.MaximumBitrate{MaximumBitrate: 50000},
		},
		Streams: []ElementaryStream{
			{StreamType: StreamTypeH264, PID: 0x100, Descriptors: []descriptor.Descriptor{
				descriptor.VideoStream{FrameRateCode: 4, ProfileAndLevelIndication: 0x64},
			}},
			{StreamType: StreamTypeAAC, PID: 0x101, Descriptors: []descriptor.Descriptor{
				descriptor.ISO639Language{Languages: []descriptor.Language{{Code: "eng", AudioType: descriptor.AudioCleanEffects}}},
				descriptor.Unknown{ID: 0x52, Data: []byte{0x01}},
			}},
			{StreamType: StreamTypeSCTE35, PID: 0x1F0},
		},
	}
	s, err := EncodePMT(pmt)
	require.NoError(t, err)
	require.Equal(t, uint16(7), s.Extension.TableIDExtension)

	b, err := EncodeExtendedSection(s)
	require.NoError(t, err)
	decoded, err := DecodeExtendedSection(b)
	require.NoError(t, err)
	got, err := DecodePMT(decoded)
	require.NoError(t, err)
	require.Equal(t, pmt, got)
}

func TestEncodePMT_Range(t *testing.T) {
	t.Parallel()
	_, err := EncodePMT(PMT{Version: 32})
	require.ErrorIs(t, err, ErrFieldRange)
	_, err = EncodePMT(PMT{PCRPID: 0x2000})
	require.ErrorIs(t, err, ErrFieldRange)
	_, err = EncodePMT(PMT{Streams: []ElementaryStream{{PID: 0x2000}}})
	require.ErrorIs(t, err, ErrFieldRange)
	_, err = EncodePMT(PMT{ProgramInfo: []descriptor.Descriptor{descriptor.Hierarchy{Type: 16}}})
	require.ErrorIs(t, err, descriptor.ErrFieldRange)

	many := make([]ElementaryStream, 250)
	for i := range many {
		many[i] = ElementaryStream{StreamType: StreamTypeAAC, PID: mpegts.PID(0x100 + i)}
	}
	_, err = EncodePMT(PMT{Streams: many})
	require.ErrorIs(t, err, ErrFieldRange)
}

func TestPAT_RoundTrip(t *testing.T) {
	t.Parallel()
	pat := PAT{
		TransportStreamID: 0x1234,
		Version:           9,
		NetworkPID:        0x10,
		Programs:          []Program{{Number: 1, PMTPID: 0x1000}, {Number: 2, PMTPID: 0x1001}},
	}
	sections, err := EncodePAT(pat)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	got, err := DecodePAT(sections)
	require.NoError(t, err)
	require.Equal(t, pat, got)
}

func TestEncodePAT_MatchesHandBuilt(t *testing.T) {
	t.Parallel()
	sections, err := EncodePAT(PAT{TransportStreamID: 1, Programs: []Program{{Number: 1, PMTPID: 0x1000}}})
	require.NoError(t, err)
	b, err := EncodeExtendedSection(sections[0])
	require.NoError(t, err)
	require.Equal(t, buildPAT(1, []patEntry{{1, 0x1000}}), b)
}

func TestEncodePAT_MultipleSections(t *testing.T) {
	t.Parallel()
	pat := PAT{TransportStreamID: 3}
	for i := 1; i <= 600; i++ {
		pat.Programs = append(pat.Programs, Program{Number: uint16(i), PMTPID: mpegts.PID(0x20 + i)})
	}
	sections, err := EncodePAT(pat)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, s := range sections {
		require.Equal(t, uint8(i), s.Extension.SectionNumber)
		require.Equal(t, uint8(2), s.Extension.LastSectionNumber)
		b, err := EncodeExtendedSection(s)
		require.NoError(t, err)
		n, _ := SectionLength(b)
		require.LessOrEqual(t, n-3, MaxPSISectionLength)
	}

	got, err := DecodePAT(sections)
	require.NoError(t, err)
	require.Equal(t, pat, got)
}

func TestEncodePAT_Empty(t *testing.T) {
	t.Parallel()
	sections, err := EncodePAT(PAT{TransportStreamID: 5})
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Empty(t, sections[0].Payload)
}

func TestEncodePAT_Range(t *testing.T) {
	t.Parallel()
	_, err := EncodePAT(PAT{Programs: []Program{{Number: 0, PMTPID: 0x100}}})
	require.ErrorIs(t, err, ErrFieldRange)
	_, err = EncodePAT(PAT{Programs: []Program{{Number: 1, PMTPID: 0x2000}}})
	require.ErrorIs(t, err, ErrFieldRange)
	_, err = EncodePAT(PAT{Version: 40})
	require.ErrorIs(t, err, ErrFieldRange)
}

func TestStreamType_String(t *testing.T) {
	t.Parallel()
	require.Equal(t, "H.264", StreamTypeH264.String())
	require.Equal(t, "0x99", StreamType(0x99).String())
}
