package descriptor

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func allVariants() []Descriptor {
	return []Descriptor{
		VideoStream{MultipleFrameRate: true, FrameRateCode: 3, ConstrainedParameter: true, ProfileAndLevelIndication: 0x48, ChromaFormat: 1, FrameRateExtension: true},
		VideoStream{FrameRateCode: 15, MPEG1Only: true, StillPicture: true},
		AudioStream{FreeFormat: true, ID: 1, Layer: 2, VariableRateAudio: true},
		Hierarchy{Type: HierarchyTemporalScalability, LayerIndex: 5, EmbeddedLayerIndex: 63, Channel: 1},
		Hierarchy{Type: HierarchyType(9), LayerIndex: 1},
		Registration{FormatIdentifier: 0x43554549},
		Registration{FormatIdentifier: 0x48455643, AdditionalInfo: []byte{0x01, 0x02, 0x03}},
		DataStreamAlignment{Type: AlignmentVideoAccessUnit},
		DataStreamAlignment{Type: AlignmentType(200)},
		TargetBackgroundGrid{HorizontalSize: 1920, VerticalSize: 1080, AspectRatioInformation: 3},
		VideoWindow{HorizontalOffset: 0x3FFF, VerticalOffset: 12, WindowPriority: 15},
		CA{SystemID: 0x0B00, PID: 0x1FFF, PrivateData: []byte{0xDE, 0xAD}},
		CA{SystemID: 1, PID: 0x20},
		ISO639Language{Languages: []Language{{Code: "eng", AudioType: AudioHearingImpaired}, {Code: "fra", AudioType: AudioType(0x80)}}},
		ISO639Language{},
		SystemClock{ExternalClockReference: true, ClockAccuracyInteger: 63, ClockAccuracyExponent: 7},
		MultiplexBufferUtilization{BoundValid: true, LTWOffsetLowerBound: 0x7FFF, LTWOffsetUpperBound: 1},
		Copyright{Identifier: 0xCAFEBABE, AdditionalInfo: []byte("(c)")},
		MaximumBitrate{MaximumBitrate: 0x3FFFFF},
		PrivateDataIndicator{Indicator: 0xFFFFFFFF},
		SmoothingBuffer{LeakRate: 0x3FFFFF, Size: 1},
		STD{LeakValid: true},
		IBP{ClosedGOP: true, MaxGOPLength: 0x3FFF},
		MPEG4Video{ProfileAndLevel: 0xF5},
		MPEG4Audio{ProfileAndLevel: 0x0F},
		IOD{ScopeOfIODLabel: 0x10, IODLabel: 2, InitialObjectDescriptor: []byte{1, 2, 3, 4}},
		IOD{ScopeOfIODLabel: 0x11},
		SL{ESID: 0xBEEF},
		FMC{Channels: []FlexMuxChannel{{ESID: 1, Channel: 2}, {ESID: 0xFFFF, Channel: 255}}},
		FMC{},
		ExternalESID{ESID: 77},
		MuxCode{Entries: []byte{9, 8, 7}},
		MuxCode{},
		FmxBufferSize{DefaultSize: 0xFFFFFF},
		FmxBufferSize{DefaultSize: 1, Buffers: []FlexMuxBuffer{{Channel: 3, Size: 0x123456}}},
		MultiplexBuffer{MBBufferSize: 0xABCDEF, TBLeakRate: 1},
		Unknown{ID: 0x80, Data: []byte{1, 2, 3}},
		Unknown{ID: 0xFF},
	}
}

func TestRoundTrip_AllVariants(t *testing.T) {
	t.Parallel()
	seen := map[uint8]bool{}
	for _, d := range allVariants() {
		t.Run(fmt.Sprintf("%s/%T", Name(d.Tag()), d), func(t *testing.T) {
			buf, err := Encode(d)
			require.NoError(t, err)
			require.Equal(t, d.Tag(), buf[0])
			require.Equal(t, len(buf)-2, int(buf[1]))

			got, n, err := Decode(buf)
			require.NoError(t, err)
			require.Equal(t, len(buf), n)
			require.Equal(t, d, got)
		})
		if Known(d.Tag()) {
			seen[d.Tag()] = true
		}
	}
	require.Len(t, seen, len(known), "every known tag needs a round-trip case")
}

func TestRoundTrip_EmptyTailDecodesNil(t *testing.T) {
	t.Parallel()
	tests := []struct {
		empty, want Descriptor
	}{
		{Registration{FormatIdentifier: 1, AdditionalInfo: []byte{}}, Registration{FormatIdentifier: 1}},
		{CA{SystemID: 2, PID: 0x30, PrivateData: []byte{}}, CA{SystemID: 2, PID: 0x30}},
		{Copyright{Identifier: 3, AdditionalInfo: []byte{}}, Copyright{Identifier: 3}},
		{IOD{ScopeOfIODLabel: 0x10, InitialObjectDescriptor: []byte{}}, IOD{ScopeOfIODLabel: 0x10}},
		{MuxCode{Entries: []byte{}}, MuxCode{}},
		{Unknown{ID: 0x80, Data: []byte{}}, Unknown{ID: 0x80}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.want), func(t *testing.T) {
			t.Parallel()
			buf, err := Encode(tt.empty)
			require.NoError(t, err)
			nilBuf, err := Encode(tt.want)
			require.NoError(t, err)
			require.Equal(t, nilBuf, buf)

			got, _, err := Decode(buf)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_WireLayout(t *testing.T) {
	t.Parallel()
	cases := []struct {
		d    Descriptor
		want []byte
	}{
		{Hierarchy{Type: 3, LayerIndex: 5, EmbeddedLayerIndex: 63, Channel: 1}, []byte{0x04, 0x04, 0x03, 0x05, 0x3F, 0x01}},
		{CA{SystemID: 0x0B00, PID: 0x1FFF, PrivateData: []byte{1, 2}}, []byte{0x09, 0x06, 0x0B, 0x00, 0x1F, 0xFF, 0x01, 0x02}},
		{ISO639Language{Languages: []Language{{Code: "eng", AudioType: AudioHearingImpaired}}}, []byte{0x0A, 0x04, 'e', 'n', 'g', 0x02}},
		{Registration{FormatIdentifier: 0x43554549}, []byte{0x05, 0x04, 'C', 'U', 'E', 'I'}},
		{STD{LeakValid: true}, []byte{0x11, 0x01, 0x01}},
		{MaximumBitrate{MaximumBitrate: 0x3FFFFF}, []byte{0x0E, 0x03, 0x3F, 0xFF, 0xFF}},
		{VideoStream{FrameRateCode: 15, MPEG1Only: true}, []byte{0x02, 0x01, 0x7C}},
		{SystemClock{ExternalClockReference: true, ClockAccuracyInteger: 1, ClockAccuracyExponent: 7}, []byte{0x0B, 0x02, 0x81, 0xE0}},
	}
	for _, tc := range cases {
		got, err := Encode(tc.d)
		require.NoError(t, err, "%T", tc.d)
		require.Equal(t, tc.want, got, "%T", tc.d)
	}
}

func TestDecode_ReservedBitsIgnored(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   []byte
		want Descriptor
	}{
		{[]byte{TagSTD, 1, 0xFF}, STD{LeakValid: true}},
		{[]byte{TagMaximumBitrate, 3, 0xC0, 0x00, 0x01}, MaximumBitrate{MaximumBitrate: 1}},
		{[]byte{TagHierarchy, 4, 0xF2, 0xC0, 0xC0, 0xC0}, Hierarchy{Type: HierarchySNRScalability}},
		{[]byte{TagCA, 4, 0x00, 0x01, 0xE0, 0x10}, CA{SystemID: 1, PID: 0x10}},
		{[]byte{TagAudioStream, 1, 0x07}, AudioStream{}},
	}
	for _, tc := range cases {
		got, _, err := Decode(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)

		// Re-encoding clears the reserved bits.
		out, err := Encode(got)
		require.NoError(t, err)
		require.Len(t, out, len(tc.in))
		require.Equal(t, tc.in[:2], out[:2])
	}
}

func TestHierarchyType_AllCodes(t *testing.T) {
	t.Parallel()
	for code := 0; code <= 15; code++ {
		d := Hierarchy{Type: HierarchyType(code)}
		buf, err := Encode(d)
		require.NoError(t, err)
		got, _, err := Decode(buf)
		require.NoError(t, err)
		require.Equal(t, d, got, "code %d", code)
	}
	require.False(t, HierarchyBaseLayer.Reserved())
	require.True(t, HierarchyType(0).Reserved())
	require.True(t, HierarchyType(8).Reserved())
	require.Equal(t, "reserved(12)", HierarchyType(12).String())
	require.Equal(t, "base layer", HierarchyBaseLayer.String())
}

func TestAlignmentAndAudioType_AllCodes(t *testing.T) {
	t.Parallel()
	for code := 0; code <= 255; code++ {
		a := DataStreamAlignment{Type: AlignmentType(code)}
		buf, err := Encode(a)
		require.NoError(t, err)
		got, _, err := Decode(buf)
		require.NoError(t, err)
		require.Equal(t, a, got)

		l := ISO639Language{Languages: []Language{{Code: "deu", AudioType: AudioType(code)}}}
		buf, err = Encode(l)
		require.NoError(t, err)
		got, _, err = Decode(buf)
		require.NoError(t, err)
		require.Equal(t, l, got)
	}
	require.True(t, AlignmentType(0).Reserved())
	require.False(t, AlignmentSEQ.Reserved())
	require.True(t, AlignmentType(5).Reserved())
	require.False(t, AudioUndefined.Reserved())
	require.True(t, AudioType(4).Reserved())
	require.Equal(t, "reserved(255)", AudioType(255).String())
}

func TestDecode_UnknownFallback(t *testing.T) {
	t.Parallel()
	for tag := 0; tag <= 255; tag++ {
		if Known(uint8(tag)) {
			continue
		}
		for length := 0; length <= 255; length += 17 {
			body := bytes.Repeat([]byte{byte(tag)}, length)
			buf := append([]byte{byte(tag), byte(length)}, body...)

			d, n, err := Decode(buf)
			require.NoError(t, err)
			require.Equal(t, 2+length, n)
			u, ok := d.(Unknown)
			require.True(t, ok, "tag %d decoded as %T", tag, d)
			require.Equal(t, uint8(tag), u.Tag())
			require.Equal(t, length, u.Length())
			if length == 0 {
				require.Nil(t, u.Data)
			} else {
				require.Equal(t, body, u.Data)
			}

			out, err := Encode(d)
			require.NoError(t, err)
			require.Equal(t, buf, out)
		}
	}
}

func TestDecode_UnknownEveryLength(t *testing.T) {
	t.Parallel()
	for length := 0; length <= 255; length++ {
		buf := make([]byte, 2+length)
		buf[0], buf[1] = 0xC0, byte(length)
		d, n, err := Decode(buf)
		require.NoError(t, err)
		require.Equal(t, 2+length, n)
		require.Equal(t, length, d.(Unknown).Length())
	}
}

func TestDecode_KnownTagsDecodeStructured(t *testing.T) {
	t.Parallel()
	got, _, err := Decode([]byte{TagSL, 2, 0x00, 0x2A})
	require.NoError(t, err)
	require.Equal(t, SL{ESID: 42}, got)
}

func TestDecode_Framing(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"tag only", []byte{TagSTD}},
		{"truncated body", []byte{TagSL, 2, 0x00}},
		{"unknown truncated", []byte{0xF0, 5, 1, 2}},
		{"window too short", []byte{TagIBP, 1, 0xFF}},
		{"window too long", []byte{TagSTD, 2, 0x01, 0x00}},
		{"partial language entry", []byte{TagISO639Language, 6, 'e', 'n', 'g', 0, 'f', 'r'}},
		{"partial FMC entry", []byte{TagFMC, 4, 0, 1, 2, 3}},
		{"empty video stream", []byte{TagVideoStream, 0}},
		{"video stream extension missing", []byte{TagVideoStream, 1, 0x00}},
		{"registration too short", []byte{TagRegistration, 3, 'C', 'U', 'E'}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(tc.in)
			require.ErrorIs(t, err, ErrFraming)
		})
	}
}

func TestEncode_FieldRange(t *testing.T) {
	t.Parallel()
	cases := []Descriptor{
		Hierarchy{Type: 16},
		Hierarchy{LayerIndex: 64},
		AudioStream{ID: 2},
		VideoStream{FrameRateCode: 16},
		VideoStream{MPEG1Only: true, ChromaFormat: 1},
		TargetBackgroundGrid{HorizontalSize: 0x4000},
		MaximumBitrate{MaximumBitrate: 0x400000},
		CA{PID: 0x2000},
		ISO639Language{Languages: []Language{{Code: "en"}}},
		MultiplexBuffer{TBLeakRate: 1 << 24},
		nil,
	}
	for _, d := range cases {
		_, err := Encode(d)
		require.ErrorIs(t, err, ErrFieldRange, "%#v", d)
	}
}

func TestEncode_BodyTooLong(t *testing.T) {
	t.Parallel()
	_, err := Encode(Unknown{ID: 0x90, Data: make([]byte, 256)})
	require.ErrorIs(t, err, ErrFraming)

	_, err = Encode(Registration{AdditionalInfo: make([]byte, MaxBodySize-4)})
	require.NoError(t, err)
}

func TestDecodeAll(t *testing.T) {
	t.Parallel()
	ds := allVariants()
	buf, err := EncodeAll(ds)
	require.NoError(t, err)

	got, err := DecodeAll(buf)
	require.NoError(t, err)
	require.Equal(t, ds, got)

	empty, err := DecodeAll(nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = DecodeAll(append(buf, TagSTD))
	require.ErrorIs(t, err, ErrFraming)
}

func TestName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "ISO_639_language", Name(TagISO639Language))
	require.Equal(t, "unknown", Name(0xFE))
}
