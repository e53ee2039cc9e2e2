package descriptor

import "github.com/zsiec/tsproto/bitbuf"

// MPEG-4 systems descriptors (ISO/IEC 13818-1 section 2.6.36 onwards).

// MPEG4Video is the MPEG-4_video_descriptor.
type MPEG4Video struct {
	ProfileAndLevel uint8
}

func (MPEG4Video) Tag() uint8 { return TagMPEG4Video }

func decodeMPEG4Video(r *bitbuf.Reader) Descriptor {
	return MPEG4Video{ProfileAndLevel: r.Uint8(8)}
}

func (d MPEG4Video) encode(e *encoder) {
	e.uint(8, uint64(d.ProfileAndLevel), "MPEG-4_visual_profile_and_level")
}

// MPEG4Audio is the MPEG-4_audio_descriptor.
type MPEG4Audio struct {
	ProfileAndLevel uint8
}

func (MPEG4Audio) Tag() uint8 { return TagMPEG4Audio }

func decodeMPEG4Audio(r *bitbuf.Reader) Descriptor {
	return MPEG4Audio{ProfileAndLevel: r.Uint8(8)}
}

func (d MPEG4Audio) encode(e *encoder) {
	e.uint(8, uint64(d.ProfileAndLevel), "MPEG-4_audio_profile_and_level")
}

// IOD is the IOD_descriptor. InitialObjectDescriptor is kept undecoded and
// is nil when empty.
type IOD struct {
	ScopeOfIODLabel         uint8
	IODLabel                uint8
	InitialObjectDescriptor []byte
}

func (IOD) Tag() uint8 { return TagIOD }

func decodeIOD(r *bitbuf.Reader) Descriptor {
	return IOD{
		ScopeOfIODLabel:         r.Uint8(8),
		IODLabel:                r.Uint8(8),
		InitialObjectDescriptor: r.RestBytes(),
	}
}

func (d IOD) encode(e *encoder) {
	e.uint(8, uint64(d.ScopeOfIODLabel), "Scope_of_IOD_label")
	e.uint(8, uint64(d.IODLabel), "IOD_label")
	e.bytes(d.InitialObjectDescriptor)
}

// SL is the SL_descriptor.
type SL struct {
	ESID uint16
}

func (SL) Tag() uint8 { return TagSL }

func decodeSL(r *bitbuf.Reader) Descriptor {
	return SL{ESID: r.Uint16(16)}
}

func (d SL) encode(e *encoder) {
	e.uint(16, uint64(d.ESID), "ES_ID")
}

// FlexMuxChannel maps an elementary stream to a FlexMux channel.
type FlexMuxChannel struct {
	ESID    uint16
	Channel uint8
}

// FMC is the FMC_descriptor.
type FMC struct {
	Channels []FlexMuxChannel
}

func (FMC) Tag() uint8 { return TagFMC }

func decodeFMC(r *bitbuf.Reader) Descriptor {
	var d FMC
	for r.BitsLeft() > 0 && r.Err() == nil {
		d.Channels = append(d.Channels, FlexMuxChannel{
			ESID:    r.Uint16(16),
			Channel: r.Uint8(8),
		})
	}
	return d
}

func (d FMC) encode(e *encoder) {
	for _, c := range d.Channels {
		e.uint(16, uint64(c.ESID), "ES_ID")
		e.uint(8, uint64(c.Channel), "FlexMuxChannel")
	}
}

// ExternalESID is the External_ES_ID_descriptor.
type ExternalESID struct {
	ESID uint16
}

func (ExternalESID) Tag() uint8 { return TagExternalESID }

func decodeExternalESID(r *bitbuf.Reader) Descriptor {
	return ExternalESID{ESID: r.Uint16(16)}
}

func (d ExternalESID) encode(e *encoder) {
	e.uint(16, uint64(d.ESID), "External_ES_ID")
}

// MuxCode is the MuxCode_descriptor. The MuxCodeTableEntry structures are
// kept undecoded; Entries is nil when there are none.
type MuxCode struct {
	Entries []byte
}

func (MuxCode) Tag() uint8 { return TagMuxCode }

func decodeMuxCode(r *bitbuf.Reader) Descriptor {
	return MuxCode{Entries: r.RestBytes()}
}

func (d MuxCode) encode(e *encoder) {
	e.bytes(d.Entries)
}

// FlexMuxBuffer is the buffer size of one FlexMux channel.
type FlexMuxBuffer struct {
	Channel uint8
	Size    uint32 // 24 bits
}

// FmxBufferSize is the FmxBufferSize_descriptor: a default buffer size
// followed by per-channel sizes.
type FmxBufferSize struct {
	DefaultSize uint32 // 24 bits
	Buffers     []FlexMuxBuffer
}

func (FmxBufferSize) Tag() uint8 { return TagFmxBufferSize }

func decodeFmxBufferSize(r *bitbuf.Reader) Descriptor {
	d := FmxBufferSize{DefaultSize: r.Uint32(24)}
	for r.BitsLeft() > 0 && r.Err() == nil {
		d.Buffers = append(d.Buffers, FlexMuxBuffer{
			Channel: r.Uint8(8),
			Size:    r.Uint32(24),
		})
	}
	return d
}

func (d FmxBufferSize) encode(e *encoder) {
	e.uint(24, uint64(d.DefaultSize), "FB_DefaultBufferSize")
	for _, b := range d.Buffers {
		e.uint(8, uint64(b.Channel), "flexMuxChannel")
		e.uint(24, uint64(b.Size), "FB_BufferSize")
	}
}

// MultiplexBuffer is the MultiplexBuffer_descriptor.
type MultiplexBuffer struct {
	MBBufferSize uint32 // 24 bits
	TBLeakRate   uint32 // 24 bits
}

func (MultiplexBuffer) Tag() uint8 { return TagMultiplexBuffer }

func decodeMultiplexBuffer(r *bitbuf.Reader) Descriptor {
	return MultiplexBuffer{
		MBBufferSize: r.Uint32(24),
		TBLeakRate:   r.Uint32(24),
	}
}

func (d MultiplexBuffer) encode(e *encoder) {
	e.uint(24, uint64(d.MBBufferSize), "MB_buffer_size")
	e.uint(24, uint64(d.TBLeakRate), "TB_leak_rate")
}
