package descriptor

import (
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
)

// VideoStream is the video_stream_descriptor. The profile, chroma and
// frame rate extension fields are present on the wire only when MPEG1Only
// is false.
type VideoStream struct {
	MultipleFrameRate         bool
	FrameRateCode             uint8 // 4 bits
	MPEG1Only                 bool
	ConstrainedParameter      bool
	StillPicture              bool
	ProfileAndLevelIndication uint8
	ChromaFormat              uint8 // 2 bits
	FrameRateExtension        bool
}

func (VideoStream) Tag() uint8 { return TagVideoStream }

func decodeVideoStream(r *bitbuf.Reader) Descriptor {
	d := VideoStream{
		MultipleFrameRate:    r.Bool(),
		FrameRateCode:        r.Uint8(4),
		MPEG1Only:            r.Bool(),
		ConstrainedParameter: r.Bool(),
		StillPicture:         r.Bool(),
	}
	if !d.MPEG1Only {
		d.ProfileAndLevelIndication = r.Uint8(8)
		d.ChromaFormat = r.Uint8(2)
		d.FrameRateExtension = r.Bool()
		r.Skip(5)
	}
	return d
}

func (d VideoStream) encode(e *encoder) {
	e.bool(d.MultipleFrameRate)
	e.uint(4, uint64(d.FrameRateCode), "frame_rate_code")
	e.bool(d.MPEG1Only)
	e.bool(d.ConstrainedParameter)
	e.bool(d.StillPicture)
	if d.MPEG1Only {
		if d.ProfileAndLevelIndication != 0 || d.ChromaFormat != 0 || d.FrameRateExtension {
			if e.err == nil {
				e.err = fmt.Errorf("%w: MPEG-1 only video stream carries extension fields", ErrFieldRange)
			}
		}
		return
	}
	e.uint(8, uint64(d.ProfileAndLevelIndication), "profile_and_level_indication")
	e.uint(2, uint64(d.ChromaFormat), "chroma_format")
	e.bool(d.FrameRateExtension)
	e.reserved(5)
}

// AudioStream is the audio_stream_descriptor.
type AudioStream struct {
	FreeFormat        bool
	ID                uint8 // 1 bit
	Layer             uint8 // 2 bits
	VariableRateAudio bool
}

func (AudioStream) Tag() uint8 { return TagAudioStream }

func decodeAudioStream(r *bitbuf.Reader) Descriptor {
	d := AudioStream{
		FreeFormat:        r.Bool(),
		ID:                r.Uint8(1),
		Layer:             r.Uint8(2),
		VariableRateAudio: r.Bool(),
	}
	r.Skip(3)
	return d
}

func (d AudioStream) encode(e *encoder) {
	e.bool(d.FreeFormat)
	e.uint(1, uint64(d.ID), "ID")
	e.uint(2, uint64(d.Layer), "layer")
	e.bool(d.VariableRateAudio)
	e.reserved(3)
}

// Hierarchy is the hierarchy_descriptor.
type Hierarchy struct {
	Type               HierarchyType
	LayerIndex         uint8 // 6 bits
	EmbeddedLayerIndex uint8 // 6 bits
	Channel            uint8 // 6 bits
}

func (Hierarchy) Tag() uint8 { return TagHierarchy }

func decodeHierarchy(r *bitbuf.Reader) Descriptor {
	var d Hierarchy
	r.Skip(4)
	d.Type = HierarchyType(r.Uint8(4))
	r.Skip(2)
	d.LayerIndex = r.Uint8(6)
	r.Skip(2)
	d.EmbeddedLayerIndex = r.Uint8(6)
	r.Skip(2)
	d.Channel = r.Uint8(6)
	return d
}

func (d Hierarchy) encode(e *encoder) {
	e.reserved(4)
	e.uint(4, uint64(d.Type), "hierarchy_type")
	e.reserved(2)
	e.uint(6, uint64(d.LayerIndex), "hierarchy_layer_index")
	e.reserved(2)
	e.uint(6, uint64(d.EmbeddedLayerIndex), "hierarchy_embedded_layer_index")
	e.reserved(2)
	e.uint(6, uint64(d.Channel), "hierarchy_channel")
}

// DataStreamAlignment is the data_stream_alignment_descriptor.
type DataStreamAlignment struct {
	Type AlignmentType
}

func (DataStreamAlignment) Tag() uint8 { return TagDataStreamAlignment }

func decodeDataStreamAlignment(r *bitbuf.Reader) Descriptor {
	return DataStreamAlignment{Type: AlignmentType(r.Uint8(8))}
}

func (d DataStreamAlignment) encode(e *encoder) {
	e.uint(8, uint64(d.Type), "alignment_type")
}

// TargetBackgroundGrid is the target_background_grid_descriptor.
type TargetBackgroundGrid struct {
	HorizontalSize         uint16 // 14 bits
	VerticalSize           uint16 // 14 bits
	AspectRatioInformation uint8  // 4 bits
}

func (TargetBackgroundGrid) Tag() uint8 { return TagTargetBackgroundGrid }

func decodeTargetBackgroundGrid(r *bitbuf.Reader) Descriptor {
	return TargetBackgroundGrid{
		HorizontalSize:         r.Uint16(14),
		VerticalSize:           r.Uint16(14),
		AspectRatioInformation: r.Uint8(4),
	}
}

func (d TargetBackgroundGrid) encode(e *encoder) {
	e.uint(14, uint64(d.HorizontalSize), "horizontal_size")
	e.uint(14, uint64(d.VerticalSize), "vertical_size")
	e.uint(4, uint64(d.AspectRatioInformation), "aspect_ratio_information")
}

// VideoWindow is the video_window_descriptor.
type VideoWindow struct {
	HorizontalOffset uint16 // 14 bits
	VerticalOffset   uint16 // 14 bits
	WindowPriority   uint8  // 4 bits
}

func (VideoWindow) Tag() uint8 { return TagVideoWindow }

func decodeVideoWindow(r *bitbuf.Reader) Descriptor {
	return VideoWindow{
		HorizontalOffset: r.Uint16(14),
		VerticalOffset:   r.Uint16(14),
		WindowPriority:   r.Uint8(4),
	}
}

func (d VideoWindow) encode(e *encoder) {
	e.uint(14, uint64(d.HorizontalOffset), "horizontal_offset")
	e.uint(14, uint64(d.VerticalOffset), "vertical_offset")
	e.uint(4, uint64(d.WindowPriority), "window_priority")
}

// SystemClock is the system_clock_descriptor.
type SystemClock struct {
	ExternalClockReference bool
	ClockAccuracyInteger   uint8 // 6 bits
	ClockAccuracyExponent  uint8 // 3 bits
}

func (SystemClock) Tag() uint8 { return TagSystemClock }

func decodeSystemClock(r *bitbuf.Reader) Descriptor {
	var d SystemClock
	d.ExternalClockReference = r.Bool()
	r.Skip(1)
	d.ClockAccuracyInteger = r.Uint8(6)
	d.ClockAccuracyExponent = r.Uint8(3)
	r.Skip(5)
	return d
}

func (d SystemClock) encode(e *encoder) {
	e.bool(d.ExternalClockReference)
	e.reserved(1)
	e.uint(6, uint64(d.ClockAccuracyInteger), "clock_accuracy_integer")
	e.uint(3, uint64(d.ClockAccuracyExponent), "clock_accuracy_exponent")
	e.reserved(5)
}

// MultiplexBufferUtilization is the multiplex_buffer_utilization_descriptor.
type MultiplexBufferUtilization struct {
	BoundValid          bool
	LTWOffsetLowerBound uint16 // 15 bits
	LTWOffsetUpperBound uint16 // 15 bits
}

func (MultiplexBufferUtilization) Tag() uint8 { return TagMultiplexBufferUtilization }

func decodeMultiplexBufferUtilization(r *bitbuf.Reader) Descriptor {
	var d MultiplexBufferUtilization
	d.BoundValid = r.Bool()
	d.LTWOffsetLowerBound = r.Uint16(15)
	r.Skip(1)
	d.LTWOffsetUpperBound = r.Uint16(15)
	return d
}

func (d MultiplexBufferUtilization) encode(e *encoder) {
	e.bool(d.BoundValid)
	e.uint(15, uint64(d.LTWOffsetLowerBound), "LTW_offset_lower_bound")
	e.reserved(1)
	e.uint(15, uint64(d.LTWOffsetUpperBound), "LTW_offset_upper_bound")
}

// MaximumBitrate is the maximum_bitrate_descriptor, in units of 50 bytes/s.
type MaximumBitrate struct {
	MaximumBitrate uint32 // 22 bits
}

func (MaximumBitrate) Tag() uint8 { return TagMaximumBitrate }

func decodeMaximumBitrate(r *bitbuf.Reader) Descriptor {
	r.Skip(2)
	return MaximumBitrate{MaximumBitrate: r.Uint32(22)}
}

func (d MaximumBitrate) encode(e *encoder) {
	e.reserved(2)
	e.uint(22, uint64(d.MaximumBitrate), "maximum_bitrate")
}

// SmoothingBuffer is the smoothing_buffer_descriptor.
type SmoothingBuffer struct {
	LeakRate uint32 // 22 bits
	Size     uint32 // 22 bits
}

func (SmoothingBuffer) Tag() uint8 { return TagSmoothingBuffer }

func decodeSmoothingBuffer(r *bitbuf.Reader) Descriptor {
	var d SmoothingBuffer
	r.Skip(2)
	d.LeakRate = r.Uint32(22)
	r.Skip(2)
	d.Size = r.Uint32(22)
	return d
}

func (d SmoothingBuffer) encode(e *encoder) {
	e.reserved(2)
	e.uint(22, uint64(d.LeakRate), "sb_leak_rate")
	e.reserved(2)
	e.uint(22, uint64(d.Size), "sb_size")
}

// STD is the STD_descriptor.
type STD struct {
	LeakValid bool
}

func (STD) Tag() uint8 { return TagSTD }

func decodeSTD(r *bitbuf.Reader) Descriptor {
	r.Skip(7)
	return STD{LeakValid: r.Bool()}
}

func (d STD) encode(e *encoder) {
	e.reserved(7)
	e.bool(d.LeakValid)
}

// IBP is the IBP_descriptor.
type IBP struct {
	ClosedGOP    bool
	IdenticalGOP bool
	MaxGOPLength uint16 // 14 bits
}

func (IBP) Tag() uint8 { return TagIBP }

func decodeIBP(r *bitbuf.Reader) Descriptor {
	return IBP{
		ClosedGOP:    r.Bool(),
		IdenticalGOP: r.Bool(),
		MaxGOPLength: r.Uint16(14),
	}
}

func (d IBP) encode(e *encoder) {
	e.bool(d.ClosedGOP)
	e.bool(d.IdenticalGOP)
	e.uint(14, uint64(d.MaxGOPLength), "max_gop_length")
}
