package psi

import "fmt"

// StreamType is the stream_type of a PMT elementary stream entry.
type StreamType uint8

const (
	StreamTypeMPEG1Video  StreamType = 0x01
	StreamTypeMPEG2Video  StreamType = 0x02
	StreamTypeMPEG1Audio  StreamType = 0x03
	StreamTypeMPEG2Audio  StreamType = 0x04
	StreamTypePrivateData StreamType = 0x06
	StreamTypeAAC         StreamType = 0x0F
	StreamTypeMPEG4Video  StreamType = 0x10
	StreamTypeLATM        StreamType = 0x11
	StreamTypeMetadata    StreamType = 0x15
	StreamTypeH264        StreamType = 0x1B
	StreamTypeH265        StreamType = 0x24
	StreamTypeAC3         StreamType = 0x81
	StreamTypeSCTE35      StreamType = 0x86
	StreamTypeEAC3        StreamType = 0x87
)

var streamTypeNames = map[StreamType]string{
	StreamTypeMPEG1Video:  "MPEG-1 video",
	StreamTypeMPEG2Video:  "MPEG-2 video",
	StreamTypeMPEG1Audio:  "MPEG-1 audio",
	StreamTypeMPEG2Audio:  "MPEG-2 audio",
	StreamTypePrivateData: "private data",
	StreamTypeAAC:         "AAC",
	StreamTypeMPEG4Video:  "MPEG-4 video",
	StreamTypeLATM:        "AAC LATM",
	StreamTypeMetadata:    "metadata",
	StreamTypeH264:        "H.264",
	StreamTypeH265:        "H.265",
	StreamTypeAC3:         "AC-3",
	StreamTypeSCTE35:      "SCTE-35",
	StreamTypeEAC3:        "E-AC-3",
}

func (t StreamType) String() string {
	if name, ok := streamTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint8(t))
}
