package descriptor

import "fmt"

// HierarchyType is the 4-bit hierarchy_type of a hierarchy descriptor.
// Codes without a named constant are reserved and kept as is.
type HierarchyType uint8

const (
	HierarchySpatialScalability  HierarchyType = 1
	HierarchySNRScalability      HierarchyType = 2
	HierarchyTemporalScalability HierarchyType = 3
	HierarchyDataPartitioning    HierarchyType = 4
	HierarchyExtensionBitstream  HierarchyType = 5
	HierarchyPrivateStream       HierarchyType = 6
	HierarchyMultiViewProfile    HierarchyType = 7
	HierarchyBaseLayer           HierarchyType = 15
)

var hierarchyTypeNames = map[HierarchyType]string{
	HierarchySpatialScalability:  "spatial scalability",
	HierarchySNRScalability:      "SNR scalability",
	HierarchyTemporalScalability: "temporal scalability",
	HierarchyDataPartitioning:    "data partitioning",
	HierarchyExtensionBitstream:  "extension bitstream",
	HierarchyPrivateStream:       "private stream",
	HierarchyMultiViewProfile:    "multi-view profile",
	HierarchyBaseLayer:           "base layer",
}

// Reserved reports whether t has no named meaning.
func (t HierarchyType) Reserved() bool {
	_, ok := hierarchyTypeNames[t]
	return !ok
}

func (t HierarchyType) String() string {
	if name, ok := hierarchyTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("reserved(%d)", uint8(t))
}

// AlignmentType is the alignment_type of a data stream alignment
// descriptor, as defined for video streams.
type AlignmentType uint8

const (
	AlignmentSliceOrVideoAccessUnit AlignmentType = 1
	AlignmentVideoAccessUnit        AlignmentType = 2
	AlignmentGOPOrSEQ               AlignmentType = 3
	AlignmentSEQ                    AlignmentType = 4
)

var alignmentTypeNames = map[AlignmentType]string{
	AlignmentSliceOrVideoAccessUnit: "slice or video access unit",
	AlignmentVideoAccessUnit:        "video access unit",
	AlignmentGOPOrSEQ:               "GOP or SEQ",
	AlignmentSEQ:                    "SEQ",
}

// Reserved reports whether t has no named meaning.
func (t AlignmentType) Reserved() bool {
	_, ok := alignmentTypeNames[t]
	return !ok
}

func (t AlignmentType) String() string {
	if name, ok := alignmentTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("reserved(%d)", uint8(t))
}

// AudioType is the audio_type of an ISO 639 language descriptor entry.
type AudioType uint8

const (
	AudioUndefined                AudioType = 0
	AudioCleanEffects             AudioType = 1
	AudioHearingImpaired          AudioType = 2
	AudioVisualImpairedCommentary AudioType = 3
)

var audioTypeNames = map[AudioType]string{
	AudioUndefined:                "undefined",
	AudioCleanEffects:             "clean effects",
	AudioHearingImpaired:          "hearing impaired",
	AudioVisualImpairedCommentary: "visual impaired commentary",
}

// Reserved reports whether t has no named meaning.
func (t AudioType) Reserved() bool {
	_, ok := audioTypeNames[t]
	return !ok
}

func (t AudioType) String() string {
	if name, ok := audioTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("reserved(%d)", uint8(t))
}
