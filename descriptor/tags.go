package descriptor

// Descriptor tags per ISO/IEC 13818-1 Table 2-45.
const (
	TagVideoStream                uint8 = 2
	TagAudioStream                uint8 = 3
	TagHierarchy                  uint8 = 4
	TagRegistration               uint8 = 5
	TagDataStreamAlignment        uint8 = 6
	TagTargetBackgroundGrid       uint8 = 7
	TagVideoWindow                uint8 = 8
	TagCA                         uint8 = 9
	TagISO639Language             uint8 = 10
	TagSystemClock                uint8 = 11
	TagMultiplexBufferUtilization uint8 = 12
	TagCopyright                  uint8 = 13
	TagMaximumBitrate             uint8 = 14
	TagPrivateDataIndicator       uint8 = 15
	TagSmoothingBuffer            uint8 = 16
	TagSTD                        uint8 = 17
	TagIBP                        uint8 = 18
	TagMPEG4Video                 uint8 = 27
	TagMPEG4Audio                 uint8 = 28
	TagIOD                        uint8 = 29
	TagSL                         uint8 = 30
	TagFMC                        uint8 = 31
	TagExternalESID               uint8 = 32
	TagMuxCode                    uint8 = 33
	TagFmxBufferSize              uint8 = 34
	TagMultiplexBuffer            uint8 = 35
)
