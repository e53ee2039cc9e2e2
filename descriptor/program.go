package descriptor

import (
	"fmt"

	"github.com/zsiec/tsproto/bitbuf"
	"github.com/zsiec/tsproto/mpegts"
)

// Registration is the registration_descriptor. AdditionalInfo holds the
// bytes after the format identifier and is nil when there are none.
type Registration struct {
	FormatIdentifier uint32
	AdditionalInfo   []byte
}

func (Registration) Tag() uint8 { return TagRegistration }

func decodeRegistration(r *bitbuf.Reader) Descriptor {
	return Registration{
		FormatIdentifier: r.Uint32(32),
		AdditionalInfo:   r.RestBytes(),
	}
}

func (d Registration) encode(e *encoder) {
	e.uint(32, uint64(d.FormatIdentifier), "format_identifier")
	e.bytes(d.AdditionalInfo)
}

// CA is the conditional access descriptor. PrivateData is nil when the
// descriptor carries none.
type CA struct {
	SystemID    uint16
	PID         mpegts.PID
	PrivateData []byte
}

func (CA) Tag() uint8 { return TagCA }

func decodeCA(r *bitbuf.Reader) Descriptor {
	var d CA
	d.SystemID = r.Uint16(16)
	r.Skip(3)
	d.PID = mpegts.PID(r.Uint16(13))
	d.PrivateData = r.RestBytes()
	return d
}

func (d CA) encode(e *encoder) {
	e.uint(16, uint64(d.SystemID), "CA_system_ID")
	e.reserved(3)
	e.uint(13, uint64(d.PID), "CA_PID")
	e.bytes(d.PrivateData)
}

// Language is one entry of an ISO 639 language descriptor. Code is the
// three-byte ISO_639_language_code.
type Language struct {
	Code      string
	AudioType AudioType
}

// ISO639Language is the ISO_639_language_descriptor.
type ISO639Language struct {
	Languages []Language
}

func (ISO639Language) Tag() uint8 { return TagISO639Language }

func decodeISO639Language(r *bitbuf.Reader) Descriptor {
	var d ISO639Language
	for r.BitsLeft() > 0 && r.Err() == nil {
		code := r.Bytes(3)
		d.Languages = append(d.Languages, Language{
			Code:      string(code),
			AudioType: AudioType(r.Uint8(8)),
		})
	}
	return d
}

func (d ISO639Language) encode(e *encoder) {
	for _, l := range d.Languages {
		if len(l.Code) != 3 {
			if e.err == nil {
				e.err = fmt.Errorf("%w: ISO_639_language_code %q is not 3 bytes", ErrFieldRange, l.Code)
			}
			return
		}
		e.bytes([]byte(l.Code))
		e.uint(8, uint64(l.AudioType), "audio_type")
	}
}

// Copyright is the copyright_descriptor. AdditionalInfo is nil when there
// are no bytes after the identifier.
type Copyright struct {
	Identifier     uint32
	AdditionalInfo []byte
}

func (Copyright) Tag() uint8 { return TagCopyright }

func decodeCopyright(r *bitbuf.Reader) Descriptor {
	return Copyright{
		Identifier:     r.Uint32(32),
		AdditionalInfo: r.RestBytes(),
	}
}

func (d Copyright) encode(e *encoder) {
	e.uint(32, uint64(d.Identifier), "copyright_identifier")
	e.bytes(d.AdditionalInfo)
}

// PrivateDataIndicator is the private_data_indicator_descriptor.
type PrivateDataIndicator struct {
	Indicator uint32
}

func (PrivateDataIndicator) Tag() uint8 { return TagPrivateDataIndicator }

func decodePrivateDataIndicator(r *bitbuf.Reader) Descriptor {
	return PrivateDataIndicator{Indicator: r.Uint32(32)}
}

func (d PrivateDataIndicator) encode(e *encoder) {
	e.uint(32, uint64(d.Indicator), "private_data_indicator")
}
