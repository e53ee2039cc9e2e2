// Package psi implements PSI section framing, multi-section table
// reassembly, and the PAT and PMT tables (ISO/IEC 13818-1 section 2.4.4).
package psi

import (
	"encoding/binary"
	"fmt"
)

const (
	sectionHeaderSize   = 3
	extensionHeaderSize = 5
	crcSize             = 4

	// MaxSectionLength is the largest section_length of a private section.
	MaxSectionLength = 4093

	// MaxPSISectionLength is the largest section_length of a PAT, CAT or
	// PMT section.
	MaxPSISectionLength = 1021
)

// Extension is the table_id_extension through last_section_number block of
// a long-form section.
type Extension struct {
	TableIDExtension     uint16
	Version              uint8 // 5 bits
	CurrentNextIndicator bool
	SectionNumber        uint8
	LastSectionNumber    uint8
}

// Section is one decoded PSI section. Extension is set when the
// section_syntax_indicator is 1, in which case Payload excludes the
// extension block and the CRC_32.
type Section struct {
	TableID          uint8
	PrivateIndicator bool
	Extension        *Extension
	Payload          []byte
}

// Extended returns s as an ExtendedSection if it carries an extension.
func (s Section) Extended() (ExtendedSection, bool) {
	if s.Extension == nil {
		return ExtendedSection{}, false
	}
	return ExtendedSection{TableID: s.TableID, Extension: *s.Extension, Payload: s.Payload}, true
}

// ExtendedSection is a long-form section, the unit a SectionAccumulator
// collects.
type ExtendedSection struct {
	TableID   uint8
	Extension Extension
	Payload   []byte
}

// Identity groups sections that belong to the same table instance.
type Identity struct {
	TableID           uint8
	TableIDExtension  uint16
	Version           uint8
	LastSectionNumber uint8
}

// Identity returns the grouping key of s.
func (s ExtendedSection) Identity() Identity {
	return Identity{
		TableID:           s.TableID,
		TableIDExtension:  s.Extension.TableIDExtension,
		Version:           s.Extension.Version,
		LastSectionNumber: s.Extension.LastSectionNumber,
	}
}

func (id Identity) String() string {
	return fmt.Sprintf("table 0x%02X/%d v%d (%d sections)",
		id.TableID, id.TableIDExtension, id.Version, int(id.LastSectionNumber)+1)
}

// SectionLength returns the total size of the section starting at b, header
// included. ok is false when b holds less than the three header bytes.
func SectionLength(b []byte) (n int, ok bool) {
	if len(b) < sectionHeaderSize {
		return 0, false
	}
	return sectionHeaderSize + (int(b[1]&0x0F)<<8 | int(b[2])), true
}

// DecodeSection decodes exactly one section. Long-form sections have their
// CRC_32 verified.
func DecodeSection(b []byte) (Section, error) {
	n, ok := SectionLength(b)
	if !ok {
		return Section{}, fmt.Errorf("%w: section of %d bytes", ErrFraming, len(b))
	}
	if n != len(b) {
		return Section{}, fmt.Errorf("%w: section_length declares %d bytes, have %d", ErrFraming, n, len(b))
	}

	s := Section{
		TableID:          b[0],
		PrivateIndicator: b[1]&0x40 != 0,
	}
	if b[1]&0x80 == 0 {
		if n > sectionHeaderSize {
			s.Payload = append([]byte(nil), b[sectionHeaderSize:]...)
		}
		return s, nil
	}

	if n < sectionHeaderSize+extensionHeaderSize+crcSize {
		return Section{}, fmt.Errorf("%w: long-form section of %d bytes", ErrFraming, n)
	}
	if err := verifyCRC32(b); err != nil {
		return Section{}, err
	}
	x := b[sectionHeaderSize:]
	s.Extension = &Extension{
		TableIDExtension:     binary.BigEndian.Uint16(x[0:2]),
		Version:              (x[2] >> 1) & 0x1F,
		CurrentNextIndicator: x[2]&0x01 != 0,
		SectionNumber:        x[3],
		LastSectionNumber:    x[4],
	}
	body := b[sectionHeaderSize+extensionHeaderSize : n-crcSize]
	if len(body) > 0 {
		s.Payload = append([]byte(nil), body...)
	}
	return s, nil
}

// DecodeExtendedSection decodes one long-form section.
func DecodeExtendedSection(b []byte) (ExtendedSection, error) {
	s, err := DecodeSection(b)
	if err != nil {
		return ExtendedSection{}, err
	}
	es, ok := s.Extended()
	if !ok {
		return ExtendedSection{}, fmt.Errorf("%w: table id 0x%02X is not a long-form section", ErrFraming, s.TableID)
	}
	return es, nil
}

// EncodeSection encodes s, appending a CRC_32 to long-form sections.
// Reserved bits are written as ones.
func EncodeSection(s Section) ([]byte, error) {
	length := len(s.Payload)
	if s.Extension != nil {
		length += extensionHeaderSize + crcSize
	}
	if length > MaxSectionLength {
		return nil, fmt.Errorf("%w: section_length %d exceeds %d", ErrFieldRange, length, MaxSectionLength)
	}

	out := make([]byte, sectionHeaderSize, sectionHeaderSize+length)
	out[0] = s.TableID
	out[1] = 0x30 | byte(length>>8)&0x0F
	out[2] = byte(length)
	if s.PrivateIndicator {
		out[1] |= 0x40
	}
	if s.Extension == nil {
		return append(out, s.Payload...), nil
	}

	x := s.Extension
	if x.Version > 0x1F {
		return nil, fmt.Errorf("%w: version_number %d does not fit in 5 bits", ErrFieldRange, x.Version)
	}
	out[1] |= 0x80
	out = binary.BigEndian.AppendUint16(out, x.TableIDExtension)
	vb := 0xC0 | x.Version<<1
	if x.CurrentNextIndicator {
		vb |= 0x01
	}
	out = append(out, vb, x.SectionNumber, x.LastSectionNumber)
	out = append(out, s.Payload...)
	return binary.BigEndian.AppendUint32(out, CRC32(out)), nil
}

// EncodeExtendedSection encodes a long-form section.
func EncodeExtendedSection(s ExtendedSection) ([]byte, error) {
	x := s.Extension
	return EncodeSection(Section{TableID: s.TableID, Extension: &x, Payload: s.Payload})
}
