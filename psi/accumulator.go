package psi

import "sort"

// SectionAccumulator collects the sections of one table instance until all
// of them have arrived. It is a value: Add returns a new accumulator and
// never modifies the receiver, so a caller may keep or discard any state.
type SectionAccumulator struct {
	identity Identity
	sections []ExtendedSection // arrival order
	seen     [256]bool
}

// NewSectionAccumulator starts an accumulator from the first section of a
// table instance.
func NewSectionAccumulator(first ExtendedSection) (SectionAccumulator, error) {
	x := first.Extension
	if x.SectionNumber > x.LastSectionNumber {
		return SectionAccumulator{}, reject(ErrSectionNumberRange,
			"section %d, last section %d", x.SectionNumber, x.LastSectionNumber)
	}
	a := SectionAccumulator{
		identity: first.Identity(),
		sections: []ExtendedSection{first},
	}
	a.seen[x.SectionNumber] = true
	return a, nil
}

// Identity returns the identity shared by every held section.
func (a SectionAccumulator) Identity() Identity { return a.identity }

// Len returns the number of distinct sections held.
func (a SectionAccumulator) Len() int { return len(a.sections) }

// Sections returns the held sections in arrival order.
func (a SectionAccumulator) Sections() []ExtendedSection {
	return append([]ExtendedSection(nil), a.sections...)
}

// Add returns a new accumulator holding s as well. The checks run in a fixed
// order: table id, table id extension, version, last section number, section
// number range, duplicate section number. The first failing check is
// returned as a *ValidationError.
func (a SectionAccumulator) Add(s ExtendedSection) (SectionAccumulator, error) {
	id := a.identity
	x := s.Extension
	switch {
	case s.TableID != id.TableID:
		return a, reject(ErrTableIDMismatch, "expected 0x%02X, got 0x%02X", id.TableID, s.TableID)
	case x.TableIDExtension != id.TableIDExtension:
		return a, reject(ErrTableIDExtensionMismatch, "expected %d, got %d", id.TableIDExtension, x.TableIDExtension)
	case x.Version != id.Version:
		return a, reject(ErrVersionMismatch, "expected %d, got %d", id.Version, x.Version)
	case x.LastSectionNumber != id.LastSectionNumber:
		return a, reject(ErrLastSectionNumberMismatch, "expected %d, got %d", id.LastSectionNumber, x.LastSectionNumber)
	case x.SectionNumber > id.LastSectionNumber:
		return a, reject(ErrSectionNumberRange, "section %d, last section %d", x.SectionNumber, id.LastSectionNumber)
	case a.seen[x.SectionNumber]:
		return a, reject(ErrDuplicateSection, "section %d already held", x.SectionNumber)
	}

	next := a
	next.sections = append(a.sections[:len(a.sections):len(a.sections)], s)
	next.seen[x.SectionNumber] = true
	return next, nil
}

// Complete returns the sections ordered by section number once one of each
// number from 0 to the last section number is held.
func (a SectionAccumulator) Complete() ([]ExtendedSection, bool) {
	if len(a.sections) != int(a.identity.LastSectionNumber)+1 {
		return nil, false
	}
	out := append([]ExtendedSection(nil), a.sections...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Extension.SectionNumber < out[j].Extension.SectionNumber
	})
	return out, true
}
