package psi

import (
	"errors"
	"fmt"
)

var (
	// ErrFraming reports section bytes that disagree with their
	// section_length, or table bodies that do not parse.
	ErrFraming = errors.New("psi: framing error")

	// ErrCRC reports a section whose CRC_32 does not match its contents.
	ErrCRC = errors.New("psi: CRC32 mismatch")

	// ErrFieldRange reports a value that does not fit its wire field on
	// encode.
	ErrFieldRange = errors.New("psi: field out of range")
)

// Reasons a SectionAccumulator rejects a section. They are matched with
// errors.Is against a *ValidationError.
var (
	ErrTableIDMismatch           = errors.New("table id mismatch")
	ErrTableIDExtensionMismatch  = errors.New("table id extension mismatch")
	ErrVersionMismatch           = errors.New("version mismatch")
	ErrLastSectionNumberMismatch = errors.New("last section number mismatch")
	ErrSectionNumberRange        = errors.New("section number greater than last section number")
	ErrDuplicateSection          = errors.New("duplicate section number")
)

// ValidationError is returned when a section cannot join an accumulator.
// The accumulator is left unchanged.
type ValidationError struct {
	Reason error
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("psi: section rejected: %v: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

func reject(reason error, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
