package asm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFinalized is returned when an assembler is used after Finalize.
var ErrFinalized = errors.New("asm: assembler already finalized")

// UndefinedLabelError is returned when the address of a label is requested
// before the label has been defined.
type UndefinedLabelError struct {
	Label string
}

func (e *UndefinedLabelError) Error() string {
	return fmt.Sprintf("asm: undefined label %q", e.Label)
}

// DuplicateLabelError is returned when a label is defined twice.
type DuplicateLabelError struct {
	Label    string
	Previous int // address of the first definition
	Address  int // address of the rejected definition
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("asm: label %q already defined at %04X (redefined at %04X)", e.Label, e.Previous, e.Address)
}

// UnresolvedLabelError is returned by Finalize when references remain to
// labels that were never defined.
type UnresolvedLabelError struct {
	Labels []string // sorted
}

func (e *UnresolvedLabelError) Error() string {
	quoted := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return "asm: unresolved labels: " + strings.Join(quoted, ", ")
}

// LengthMismatchError means a resolved instruction did not fit the
// placeholder reserved for it. It signals a broken encoder, never bad input.
type LengthMismatchError struct {
	Label  string
	Offset int
	Want   int
	Got    int
}

func (e *LengthMismatchError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("asm: patch at %04X is %d bytes, reserved region is %d", e.Offset, e.Got, e.Want)
	}
	return fmt.Sprintf("asm: reference to %q at %04X encoded to %d bytes, placeholder is %d", e.Label, e.Offset, e.Got, e.Want)
}

// IsUndefinedLabel reports whether err is, or wraps, an *UndefinedLabelError.
func IsUndefinedLabel(err error) bool {
	var e *UndefinedLabelError
	return errors.As(err, &e)
}

// IsDuplicateLabel reports whether err is, or wraps, a *DuplicateLabelError.
func IsDuplicateLabel(err error) bool {
	var e *DuplicateLabelError
	return errors.As(err, &e)
}

// IsUnresolvedLabel reports whether err is, or wraps, an *UnresolvedLabelError.
func IsUnresolvedLabel(err error) bool {
	var e *UnresolvedLabelError
	return errors.As(err, &e)
}

// IsLengthMismatch reports whether err is, or wraps, a *LengthMismatchError.
func IsLengthMismatch(err error) bool {
	var e *LengthMismatchError
	return errors.As(err, &e)
}
