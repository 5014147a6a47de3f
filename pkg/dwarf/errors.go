package dwarf

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	ErrTruncated     = errors.New("dwarf: truncated expression")
	ErrOverflow      = errors.New("dwarf: ULEB128 value overflows 64 bits")
	ErrUnknownOpcode = errors.New("dwarf: unknown opcode")
)

// OperandRangeError reports an encoder operand outside its documented domain.
// It always indicates a bug in the caller composing the expression.
type OperandRangeError struct {
	Op      string // instruction name
	Operand string // operand name, e.g. "size" or "offset"
	Value   int64
	Min     int64
	Max     int64
}

func (e *OperandRangeError) Error() string {
	return fmt.Sprintf("dwarf: %s %s %d out of range [%d, %d]", e.Op, e.Operand, e.Value, e.Min, e.Max)
}

// IsOperandRange reports whether err is, or wraps, an *OperandRangeError.
func IsOperandRange(err error) bool {
	var re *OperandRangeError
	return errors.As(err, &re)
}

func checkRange(op, operand string, v, lo, hi int64) error {
	if v < lo || v > hi {
		return &OperandRangeError{Op: op, Operand: operand, Value: v, Min: lo, Max: hi}
	}
	return nil
}
