package asm

import (
	"fmt"

	"github.com/chazu/cfiasm/pkg/dwarf"
)

// RelocKind identifies the label-relative instruction form emitted at a
// reference site. The resolver dispatches on it to produce bytes once the
// target address is known.
type RelocKind uint8

const (
	// RelocBranchIfNonzero emits DW_OP_bra to the label.
	RelocBranchIfNonzero RelocKind = iota + 1

	// RelocSkip emits DW_OP_skip to the label.
	RelocSkip
)

// relocEncoders maps each kind to an encoder for a relative offset. Every
// entry must produce the same number of bytes for any offset it accepts.
var relocEncoders = map[RelocKind]func(offset int) ([]byte, error){
	RelocBranchIfNonzero: dwarf.Bra,
	RelocSkip:            dwarf.Skip,
}

// String returns a human-readable name for the kind.
func (k RelocKind) String() string {
	switch k {
	case RelocBranchIfNonzero:
		return "bra"
	case RelocSkip:
		return "skip"
	default:
		return fmt.Sprintf("RelocKind(%d)", k)
	}
}

// encode produces the instruction for a reference to target whose next
// instruction starts at next. The relative offset is target - next.
func (k RelocKind) encode(target, next int) ([]byte, error) {
	enc, ok := relocEncoders[k]
	if !ok {
		return nil, fmt.Errorf("asm: unknown relocation kind %d", uint8(k))
	}
	return enc(target - next)
}

// placeholder produces the bytes reserved at a forward reference site. The
// zero addresses are stand-ins used only to measure the encoded length.
func (k RelocKind) placeholder() ([]byte, error) {
	return k.encode(0, 0)
}
