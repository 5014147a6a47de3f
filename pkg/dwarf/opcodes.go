package dwarf

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode is a single DWARF expression operation (DW_OP_*).
type Opcode byte

// Memory access
const (
	OpDeref     Opcode = 0x06 // pop address, push word at address
	OpDerefSize Opcode = 0x94 // pop address, push N bytes at address (8-bit size)
)

// Constants
const (
	OpConst1u Opcode = 0x08 // push unsigned 8-bit constant
	OpConst2u Opcode = 0x0a // push unsigned 16-bit constant
	OpConst8u Opcode = 0x0e // push unsigned 64-bit constant
)

// Stack operations
const (
	OpDup  Opcode = 0x12 // duplicate top of stack
	OpDrop Opcode = 0x13 // discard top of stack
	OpSwap Opcode = 0x16 // swap top two entries
	OpRot  Opcode = 0x17 // rotate top three entries
)

// Arithmetic
const (
	OpMinus Opcode = 0x1c // pop b, pop a, push a - b
	OpMul   Opcode = 0x1e // pop two, push product
	OpPlus  Opcode = 0x22 // pop two, push sum
)

// Comparison
const (
	OpEq Opcode = 0x29 // pop two, push 1 if equal else 0
	OpNe Opcode = 0x2e // pop two, push 1 if not equal else 0
)

// Control flow
const (
	OpBra  Opcode = 0x28 // pop, branch if nonzero (signed 16-bit offset)
	OpSkip Opcode = 0x2f // unconditional branch (signed 16-bit offset)
)

// Registers
const (
	OpReg0  Opcode = 0x50 // DW_OP_reg0; DW_OP_regN is OpReg0 + N for N < 32
	OpReg31 Opcode = 0x6f
	OpRegx  Opcode = 0x90 // register number as ULEB128
)

// CompactRegisters is the number of registers addressable with a single-byte
// DW_OP_regN opcode.
const CompactRegisters = 32

// MaxRegister is the highest DWARF register number the encoders accept.
const MaxRegister = 48

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OperandKind describes how an opcode's operand is laid out in the stream.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandU8
	OperandU16
	OperandU64
	OperandI16
	OperandULEB
)

// String returns a short name for the operand kind.
func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandU8:
		return "u8"
	case OperandU16:
		return "u16"
	case OperandU64:
		return "u64"
	case OperandI16:
		return "i16"
	case OperandULEB:
		return "uleb128"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string      // DWARF name
	Operand     OperandKind // operand encoding
	StackEffect int         // net effect on stack
}

// opcodeTable maps opcodes to their metadata. The DW_OP_regN family is
// handled separately in Info.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpDeref:     {"DW_OP_deref", OperandNone, 0},
	OpDerefSize: {"DW_OP_deref_size", OperandU8, 0},

	OpConst1u: {"DW_OP_const1u", OperandU8, 1},
	OpConst2u: {"DW_OP_const2u", OperandU16, 1},
	OpConst8u: {"DW_OP_const8u", OperandU64, 1},

	OpDup:  {"DW_OP_dup", OperandNone, 1},
	OpDrop: {"DW_OP_drop", OperandNone, -1},
	OpSwap: {"DW_OP_swap", OperandNone, 0},
	OpRot:  {"DW_OP_rot", OperandNone, 0},

	OpMinus: {"DW_OP_minus", OperandNone, -1},
	OpMul:   {"DW_OP_mul", OperandNone, -1},
	OpPlus:  {"DW_OP_plus", OperandNone, -1},

	OpEq: {"DW_OP_eq", OperandNone, -1},
	OpNe: {"DW_OP_ne", OperandNone, -1},

	OpBra:  {"DW_OP_bra", OperandI16, -1},
	OpSkip: {"DW_OP_skip", OperandI16, 0},

	OpRegx: {"DW_OP_regx", OperandULEB, 1},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if op.IsCompactReg() {
		return OpcodeInfo{Name: fmt.Sprintf("DW_OP_reg%d", op-OpReg0), Operand: OperandNone, StackEffect: 1}
	}
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Known reports whether op is part of the supported instruction set.
func (op Opcode) Known() bool {
	if op.IsCompactReg() {
		return true
	}
	_, ok := opcodeTable[op]
	return ok
}

// IsCompactReg reports whether op is one of DW_OP_reg0..DW_OP_reg31.
func (op Opcode) IsCompactReg() bool {
	return op >= OpReg0 && op <= OpReg31
}

// IsBranch reports whether op carries a relative branch offset.
func (op Opcode) IsBranch() bool {
	return op == OpBra || op == OpSkip
}

// Name returns the DWARF name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// AllOpcodes returns every supported opcode, including each DW_OP_regN.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeTable)+CompactRegisters)
	for op := range opcodeTable {
		ops = append(ops, op)
	}
	for op := OpReg0; op <= OpReg31; op++ {
		ops = append(ops, op)
	}
	return ops
}
