package dwarf

import (
	"encoding/binary"
	"math"
)

// BranchLen is the encoded length of DW_OP_bra and DW_OP_skip. It does not
// depend on the offset, which is what allows branches to be emitted with a
// placeholder and patched once their target is known.
const BranchLen = 3

// ---------------------------------------------------------------------------
// Operand-free instructions
// ---------------------------------------------------------------------------

// Deref encodes DW_OP_deref.
func Deref() []byte { return []byte{byte(OpDeref)} }

// Dup encodes DW_OP_dup.
func Dup() []byte { return []byte{byte(OpDup)} }

// Drop encodes DW_OP_drop.
func Drop() []byte { return []byte{byte(OpDrop)} }

// Swap encodes DW_OP_swap.
func Swap() []byte { return []byte{byte(OpSwap)} }

// Rot encodes DW_OP_rot.
func Rot() []byte { return []byte{byte(OpRot)} }

// Minus encodes DW_OP_minus.
func Minus() []byte { return []byte{byte(OpMinus)} }

// Mul encodes DW_OP_mul.
func Mul() []byte { return []byte{byte(OpMul)} }

// Plus encodes DW_OP_plus.
func Plus() []byte { return []byte{byte(OpPlus)} }

// Eq encodes DW_OP_eq.
func Eq() []byte { return []byte{byte(OpEq)} }

// Ne encodes DW_OP_ne.
func Ne() []byte { return []byte{byte(OpNe)} }

// ---------------------------------------------------------------------------
// Constants and memory access
// ---------------------------------------------------------------------------

// Const1u encodes DW_OP_const1u. v must fit in 8 unsigned bits.
func Const1u(v int) ([]byte, error) {
	if err := checkRange(OpConst1u.Name(), "value", int64(v), 0, math.MaxUint8); err != nil {
		return nil, err
	}
	return []byte{byte(OpConst1u), byte(v)}, nil
}

// Const2u encodes DW_OP_const2u. v must fit in 16 unsigned bits.
func Const2u(v int) ([]byte, error) {
	if err := checkRange(OpConst2u.Name(), "value", int64(v), 0, math.MaxUint16); err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint16([]byte{byte(OpConst2u)}, uint16(v)), nil
}

// Const8u encodes DW_OP_const8u. Every uint64 is in range.
func Const8u(v uint64) []byte {
	return binary.LittleEndian.AppendUint64([]byte{byte(OpConst8u)}, v)
}

// DerefSize encodes DW_OP_deref_size reading size bytes (1 through 8).
func DerefSize(size int) ([]byte, error) {
	if err := checkRange(OpDerefSize.Name(), "size", int64(size), 1, 8); err != nil {
		return nil, err
	}
	return []byte{byte(OpDerefSize), byte(size)}, nil
}

// Reg encodes a register load. Registers below CompactRegisters use the
// single-byte DW_OP_regN form; the rest use DW_OP_regx with a ULEB128
// register number.
func Reg(reg int) ([]byte, error) {
	if err := checkRange(OpRegx.Name(), "register", int64(reg), 0, MaxRegister); err != nil {
		return nil, err
	}
	if reg < CompactRegisters {
		return []byte{byte(OpReg0) + byte(reg)}, nil
	}
	return AppendULEB128([]byte{byte(OpRegx)}, uint64(reg)), nil
}

// ---------------------------------------------------------------------------
// Relative branches
// ---------------------------------------------------------------------------

// Bra encodes DW_OP_bra: pop the top of stack and branch when it is nonzero.
// offset is relative to the address after the instruction.
func Bra(offset int) ([]byte, error) {
	return branch(OpBra, offset)
}

// Skip encodes DW_OP_skip, an unconditional relative branch.
func Skip(offset int) ([]byte, error) {
	return branch(OpSkip, offset)
}

func branch(op Opcode, offset int) ([]byte, error) {
	if err := checkRange(op.Name(), "offset", int64(offset), math.MinInt16, math.MaxInt16); err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint16([]byte{byte(op)}, uint16(int16(offset))), nil
}
