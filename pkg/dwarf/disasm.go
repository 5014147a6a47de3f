package dwarf

import (
	"fmt"
	"sort"
	"strings"
)

// Instruction is one decoded DWARF expression operation.
type Instruction struct {
	Offset  int    // address of the opcode byte
	Len     int    // encoded length including operands
	Op      Opcode
	Operand uint64 // unsigned operand, or the register number for DW_OP_regN/regx
	Delta   int    // branch offset for DW_OP_bra and DW_OP_skip
}

// Next returns the address of the following instruction.
func (in Instruction) Next() int {
	return in.Offset + in.Len
}

// Target returns the branch destination. Only meaningful when Op.IsBranch().
func (in Instruction) Target() int {
	return in.Next() + in.Delta
}

// Register returns the register loaded by DW_OP_regN or DW_OP_regx.
func (in Instruction) Register() (int, bool) {
	if in.Op.IsCompactReg() || in.Op == OpRegx {
		return int(in.Operand), true
	}
	return 0, false
}

// Encode re-encodes the instruction. Register loads come back in their
// canonical form, so a DW_OP_regx naming a register below 32 encodes as
// DW_OP_regN.
func (in Instruction) Encode() ([]byte, error) {
	switch {
	case in.Op.IsCompactReg(), in.Op == OpRegx:
		return Reg(int(in.Operand))
	case in.Op.IsBranch():
		return branch(in.Op, in.Delta)
	}
	switch in.Op.Info().Operand {
	case OperandNone:
		if !in.Op.Known() {
			return nil, fmt.Errorf("%w 0x%02X", ErrUnknownOpcode, byte(in.Op))
		}
		return []byte{byte(in.Op)}, nil
	case OperandU64:
		return Const8u(in.Operand), nil
	}
	switch in.Op {
	case OpConst1u:
		return Const1u(int(in.Operand))
	case OpConst2u:
		return Const2u(int(in.Operand))
	case OpDerefSize:
		return DerefSize(int(in.Operand))
	}
	return nil, fmt.Errorf("%w 0x%02X", ErrUnknownOpcode, byte(in.Op))
}

// DecodeInstruction decodes the instruction at the reader's position and
// advances past it.
func DecodeInstruction(r *ExprReader) (Instruction, error) {
	in := Instruction{Offset: r.Position()}
	op, err := r.ReadOpcode()
	if err != nil {
		return in, err
	}
	in.Op = op

	if op.IsCompactReg() {
		in.Operand = uint64(op - OpReg0)
		in.Len = 1
		return in, nil
	}
	info, ok := opcodeTable[op]
	if !ok {
		return in, fmt.Errorf("%w 0x%02X at %04X", ErrUnknownOpcode, byte(op), in.Offset)
	}

	switch info.Operand {
	case OperandU8:
		var b byte
		b, err = r.ReadByte()
		in.Operand = uint64(b)
	case OperandU16:
		var v uint16
		v, err = r.ReadUint16()
		in.Operand = uint64(v)
	case OperandU64:
		in.Operand, err = r.ReadUint64()
	case OperandI16:
		var d int16
		d, err = r.ReadInt16()
		in.Delta = int(d)
	case OperandULEB:
		in.Operand, err = r.ReadULEB128()
	}
	if err != nil {
		return in, fmt.Errorf("%s at %04X: %w", info.Name, in.Offset, err)
	}
	in.Len = r.Position() - in.Offset
	return in, nil
}

// Decode decodes a complete expression.
func Decode(code []byte) ([]Instruction, error) {
	r := NewExprReader(code)
	var out []Instruction
	for r.HasMore() {
		in, err := DecodeInstruction(r)
		if err != nil {
			return out, err
		}
		out = append(out, in)
	}
	return out, nil
}

// String renders the instruction without its address.
func (in Instruction) String() string {
	name := in.Op.Name()
	switch {
	case in.Op.IsCompactReg():
		return name
	case in.Op.IsBranch():
		return fmt.Sprintf("%s %+d (-> %04X)", name, in.Delta, in.Target())
	case in.Op == OpConst1u:
		if in.Operand >= 0x20 && in.Operand < 0x7f {
			return fmt.Sprintf("%s %d ; %q", name, in.Operand, rune(in.Operand))
		}
		return fmt.Sprintf("%s %d", name, in.Operand)
	case in.Op == OpConst2u, in.Op == OpConst8u:
		return fmt.Sprintf("%s 0x%X", name, in.Operand)
	}
	if in.Op.Info().Operand == OperandNone {
		return name
	}
	return fmt.Sprintf("%s %d", name, in.Operand)
}

// Disassemble returns a human-readable listing of an expression.
func Disassemble(code []byte) (string, error) {
	return DisassembleWithLabels(code, nil)
}

// DisassembleWithLabels returns a listing with "NAME:" lines at each label
// address. Labels at the same address are printed in name order.
func DisassembleWithLabels(code []byte, labels map[string]int) (string, error) {
	byAddr := make(map[int][]string, len(labels))
	for name, addr := range labels {
		byAddr[addr] = append(byAddr[addr], name)
	}
	for _, names := range byAddr {
		sort.Strings(names)
	}

	var sb strings.Builder
	writeLabels := func(addr int) {
		for _, name := range byAddr[addr] {
			sb.WriteString(fmt.Sprintf("%s:\n", name))
		}
	}

	r := NewExprReader(code)
	for r.HasMore() {
		writeLabels(r.Position())
		in, err := DecodeInstruction(r)
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fmt.Sprintf("%04X  %s\n", in.Offset, in))
	}
	writeLabels(len(code))
	return sb.String(), nil
}
