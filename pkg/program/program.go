// Package program builds the string-evaluating DWARF expression: starting
// from an address derived from a machine register, it walks a NUL-terminated
// buffer of digits and '+'/'*' tokens in reverse Polish notation and leaves
// the result on the expression stack.
package program

import (
	"fmt"
	"math"

	"github.com/chazu/cfiasm/pkg/asm"
	"github.com/chazu/cfiasm/pkg/dwarf"
)

// Label names used by the evaluator.
const (
	LabelLoopStart   = "LOOP_START"
	LabelPlusEnd     = "PLUS_END"
	LabelMulEnd      = "MUL_END"
	LabelLoopFinally = "LOOP_FINALLY"
	LabelOutOfLoop   = "OUT_OF_LOOP"
)

// Params configures the generated program.
type Params struct {
	// Register is the DWARF register whose value rule is set by the
	// DW_CFA_val_expression wrapper.
	Register int

	// BaseRegister holds the address the buffer offset is relative to.
	BaseRegister int

	// BufferOffset is the distance from BaseRegister to the input buffer.
	// It depends on the linked binary.
	BufferOffset uint64
}

// DefaultParams returns the x86-64 defaults: the return address column (15)
// computed from RIP (16).
func DefaultParams() Params {
	return Params{
		Register:     15,
		BaseRegister: 16,
		BufferOffset: 0x2E5C,
	}
}

// Result is a built program.
type Result struct {
	Expression []byte         // the bare DWARF expression
	Block      []byte         // Expression wrapped in DW_CFA_val_expression
	Labels     map[string]int // label addresses within Expression
}

// builder keeps the first error so the program reads as a straight list of
// instructions.
type builder struct {
	a   *asm.Assembler
	err error
}

func (b *builder) op(code []byte) {
	b.emit(code, nil)
}

func (b *builder) emit(code []byte, err error) {
	if b.err != nil {
		return
	}
	b.err = b.a.Emit(code, err)
}

func (b *builder) label(name string) {
	if b.err != nil {
		return
	}
	b.err = b.a.DefineLabel(name)
}

func (b *builder) bra(name string) {
	if b.err != nil {
		return
	}
	b.err = b.a.Branch(name)
}

func (b *builder) skip(name string) {
	if b.err != nil {
		return
	}
	b.err = b.a.Skip(name)
}

// BuildProgram emits the evaluator into a. The caller finalizes a.
func BuildProgram(a *asm.Assembler, p Params) error {
	b := &builder{a: a}

	// Discard the CFA pushed by the unwinder.
	b.op(dwarf.Drop())

	// ptr = reg + offset
	b.emit(dwarf.Reg(p.BaseRegister))
	if p.BufferOffset <= math.MaxUint16 {
		b.emit(dwarf.Const2u(int(p.BufferOffset)))
	} else {
		b.op(dwarf.Const8u(p.BufferOffset))
	}
	b.op(dwarf.Plus())

	b.label(LabelLoopStart)
	b.op(dwarf.Dup())
	b.emit(dwarf.DerefSize(1))

	// *ptr == '\0' -> done
	b.op(dwarf.Dup())
	b.emit(dwarf.Const1u(0))
	b.op(dwarf.Eq())
	b.bra(LabelOutOfLoop)

	// *ptr != '+' -> try '*'
	b.op(dwarf.Dup())
	b.emit(dwarf.Const1u('+'))
	b.op(dwarf.Ne())
	b.bra(LabelPlusEnd)

	b.op(dwarf.Drop())
	b.op(dwarf.Rot())
	b.op(dwarf.Plus())
	b.op(dwarf.Swap())
	b.skip(LabelLoopFinally)

	b.label(LabelPlusEnd)
	// *ptr != '*' -> digit
	b.op(dwarf.Dup())
	b.emit(dwarf.Const1u('*'))
	b.op(dwarf.Ne())
	b.bra(LabelMulEnd)

	b.op(dwarf.Drop())
	b.op(dwarf.Rot())
	b.op(dwarf.Mul())
	b.op(dwarf.Swap())
	b.skip(LabelLoopFinally)

	b.label(LabelMulEnd)
	// digit: push *ptr - '0'
	b.emit(dwarf.Const1u('0'))
	b.op(dwarf.Minus())
	b.op(dwarf.Swap())

	b.label(LabelLoopFinally)
	b.emit(dwarf.Const1u(1))
	b.op(dwarf.Plus())
	b.skip(LabelLoopStart)

	b.label(LabelOutOfLoop)
	b.op(dwarf.Drop())
	b.op(dwarf.Drop())

	return b.err
}

// Build assembles the evaluator on a fresh assembler and wraps it for
// p.Register.
func Build(p Params) (*Result, error) {
	a := asm.New()
	if err := BuildProgram(a, p); err != nil {
		return nil, fmt.Errorf("building program: %w", err)
	}
	expr, err := a.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalizing program: %w", err)
	}
	block, err := dwarf.ValExpression(p.Register, expr)
	if err != nil {
		return nil, fmt.Errorf("wrapping program: %w", err)
	}
	return &Result{
		Expression: expr,
		Block:      block,
		Labels:     a.Labels(),
	}, nil
}
