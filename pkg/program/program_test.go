package program

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/cfiasm/pkg/asm"
	"github.com/chazu/cfiasm/pkg/cfi"
	"github.com/chazu/cfiasm/pkg/dwarf"
)

const defaultEscape = ".cfi_escape 22, 15, 56, 19, 96, 10, 92, 46, 34, 18, 148, 1, 18, 8, 0, 41, 40, 38, 0, " +
	"18, 8, 43, 46, 40, 7, 0, 19, 23, 34, 22, 47, 18, 0, 18, 8, 42, 46, 40, 7, 0, 19, 23, 30, 22, 47, 4, 0, " +
	"8, 48, 28, 22, 8, 1, 34, 47, 208, 255, 19, 19"

func TestBuildDefault(t *testing.T) {
	res, err := Build(DefaultParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := cfi.Escape(res.Block); got != defaultEscape {
		t.Errorf("directive =\n%s\nwant\n%s", got, defaultEscape)
	}
	if len(res.Expression) != 56 {
		t.Errorf("expression length = %d, want 56", len(res.Expression))
	}
	if !bytes.Equal(res.Block[3:], res.Expression) {
		t.Error("block does not end with the expression")
	}
}

func TestBuildDefaultLabels(t *testing.T) {
	res, err := Build(DefaultParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := map[string]int{
		LabelLoopStart:   6,
		LabelPlusEnd:     30,
		LabelMulEnd:      44,
		LabelLoopFinally: 48,
		LabelOutOfLoop:   54,
	}
	if !reflect.DeepEqual(res.Labels, want) {
		t.Errorf("Labels = %v, want %v", res.Labels, want)
	}
}

func TestBranchTargetsMatchLabels(t *testing.T) {
	res, err := Build(DefaultParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	insts, err := dwarf.Decode(res.Expression)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	targets := make(map[int]bool)
	for _, addr := range res.Labels {
		targets[addr] = true
	}
	branches := 0
	for _, in := range insts {
		if !in.Op.IsBranch() {
			continue
		}
		branches++
		if !targets[in.Target()] {
			t.Errorf("%04X %s targets an address with no label", in.Offset, in)
		}
	}
	if branches != 6 {
		t.Errorf("found %d branches, want 6", branches)
	}
}

func TestBuildDeterministic(t *testing.T) {
	first, err := Build(DefaultParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(DefaultParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !bytes.Equal(first.Block, second.Block) {
		t.Error("two builds produced different bytes")
	}
}

func TestBuildParams(t *testing.T) {
	tests := []struct {
		name      string
		params    Params
		exprLen   int
		loopStart int
		prefix    []byte
	}{
		{
			name:      "extended base register",
			params:    Params{Register: 15, BaseRegister: 40, BufferOffset: 0x2E5C},
			exprLen:   57,
			loopStart: 7,
			prefix:    []byte{0x13, 0x90, 0x28, 0x0a, 0x5c, 0x2e},
		},
		{
			name:      "wide buffer offset",
			params:    Params{Register: 15, BaseRegister: 16, BufferOffset: 0x12345},
			exprLen:   62,
			loopStart: 12,
			prefix:    []byte{0x13, 0x60, 0x0e, 0x45, 0x23, 0x01, 0, 0, 0, 0, 0},
		},
		{
			name:      "zero offset",
			params:    Params{Register: 0, BaseRegister: 0, BufferOffset: 0},
			exprLen:   56,
			loopStart: 6,
			prefix:    []byte{0x13, 0x50, 0x0a, 0x00, 0x00},
		},
	}

	for _, tt := range tests {
		res, err := Build(tt.params)
		if err != nil {
			t.Errorf("%s: Build: %v", tt.name, err)
			continue
		}
		if len(res.Expression) != tt.exprLen {
			t.Errorf("%s: expression length = %d, want %d", tt.name, len(res.Expression), tt.exprLen)
		}
		if res.Labels[LabelLoopStart] != tt.loopStart {
			t.Errorf("%s: LOOP_START = %d, want %d", tt.name, res.Labels[LabelLoopStart], tt.loopStart)
		}
		if !bytes.HasPrefix(res.Expression, tt.prefix) {
			t.Errorf("%s: expression starts % x, want % x", tt.name, res.Expression[:len(tt.prefix)], tt.prefix)
		}
		reg, expr, err := dwarf.SplitValExpression(res.Block)
		if err != nil || reg != tt.params.Register || !bytes.Equal(expr, res.Expression) {
			t.Errorf("%s: block does not wrap expression for register %d", tt.name, tt.params.Register)
		}
	}
}

func TestBuildRejectsBadRegisters(t *testing.T) {
	if _, err := Build(Params{Register: 49, BaseRegister: 16}); !dwarf.IsOperandRange(err) {
		t.Errorf("Register 49: err = %v, want OperandRangeError", err)
	}
	if _, err := Build(Params{Register: 15, BaseRegister: 49}); !dwarf.IsOperandRange(err) {
		t.Errorf("BaseRegister 49: err = %v, want OperandRangeError", err)
	}
}

func TestBuildProgramOnSharedAssembler(t *testing.T) {
	a := asm.New()
	if err := a.DefineLabel(LabelLoopStart); err != nil {
		t.Fatal(err)
	}
	err := BuildProgram(a, DefaultParams())
	if !asm.IsDuplicateLabel(err) {
		t.Errorf("err = %v, want DuplicateLabelError", err)
	}
}

func TestListing(t *testing.T) {
	res, err := Build(DefaultParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	listing, err := dwarf.DisassembleWithLabels(res.Expression, res.Labels)
	if err != nil {
		t.Fatalf("DisassembleWithLabels: %v", err)
	}
	for _, want := range []string{
		"LOOP_START:\n0006  DW_OP_dup\n",
		"000D  DW_OP_bra +38 (-> 0036)\n",
		"0033  DW_OP_skip -48 (-> 0006)\n",
		"OUT_OF_LOOP:\n0036  DW_OP_drop\n",
	} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}
