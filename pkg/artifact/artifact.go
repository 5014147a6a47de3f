// Package artifact describes a finished build: the assembled expression, its
// call frame wrapper and label table, addressed by the hash of the emitted
// bytes. Artifacts are exchanged as canonical CBOR.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/chazu/cfiasm/pkg/cfi"
	"github.com/chazu/cfiasm/pkg/dwarf"
)

// ErrHashMismatch is returned by Verify when the content hash does not match
// the emitted bytes.
var ErrHashMismatch = errors.New("artifact: content hash mismatch")

// Artifact is the product of one build.
type Artifact struct {
	Hash       [32]byte       `cbor:"1,keyasint"`
	Name       string         `cbor:"2,keyasint"`
	Register   int            `cbor:"3,keyasint"`
	Directive  string         `cbor:"4,keyasint"`
	Expression []byte         `cbor:"5,keyasint"`           // bare DWARF expression
	Block      []byte         `cbor:"6,keyasint,omitempty"` // DW_CFA_val_expression wrapper, empty for raw builds
	Labels     map[string]int `cbor:"7,keyasint,omitempty"`
}

// New assembles an Artifact and computes its hash. block may be nil for a
// raw build that emits the expression without a wrapper.
func New(name, directive string, register int, expr, block []byte, labels map[string]int) *Artifact {
	a := &Artifact{
		Name:       name,
		Register:   register,
		Directive:  directive,
		Expression: expr,
		Block:      block,
		Labels:     labels,
	}
	a.Hash = ContentHash(a.Emitted())
	return a
}

// ContentHash returns the SHA-256 of the emitted bytes.
func ContentHash(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// Emitted returns the bytes rendered into the directive: the wrapped block,
// or the bare expression for raw builds.
func (a *Artifact) Emitted() []byte {
	if len(a.Block) > 0 {
		return a.Block
	}
	return a.Expression
}

// Render returns the directive line for the artifact.
func (a *Artifact) Render() string {
	return cfi.Directive(a.Directive, a.Emitted())
}

// Listing returns a disassembly of the expression annotated with labels.
func (a *Artifact) Listing() (string, error) {
	return dwarf.DisassembleWithLabels(a.Expression, a.Labels)
}

// Verify checks that the hash matches and that the block, when present,
// wraps the expression for the recorded register.
func (a *Artifact) Verify() error {
	if ContentHash(a.Emitted()) != a.Hash {
		return ErrHashMismatch
	}
	if len(a.Block) == 0 {
		return nil
	}
	reg, expr, err := dwarf.SplitValExpression(a.Block)
	if err != nil {
		return fmt.Errorf("artifact: block: %w", err)
	}
	if reg != a.Register {
		return fmt.Errorf("artifact: block sets register %d, artifact says %d", reg, a.Register)
	}
	if !bytes.Equal(expr, a.Expression) {
		return fmt.Errorf("artifact: block does not wrap the expression")
	}
	return nil
}
