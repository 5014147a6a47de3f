// Package asm is a single-pass symbolic assembler for DWARF expressions.
//
// Instructions are appended in program order. Label-relative instructions
// name their target by string; a reference to a label that is already
// defined is encoded immediately, while a reference to a label defined later
// reserves a placeholder that is patched in place when the label is defined.
// This works without iteration because every label-relative form has a fixed
// encoded length regardless of its offset.
package asm

import (
	"fmt"
	"sort"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("cfiasm.asm")

// patch is a forward reference waiting for its label to be defined.
type patch struct {
	offset int // start of the placeholder
	size   int // placeholder length
	kind   RelocKind
}

// Assembler owns one payload together with its label table and the
// forward references still waiting on undefined labels.
type Assembler struct {
	payload   *Payload
	labels    map[string]int
	pending   map[string][]patch
	finalized bool
}

// New creates an empty assembler.
func New() *Assembler {
	return &Assembler{
		payload: NewPayload(),
		labels:  make(map[string]int),
		pending: make(map[string][]patch),
	}
}

// Append appends an encoded instruction.
func (a *Assembler) Append(code []byte) error {
	if a.finalized {
		return ErrFinalized
	}
	a.payload.Append(code)
	return nil
}

// Emit appends the result of an encoder, so callers can write
// a.Emit(dwarf.Const1u(v)). An encoder error is returned unchanged and
// nothing is appended.
func (a *Assembler) Emit(code []byte, err error) error {
	if err != nil {
		return err
	}
	return a.Append(code)
}

// CurrentAddress returns the address the next instruction will occupy.
func (a *Assembler) CurrentAddress() int {
	return a.payload.Len()
}

// DefineLabel binds name to the current address and patches every forward
// reference waiting on it.
func (a *Assembler) DefineLabel(name string) error {
	if a.finalized {
		return ErrFinalized
	}
	addr := a.CurrentAddress()
	if prev, ok := a.labels[name]; ok {
		return &DuplicateLabelError{Label: name, Previous: prev, Address: addr}
	}
	a.labels[name] = addr
	log.Debug("label defined", "label", name, "address", addr)

	for _, p := range a.pending[name] {
		next := p.offset + p.size
		code, err := p.kind.encode(addr, next)
		if err != nil {
			return fmt.Errorf("asm: %s to %q at %04X: %w", p.kind, name, p.offset, err)
		}
		if len(code) != p.size {
			return &LengthMismatchError{Label: name, Offset: p.offset, Want: p.size, Got: len(code)}
		}
		if err := a.payload.PatchInPlace(p.offset, code); err != nil {
			return err
		}
		log.Debug("patched forward reference", "label", name, "site", p.offset, "offset", addr-next)
	}
	delete(a.pending, name)
	return nil
}

// ResolveReference emits a label-relative instruction of the given kind.
// A defined label is encoded directly. An undefined label gets a placeholder
// of the same length, patched when DefineLabel is called for it.
func (a *Assembler) ResolveReference(name string, kind RelocKind) error {
	if a.finalized {
		return ErrFinalized
	}
	tmp, err := kind.placeholder()
	if err != nil {
		return err
	}

	if addr, ok := a.labels[name]; ok {
		site := a.CurrentAddress()
		next := site + len(tmp)
		code, err := kind.encode(addr, next)
		if err != nil {
			return fmt.Errorf("asm: %s to %q at %04X: %w", kind, name, site, err)
		}
		if len(code) != len(tmp) {
			return &LengthMismatchError{Label: name, Offset: site, Want: len(tmp), Got: len(code)}
		}
		a.payload.Append(code)
		return nil
	}

	offset := a.payload.Reserve(tmp)
	a.pending[name] = append(a.pending[name], patch{offset: offset, size: len(tmp), kind: kind})
	log.Debug("deferred forward reference", "label", name, "site", offset)
	return nil
}

// Branch emits DW_OP_bra to name.
func (a *Assembler) Branch(name string) error {
	return a.ResolveReference(name, RelocBranchIfNonzero)
}

// Skip emits DW_OP_skip to name.
func (a *Assembler) Skip(name string) error {
	return a.ResolveReference(name, RelocSkip)
}

// LabelAddress returns the address name was defined at.
func (a *Assembler) LabelAddress(name string) (int, error) {
	addr, ok := a.labels[name]
	if !ok {
		return 0, &UndefinedLabelError{Label: name}
	}
	return addr, nil
}

// Labels returns a copy of the label table.
func (a *Assembler) Labels() map[string]int {
	out := make(map[string]int, len(a.labels))
	for name, addr := range a.labels {
		out[name] = addr
	}
	return out
}

// Pending returns the sorted names of labels that have been referenced but
// not yet defined.
func (a *Assembler) Pending() []string {
	names := make([]string, 0, len(a.pending))
	for name := range a.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Finalize returns the completed payload. It fails while any referenced
// label is still undefined. After a successful call the assembler rejects
// further changes.
func (a *Assembler) Finalize() ([]byte, error) {
	if pending := a.Pending(); len(pending) > 0 {
		return nil, &UnresolvedLabelError{Labels: pending}
	}
	a.finalized = true
	log.Debug("finalized", "bytes", a.payload.Len(), "labels", len(a.labels))
	return a.payload.Bytes(), nil
}
