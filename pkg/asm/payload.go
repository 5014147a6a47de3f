package asm

// Payload is the append-only byte buffer an Assembler emits into. The only
// in-place mutation allowed is overwriting a region previously handed out by
// Reserve, and only with exactly as many bytes as were reserved.
type Payload struct {
	code     []byte
	reserved map[int]int // placeholder offset -> length, until patched
}

// NewPayload creates an empty payload.
func NewPayload() *Payload {
	return &Payload{
		code:     make([]byte, 0, 64),
		reserved: make(map[int]int),
	}
}

// Append extends the buffer and returns the offset the bytes were written at.
func (p *Payload) Append(b []byte) int {
	offset := len(p.code)
	p.code = append(p.code, b...)
	return offset
}

// Reserve appends placeholder bytes and records them as a patchable region.
// Returns the offset of the region.
func (p *Payload) Reserve(placeholder []byte) int {
	offset := p.Append(placeholder)
	p.reserved[offset] = len(placeholder)
	return offset
}

// PatchInPlace overwrites the reserved region at offset with b. The region is
// released afterwards, so each reservation can be patched exactly once.
func (p *Payload) PatchInPlace(offset int, b []byte) error {
	size, ok := p.reserved[offset]
	if !ok || size != len(b) {
		return &LengthMismatchError{Offset: offset, Want: size, Got: len(b)}
	}
	copy(p.code[offset:offset+size], b)
	delete(p.reserved, offset)
	return nil
}

// Len returns the current length, which is also the address of the next
// byte to be appended.
func (p *Payload) Len() int {
	return len(p.code)
}

// Bytes returns the buffer contents. The result is capacity-clipped so
// appending to it never writes into the payload.
func (p *Payload) Bytes() []byte {
	return p.code[:len(p.code):len(p.code)]
}

// Reserved returns the number of regions still awaiting a patch.
func (p *Payload) Reserved() int {
	return len(p.reserved)
}
