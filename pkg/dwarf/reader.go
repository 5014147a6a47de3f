package dwarf

import "encoding/binary"

// ExprReader reads a DWARF expression for decoding or disassembly.
type ExprReader struct {
	code []byte
	pos  int
}

// NewExprReader creates a reader over code.
func NewExprReader(code []byte) *ExprReader {
	return &ExprReader{code: code}
}

// Position returns the current read position.
func (r *ExprReader) Position() int {
	return r.pos
}

// HasMore returns true if there are more bytes to read.
func (r *ExprReader) HasMore() bool {
	return r.pos < len(r.code)
}

// ReadOpcode reads the next opcode.
func (r *ExprReader) ReadOpcode() (Opcode, error) {
	b, err := r.ReadByte()
	return Opcode(b), err
}

// ReadByte reads a single byte operand.
func (r *ExprReader) ReadByte() (byte, error) {
	if r.pos >= len(r.code) {
		return 0, ErrTruncated
	}
	b := r.code[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 reads a little-endian 16-bit operand.
func (r *ExprReader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.code) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint16(r.code[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadInt16 reads a signed little-endian 16-bit operand.
func (r *ExprReader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint64 reads a little-endian 64-bit operand.
func (r *ExprReader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.code) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(r.code[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadULEB128 reads an unsigned LEB128 operand.
func (r *ExprReader) ReadULEB128() (uint64, error) {
	v, n, err := DecodeULEB128(r.code[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// Seek sets the read position.
func (r *ExprReader) Seek(pos int) {
	r.pos = pos
}
