package dwarf

// AppendULEB128 appends v to dst as unsigned LEB128: 7-bit groups, least
// significant first, with the high bit set on every byte except the last.
//
// The output length depends on the magnitude of v, so ULEB128 fields are
// never used for operands that are patched after emission.
func AppendULEB128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// EncodeULEB128 returns the unsigned LEB128 encoding of v.
func EncodeULEB128(v uint64) []byte {
	return AppendULEB128(make([]byte, 0, 2), v)
}

// ULEB128Len returns the number of bytes EncodeULEB128(v) produces.
func ULEB128Len(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

// DecodeULEB128 decodes an unsigned LEB128 value from the start of b and
// returns it with the number of bytes consumed.
func DecodeULEB128(b []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i, c := range b {
		if shift >= 64 || (shift == 63 && c&0x7f > 1) {
			return 0, 0, ErrOverflow
		}
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrTruncated
}
