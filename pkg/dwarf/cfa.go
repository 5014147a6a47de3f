package dwarf

// CFAValExpression is the DW_CFA_val_expression call frame instruction.
const CFAValExpression byte = 0x16

// ValExpression wraps an expression block in DW_CFA_val_expression, which sets
// the rule for register reg to the value computed by block.
func ValExpression(reg int, block []byte) ([]byte, error) {
	if err := checkRange("DW_CFA_val_expression", "register", int64(reg), 0, MaxRegister); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 2+ULEB128Len(uint64(len(block)))+len(block))
	out = append(out, CFAValExpression)
	out = AppendULEB128(out, uint64(reg))
	out = AppendULEB128(out, uint64(len(block)))
	return append(out, block...), nil
}

// SplitValExpression is the inverse of ValExpression.
func SplitValExpression(b []byte) (reg int, block []byte, err error) {
	if len(b) == 0 {
		return 0, nil, ErrTruncated
	}
	if b[0] != CFAValExpression {
		return 0, nil, ErrUnknownOpcode
	}
	r, n, err := DecodeULEB128(b[1:])
	if err != nil {
		return 0, nil, err
	}
	pos := 1 + n
	size, n, err := DecodeULEB128(b[pos:])
	if err != nil {
		return 0, nil, err
	}
	pos += n
	if uint64(len(b)-pos) < size {
		return 0, nil, ErrTruncated
	}
	return int(r), b[pos : pos+int(size)], nil
}
