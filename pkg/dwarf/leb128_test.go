package dwarf

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestULEB128Vectors(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{32, []byte{0x20}},
		{48, []byte{0x30}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{129, []byte{0x81, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
		{math.MaxUint64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}

	for _, tt := range tests {
		got := EncodeULEB128(tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeULEB128(%d) = % x, want % x", tt.v, got, tt.want)
		}
		if n := ULEB128Len(tt.v); n != len(tt.want) {
			t.Errorf("ULEB128Len(%d) = %d, want %d", tt.v, n, len(tt.want))
		}

		v, n, err := DecodeULEB128(append(tt.want, 0xAA))
		if err != nil {
			t.Errorf("DecodeULEB128(% x): %v", tt.want, err)
			continue
		}
		if v != tt.v || n != len(tt.want) {
			t.Errorf("DecodeULEB128(% x) = %d, %d; want %d, %d", tt.want, v, n, tt.v, len(tt.want))
		}
	}
}

func TestULEB128ContinuationBits(t *testing.T) {
	enc := EncodeULEB128(1 << 40)
	for i, b := range enc {
		last := i == len(enc)-1
		if last && b&0x80 != 0 {
			t.Errorf("final byte 0x%02X has continuation bit set", b)
		}
		if !last && b&0x80 == 0 {
			t.Errorf("byte %d (0x%02X) is missing continuation bit", i, b)
		}
	}
}

func TestAppendULEB128(t *testing.T) {
	got := AppendULEB128([]byte{byte(OpRegx)}, 40)
	want := []byte{0x90, 0x28}
	if !bytes.Equal(got, want) {
		t.Errorf("AppendULEB128 = % x, want % x", got, want)
	}
}

func TestDecodeULEB128Errors(t *testing.T) {
	if _, _, err := DecodeULEB128(nil); !errors.Is(err, ErrTruncated) {
		t.Errorf("empty input: err = %v, want ErrTruncated", err)
	}
	if _, _, err := DecodeULEB128([]byte{0x80, 0x80}); !errors.Is(err, ErrTruncated) {
		t.Errorf("unterminated input: err = %v, want ErrTruncated", err)
	}
	tooLong := bytes.Repeat([]byte{0xff}, 10)
	tooLong = append(tooLong, 0x01)
	if _, _, err := DecodeULEB128(tooLong); !errors.Is(err, ErrOverflow) {
		t.Errorf("overlong input: err = %v, want ErrOverflow", err)
	}
}
