// Package cfi renders assembled bytes as assembler directives such as
// ".cfi_escape 22, 15, 3, ...".
package cfi

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultDirective is the GNU as directive that copies raw bytes into the
// call frame information of the current function.
const DefaultDirective = ".cfi_escape"

// Directive renders payload as "<name> <d0>, <d1>, ..., <dn>" with each byte
// in decimal. An empty payload renders as the bare name.
func Directive(name string, payload []byte) string {
	var sb strings.Builder
	sb.Grow(len(name) + 1 + len(payload)*5)
	sb.WriteString(name)
	for i, b := range payload {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(int(b)))
	}
	return sb.String()
}

// Escape renders payload with the default .cfi_escape directive.
func Escape(payload []byte) string {
	return Directive(DefaultDirective, payload)
}

// WriteDirective writes the rendered directive followed by a newline.
func WriteDirective(w io.Writer, name string, payload []byte) error {
	_, err := io.WriteString(w, Directive(name, payload)+"\n")
	return err
}

// ParseDirective parses a line produced by Directive.
func ParseDirective(line string) (string, []byte, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	if name == "" {
		return "", nil, fmt.Errorf("cfi: empty directive")
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return name, nil, nil
	}

	fields := strings.Split(rest, ",")
	payload := make([]byte, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return "", nil, fmt.Errorf("cfi: byte %d of %s: %w", i, name, err)
		}
		payload = append(payload, byte(v))
	}
	return name, payload, nil
}
