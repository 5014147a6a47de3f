// Package manifest handles cfiasm.toml build configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "cfiasm.toml"

// Output formats.
const (
	FormatDirective = "directive"
	FormatListing   = "listing"
	FormatCBOR      = "cbor"
)

// Manifest represents a cfiasm.toml configuration.
type Manifest struct {
	Program Program `toml:"program" json:"program"`
	Output  Output  `toml:"output" json:"output"`
	Store   Store   `toml:"store" json:"store"`

	// Path is the file the manifest was loaded from; empty for defaults.
	Path string `toml:"-" json:"-"`
}

// Program configures the generated expression.
type Program struct {
	Name         string `toml:"name" json:"name"`
	Register     int    `toml:"register" json:"register"`
	BaseRegister int    `toml:"base-register" json:"base-register"`
	BufferOffset uint64 `toml:"buffer-offset" json:"buffer-offset"`
}

// Output configures how the result is rendered.
type Output struct {
	Directive string `toml:"directive" json:"directive"`
	Format    string `toml:"format" json:"format"`
	Raw       bool   `toml:"raw" json:"raw"`
}

// Store configures the optional artifact database.
type Store struct {
	Path string `toml:"path" json:"path"`
}

// Default returns the configuration used when no cfiasm.toml exists.
func Default() *Manifest {
	return &Manifest{
		Program: Program{
			Name:         "rpn-eval",
			Register:     15,
			BaseRegister: 16,
			BufferOffset: 0x2E5C,
		},
		Output: Output{
			Directive: ".cfi_escape",
			Format:    FormatDirective,
		},
	}
}

// Load parses cfiasm.toml from the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses and validates a configuration file. Keys missing from the
// file keep their Default values.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	m.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a cfiasm.toml file, then loads
// and returns it. Returns Default() if no file is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}
