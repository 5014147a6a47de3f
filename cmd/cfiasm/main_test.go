package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/cfiasm/manifest"
	"github.com/chazu/cfiasm/pkg/artifact"
)

func TestBuildAndWrite(t *testing.T) {
	m := manifest.Default()
	art, err := build(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	if err := write(&buf, manifest.FormatDirective, art); err != nil {
		t.Fatalf("write directive: %v", err)
	}
	if !strings.HasPrefix(buf.String(), ".cfi_escape 22, 15, 56, ") || !strings.HasSuffix(buf.String(), ", 19, 19\n") {
		t.Errorf("directive output = %q", buf.String())
	}

	buf.Reset()
	if err := write(&buf, manifest.FormatListing, art); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "; rpn-eval: 56 bytes, sha256 ") {
		t.Errorf("listing header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	buf.Reset()
	if err := write(&buf, manifest.FormatCBOR, art); err != nil {
		t.Fatalf("write cbor: %v", err)
	}
	decoded, err := artifact.Unmarshal(buf.Bytes())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Hash != art.Hash {
		t.Error("cbor output does not decode to the same artifact")
	}

	if err := write(&buf, "hex", art); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestBuildRaw(t *testing.T) {
	m := manifest.Default()
	m.Output.Raw = true
	m.Output.Directive = ".byte"
	art, err := build(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(art.Block) != 0 {
		t.Error("raw build should not carry a block")
	}
	if !strings.HasPrefix(art.Render(), ".byte 19, 96, ") {
		t.Errorf("Render = %q", art.Render())
	}
}

func TestRecordAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "builds.db")
	art, err := build(manifest.Default())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := record(path, art); err != nil {
		t.Fatalf("record: %v", err)
	}

	var buf bytes.Buffer
	if err := listArtifacts(&buf, path); err != nil {
		t.Fatalf("listArtifacts: %v", err)
	}
	if !strings.Contains(buf.String(), "rpn-eval") || !strings.Contains(buf.String(), "59 bytes") {
		t.Errorf("list output = %q", buf.String())
	}

	if err := listArtifacts(&buf, ""); err == nil {
		t.Error("expected error without a database path")
	}
}
