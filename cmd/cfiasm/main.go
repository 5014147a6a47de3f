// cfiasm assembles the RPN evaluator DWARF expression and prints it as an
// assembler directive.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/cfiasm/manifest"
	"github.com/chazu/cfiasm/pkg/artifact"
	"github.com/chazu/cfiasm/pkg/program"
	"github.com/chazu/cfiasm/pkg/store"
)

var log = commonlog.GetLogger("cfiasm")

func main() {
	configPath := flag.String("config", "", "Path to cfiasm.toml (default: search upward from the working directory)")
	format := flag.String("format", "", "Output format: directive, listing, cbor")
	directive := flag.String("directive", "", "Directive name to emit (e.g. .cfi_escape)")
	output := flag.String("o", "", "Write output to file instead of stdout")
	dbPath := flag.String("db", "", "Record the artifact in this SQLite database")
	raw := flag.Bool("raw", false, "Emit the bare expression without the DW_CFA_val_expression wrapper")
	list := flag.Bool("list", false, "List artifacts recorded in the -db database and exit")
	verbosity := flag.Int("v", 0, "Log verbosity (1 = info, 2 = debug)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cfiasm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Assembles the RPN evaluator DWARF expression and prints it as a directive.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cfiasm                        # .cfi_escape line for the default program\n")
		fmt.Fprintf(os.Stderr, "  cfiasm -format listing        # annotated disassembly\n")
		fmt.Fprintf(os.Stderr, "  cfiasm -raw -directive .byte  # bare expression bytes\n")
		fmt.Fprintf(os.Stderr, "  cfiasm -db builds.db          # also record the build\n")
		fmt.Fprintf(os.Stderr, "  cfiasm -db builds.db -list    # show recorded builds\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	m, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if set["format"] {
		m.Output.Format = *format
	}
	if set["directive"] {
		m.Output.Directive = *directive
	}
	if set["raw"] {
		m.Output.Raw = *raw
	}
	if set["db"] {
		m.Store.Path = *dbPath
	}
	if err := manifest.Validate(m); err != nil {
		fatal(err)
	}

	if *list {
		if err := listArtifacts(os.Stdout, m.Store.Path); err != nil {
			fatal(err)
		}
		return
	}

	art, err := build(m)
	if err != nil {
		fatal(err)
	}

	if m.Store.Path != "" {
		if err := record(m.Store.Path, art); err != nil {
			fatal(err)
		}
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		w = f
	}
	if err := write(w, m.Output.Format, art); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadConfig reads the explicit config file, or searches for one.
func loadConfig(path string) (*manifest.Manifest, error) {
	if path != "" {
		return manifest.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m.Path != "" {
		log.Infof("using %s", m.Path)
	}
	return m, nil
}

// build assembles the program described by m.
func build(m *manifest.Manifest) (*artifact.Artifact, error) {
	params := program.Params{
		Register:     m.Program.Register,
		BaseRegister: m.Program.BaseRegister,
		BufferOffset: m.Program.BufferOffset,
	}
	res, err := program.Build(params)
	if err != nil {
		return nil, err
	}
	log.Info("assembled", "name", m.Program.Name, "expression", len(res.Expression), "block", len(res.Block))

	block := res.Block
	if m.Output.Raw {
		block = nil
	}
	return artifact.New(m.Program.Name, m.Output.Directive, params.Register, res.Expression, block, res.Labels), nil
}

// write renders the artifact in the requested format.
func write(w io.Writer, format string, art *artifact.Artifact) error {
	switch format {
	case manifest.FormatDirective:
		_, err := fmt.Fprintln(w, art.Render())
		return err
	case manifest.FormatListing:
		listing, err := art.Listing()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "; %s: %d bytes, sha256 %x\n", art.Name, len(art.Expression), art.Hash); err != nil {
			return err
		}
		_, err = io.WriteString(w, listing)
		return err
	case manifest.FormatCBOR:
		data, err := artifact.Marshal(art)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// record saves the artifact to the database at path.
func record(path string, art *artifact.Artifact) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(art)
}

// listArtifacts prints the artifacts recorded at path.
func listArtifacts(w io.Writer, path string) error {
	if path == "" {
		return fmt.Errorf("-list needs a database (-db or [store] path)")
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%.12s  %-16s %4d bytes  %s\n", e.Hash, e.Name, e.Size, e.Created.Format("2006-01-02 15:04:05"))
	}
	return nil
}
