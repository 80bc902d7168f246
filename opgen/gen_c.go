package opgen

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/vmgen/csource"
)

const (
	generatorName = "generate-opcodes"
	defineColumn  = 20
)

// Options controls the names and layout of the generated tables.
type Options struct {
	License     string // rendered license comment, may be empty
	Prefix      string // prepended to every mnemonic constant
	Guard       string
	OffsetTable string
	NameTable   string
	IndexTable  string // empty disables the code index array
	Wrap        int    // column width of array initializers
	Header      string // header the definitions include, e.g. "opcodes.h"
}

// DefaultOptions returns the names the runtime's hand-written code links
// against.
func DefaultOptions() Options {
	return Options{
		Prefix:      "VM_",
		Guard:       "__VM_GENERATED_OPCODES_H__",
		OffsetTable: "vm_codes_offset",
		NameTable:   "vm_code_names",
		IndexTable:  "vm_codes_index",
		Wrap:        70,
		Header:      "opcodes.h",
	}
}

func (o Options) validate() error {
	names := []string{o.Prefix, o.Guard, o.OffsetTable, o.NameTable}
	if o.IndexTable != "" {
		names = append(names, o.IndexTable)
	}
	for _, name := range names {
		if !csource.IsIdentifier(name) {
			return fmt.Errorf("invalid C identifier %q in options", name)
		}
	}
	if o.Wrap <= 0 {
		return fmt.Errorf("wrap width must be positive, got %d", o.Wrap)
	}
	return nil
}

// GenerateDeclarations renders the header: one constant per opcode in index
// order followed by the extern declarations of the tables.
func GenerateDeclarations(t *Tables, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	width := defineColumn
	for _, name := range t.Names {
		width = max(width, len(name)+1)
	}

	var b strings.Builder
	if opts.License != "" {
		b.WriteString(opts.License)
		b.WriteString("\n")
	}
	b.WriteString(csource.GuardOpen(opts.Guard))
	b.WriteString("\n")
	b.WriteString(csource.Banner(generatorName, filepath.Base(t.Source)))
	b.WriteString("\n")

	for i, name := range t.Names {
		fmt.Fprintf(&b, "#define %s%-*s0x%02X\n", opts.Prefix, width, name, t.Codes[i])
	}
	b.WriteString("\n")

	if opts.IndexTable != "" {
		fmt.Fprintf(&b, "extern int %s[%d];\n", opts.IndexTable, t.Len())
	}
	fmt.Fprintf(&b, "extern int %s[256];\n", opts.OffsetTable)
	fmt.Fprintf(&b, "extern char *%s[%d];\n\n", opts.NameTable, t.Len())
	b.WriteString(csource.GuardClose(opts.Guard))

	return b.String(), nil
}

// GenerateDefinitions renders the C source holding the table contents.
func GenerateDefinitions(t *Tables, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if err := t.Verify(); err != nil {
		return "", fmt.Errorf("inconsistent tables: %w", err)
	}

	var b strings.Builder
	if opts.License != "" {
		b.WriteString(opts.License)
		b.WriteString("\n")
	}
	b.WriteString(csource.Banner(generatorName, filepath.Base(t.Source)))
	b.WriteString("\n")
	if opts.Header != "" {
		b.WriteString(csource.Includes([]string{csource.Quote(opts.Header)}))
		b.WriteString("\n")
	}

	if opts.IndexTable != "" {
		codes := make([]string, t.Len())
		for i, c := range t.Codes {
			codes[i] = fmt.Sprintf("0x%02X", c)
		}
		b.WriteString(csource.Array(fmt.Sprintf("int %s[%d]", opts.IndexTable, t.Len()), codes, opts.Wrap))
		b.WriteString("\n")
	}

	offsets := make([]string, len(t.Offsets))
	for i, off := range t.Offsets {
		offsets[i] = strconv.Itoa(off)
	}
	b.WriteString(csource.Array(fmt.Sprintf("int %s[256]", opts.OffsetTable), offsets, opts.Wrap))
	b.WriteString("\n")

	names := make([]string, t.Len())
	for i, n := range t.Names {
		names[i] = csource.Quote(n)
	}
	b.WriteString(csource.Array(fmt.Sprintf("char *%s[%d]", opts.NameTable, t.Len()), names, opts.Wrap))

	return b.String(), nil
}
