// Package manifest handles vmgen.toml generator configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file FindAndLoad looks for.
const FileName = "vmgen.toml"

// Manifest represents a vmgen.toml configuration.
type Manifest struct {
	License    License    `toml:"license" json:"license"`
	Interfaces Interfaces `toml:"interfaces" json:"interfaces"`
	Opcodes    Opcodes    `toml:"opcodes" json:"opcodes"`
	Output     Output     `toml:"output" json:"output"`

	// Dir is the directory containing the vmgen.toml file (set at load time).
	// Empty for the built-in defaults.
	Dir string `toml:"-" json:"-"`
}

// License configures the notice at the top of every generated file.
type License struct {
	Holder string `toml:"holder" json:"holder"`
	Years  string `toml:"years" json:"years"`
	File   string `toml:"file" json:"file,omitempty"` // verbatim header, relative to Dir
}

// Interfaces configures generate-interfaces.
type Interfaces struct {
	Includes      []string `toml:"includes" json:"includes,omitempty"`
	Guard         string   `toml:"guard" json:"guard"`
	InitFunc      string   `toml:"init-func" json:"init-func"`
	FiniFunc      string   `toml:"fini-func" json:"fini-func"`
	StrictMethods bool     `toml:"strict-methods" json:"strict-methods"`
}

// Opcodes configures generate-opcodes.
type Opcodes struct {
	Prefix      string `toml:"prefix" json:"prefix"`
	Guard       string `toml:"guard" json:"guard"`
	OffsetTable string `toml:"offset-table" json:"offset-table"`
	NameTable   string `toml:"name-table" json:"name-table"`
	IndexTable  string `toml:"index-table" json:"index-table"`
	IndexOrder  string `toml:"index-order" json:"index-order"`
	Wrap        int    `toml:"wrap" json:"wrap"`
}

// Output configures how artifacts are written.
type Output struct {
	PreserveUnchanged *bool `toml:"preserve-unchanged" json:"preserve-unchanged,omitempty"`
}

const (
	defaultHolder     = "The Saffire Group"
	defaultYears      = "2012-2015"
	defaultIndexTable = "vm_codes_index"
)

// Default returns the configuration used when no vmgen.toml exists.
func Default() *Manifest {
	m := &Manifest{
		License: License{Holder: defaultHolder, Years: defaultYears},
		Opcodes: Opcodes{IndexTable: defaultIndexTable},
	}
	m.applyDefaults()
	return m
}

// applyDefaults fills every setting whose zero value is not meaningful.
// Settings where an explicit empty string means "off" (license holder,
// index table) are defaulted by the caller instead.
func (m *Manifest) applyDefaults() {
	if m.Interfaces.Includes == nil {
		m.Interfaces.Includes = []string{"saffire/objects/object.h"}
	}
	if m.Interfaces.Guard == "" {
		m.Interfaces.Guard = "__GENERATED_INTERFACES_H__"
	}
	if m.Interfaces.InitFunc == "" {
		m.Interfaces.InitFunc = "object_interfaces_init"
	}
	if m.Interfaces.FiniFunc == "" {
		m.Interfaces.FiniFunc = "object_interfaces_fini"
	}

	if m.Opcodes.Prefix == "" {
		m.Opcodes.Prefix = "VM_"
	}
	if m.Opcodes.Guard == "" {
		m.Opcodes.Guard = "__VM_GENERATED_OPCODES_H__"
	}
	if m.Opcodes.OffsetTable == "" {
		m.Opcodes.OffsetTable = "vm_codes_offset"
	}
	if m.Opcodes.NameTable == "" {
		m.Opcodes.NameTable = "vm_code_names"
	}
	if m.Opcodes.IndexOrder == "" {
		m.Opcodes.IndexOrder = "code"
	}
	if m.Opcodes.Wrap == 0 {
		m.Opcodes.Wrap = 70
	}

	if m.Output.PreserveUnchanged == nil {
		yes := true
		m.Output.PreserveUnchanged = &yes
	}
}

// Load parses a vmgen.toml file at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	// An explicit empty holder or index-table switches the feature off, so
	// only default them when absent.
	if !md.IsDefined("license", "holder") && !md.IsDefined("license", "file") {
		m.License.Holder = defaultHolder
	}
	if !md.IsDefined("license", "years") {
		m.License.Years = defaultYears
	}
	if !md.IsDefined("opcodes", "index-table") {
		m.Opcodes.IndexTable = defaultIndexTable
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	m.applyDefaults()

	if err := Validate(&m); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a vmgen.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// LicenseText returns the license header text: the contents of
// License.File when set, otherwise empty (the caller renders the template
// from Holder and Years).
func (m *Manifest) LicenseText() (string, error) {
	if m.License.File == "" {
		return "", nil
	}
	path := m.License.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read license file: %w", err)
	}
	return string(data), nil
}
