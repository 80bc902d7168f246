package gencli

import (
	"path/filepath"

	"github.com/chazu/vmgen/ifacegen"
	"github.com/chazu/vmgen/manifest"
	"github.com/chazu/vmgen/opgen"
)

// request carries everything a generator needs for one run.
type request struct {
	specPath  string
	spec      []byte
	declsPath string
	config    *manifest.Manifest
	license   string // rendered comment, may be empty
}

// Generator turns one spec file into a definitions/declarations pair.
type Generator struct {
	Name    string
	Example string
	render  func(req request) (defs, decls string, err error)
}

// Interfaces is the generate-interfaces command.
var Interfaces = Generator{
	Name:    "generate-interfaces",
	Example: "generate-interfaces interfaces.dat src/objects/interfaces.c include/objects/interfaces.h",
	render:  renderInterfaces,
}

// Opcodes is the generate-opcodes command.
var Opcodes = Generator{
	Name:    "generate-opcodes",
	Example: "generate-opcodes vm_codes.dat src/vm/opcodes.c include/vm/opcodes.h",
	render:  renderOpcodes,
}

func renderInterfaces(req request) (string, string, error) {
	cfg := req.config.Interfaces

	model, err := ifacegen.Parse(req.specPath, req.spec, ifacegen.ParseOptions{StrictMethods: cfg.StrictMethods})
	if err != nil {
		return "", "", err
	}
	log.Infof("%s: %d interfaces, %d methods", req.specPath, len(model.Interfaces), model.MethodCount())

	opts := ifacegen.Options{
		License:  req.license,
		Includes: cfg.Includes,
		Guard:    cfg.Guard,
		InitFunc: cfg.InitFunc,
		FiniFunc: cfg.FiniFunc,
		Header:   filepath.Base(req.declsPath),
	}
	defs, err := ifacegen.GenerateDefinitions(model, opts)
	if err != nil {
		return "", "", err
	}
	decls, err := ifacegen.GenerateDeclarations(model, opts)
	if err != nil {
		return "", "", err
	}
	return defs, decls, nil
}

func renderOpcodes(req request) (string, string, error) {
	cfg := req.config.Opcodes

	model, err := opgen.Parse(req.specPath, req.spec)
	if err != nil {
		return "", "", err
	}
	order, err := opgen.ParseIndexOrder(cfg.IndexOrder)
	if err != nil {
		return "", "", err
	}
	tables, err := opgen.BuildTables(model, order)
	if err != nil {
		return "", "", err
	}
	log.Infof("%s: %d opcodes, index ordered by %s", req.specPath, tables.Len(), order)

	opts := opgen.Options{
		License:     req.license,
		Prefix:      cfg.Prefix,
		Guard:       cfg.Guard,
		OffsetTable: cfg.OffsetTable,
		NameTable:   cfg.NameTable,
		IndexTable:  cfg.IndexTable,
		Wrap:        cfg.Wrap,
		Header:      filepath.Base(req.declsPath),
	}
	decls, err := opgen.GenerateDeclarations(tables, opts)
	if err != nil {
		return "", "", err
	}
	defs, err := opgen.GenerateDefinitions(tables, opts)
	if err != nil {
		return "", "", err
	}
	return defs, decls, nil
}
