package ifacegen

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/vmgen/csource"
	"github.com/chazu/vmgen/specfile"
)

var log = commonlog.GetLogger("vmgen.interfaces")

// ParseOptions controls how strictly a spec is checked.
type ParseOptions struct {
	// StrictMethods rejects a method declared twice in one interface
	// instead of warning about it.
	StrictMethods bool
}

// Parse reads an interface spec. file names the spec in diagnostics.
//
// Grammar: blank lines and lines starting with '#' are skipped; an
// unindented line declares an interface; every indented line after it adds
// a method to that interface.
func Parse(file string, data []byte, opts ParseOptions) (*Model, error) {
	model := &Model{Source: file}

	bySymbol := make(map[string]int) // derived symbol -> index into Interfaces
	current := -1

	for _, line := range specfile.Scan(data) {
		if line.Blank() || line.Comment("#") {
			continue
		}

		if !line.Indented {
			name := line.Text
			if !csource.IsIdentifier(name) {
				return nil, specfile.Malformed(file, line, "interface name %q is not a valid identifier", name)
			}
			if prev, ok := model.Lookup(name); ok {
				return nil, specfile.Duplicate(file, line, prev.Line, "interface %q declared twice", name)
			}
			iface := Interface{Name: name, Line: line.Number}
			if idx, ok := bySymbol[iface.Symbol()]; ok {
				prev := model.Interfaces[idx]
				return nil, specfile.Duplicate(file, line, prev.Line,
					"interface %q and %q both generate symbol %s", prev.Name, name, iface.StructName())
			}

			model.Interfaces = append(model.Interfaces, iface)
			current = len(model.Interfaces) - 1
			bySymbol[iface.Symbol()] = current
			continue
		}

		if current < 0 {
			return nil, specfile.Malformed(file, line, "method declared before any interface")
		}
		method := line.Text
		if !csource.IsIdentifier(method) {
			return nil, specfile.Malformed(file, line, "method name %q is not a valid identifier", method)
		}

		iface := &model.Interfaces[current]
		for _, existing := range iface.Methods {
			if existing != method {
				continue
			}
			if opts.StrictMethods {
				return nil, specfile.Duplicate(file, line, 0, "method %q declared twice in interface %q", method, iface.Name)
			}
			log.Warningf("%s:%d: method %q declared twice in interface %q; both registrations are emitted",
				file, line.Number, method, iface.Name)
			break
		}
		iface.Methods = append(iface.Methods, method)
	}

	log.Debugf("parsed %s: %d interfaces, %d methods", file, len(model.Interfaces), model.MethodCount())
	return model, nil
}
