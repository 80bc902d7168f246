// Package ifacegen parses interface spec files and generates the C
// definitions and declarations that install built-in interface objects.
package ifacegen

import (
	"slices"
	"strings"
)

// Model is the in-memory representation of one interface spec file.
type Model struct {
	Source     string      // spec file name, used in banners and diagnostics
	Interfaces []Interface // declaration order
}

// Interface is a named interface and its methods.
type Interface struct {
	Name    string
	Methods []string // declaration order, duplicates preserved
	Line    int      // line the interface was declared on
}

// Symbol is the title-cased name used for the generated struct and alias.
func (i Interface) Symbol() string {
	return TitleCase(i.Name)
}

// StructName is the generated struct object, e.g. "Object_Iterator_struct".
func (i Interface) StructName() string {
	return "Object_" + i.Symbol() + "_struct"
}

// AliasName is the macro that references the struct as a t_object pointer.
func (i Interface) AliasName() string {
	return "Object_" + i.Symbol()
}

// InitFunc is the per-interface initializer, e.g. "object_iterator_init".
func (i Interface) InitFunc() string {
	return "object_" + i.Name + "_init"
}

// FiniFunc is the per-interface teardown routine.
func (i Interface) FiniFunc() string {
	return "object_" + i.Name + "_fini"
}

// Lookup returns the interface with the given name.
func (m *Model) Lookup(name string) (Interface, bool) {
	for _, iface := range m.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// FiniOrder returns the interfaces in reverse lexicographic order of name,
// the order the runtime expects teardown in. This is not the reverse of
// declaration order.
func (m *Model) FiniOrder() []Interface {
	out := slices.Clone(m.Interfaces)
	slices.SortFunc(out, func(a, b Interface) int {
		return strings.Compare(b.Name, a.Name)
	})
	return out
}

// MethodCount returns the total number of method registrations.
func (m *Model) MethodCount() int {
	n := 0
	for _, iface := range m.Interfaces {
		n += len(iface.Methods)
	}
	return n
}
