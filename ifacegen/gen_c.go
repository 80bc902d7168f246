package ifacegen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/vmgen/csource"
	"github.com/chazu/vmgen/specfile"
)

const generatorName = "generate-interfaces"

// Options controls the shape of the generated C.
type Options struct {
	License  string   // rendered license comment, may be empty
	Includes []string // headers the artifacts include
	Guard    string   // include guard of the declarations header
	InitFunc string   // aggregate initializer
	FiniFunc string   // aggregate teardown
	Header   string   // #include line the definitions use for the declarations, e.g. "interfaces.h"
}

// DefaultOptions returns the options matching the runtime's hand-written
// code.
func DefaultOptions() Options {
	return Options{
		Includes: []string{"saffire/objects/object.h"},
		Guard:    "__GENERATED_INTERFACES_H__",
		InitFunc: "object_interfaces_init",
		FiniFunc: "object_interfaces_fini",
		Header:   "interfaces.h",
	}
}

func (o Options) validate() error {
	for _, name := range []string{o.Guard, o.InitFunc, o.FiniFunc} {
		if !csource.IsIdentifier(name) {
			return fmt.Errorf("invalid C identifier %q in options", name)
		}
	}
	if o.InitFunc == o.FiniFunc {
		return fmt.Errorf("init and fini entry points are both named %q", o.InitFunc)
	}
	return nil
}

// checkEntryPoints rejects an interface whose own init or fini routine
// would carry the name of an aggregate entry point.
func checkEntryPoints(m *Model, opts Options) error {
	for _, iface := range m.Interfaces {
		for _, fn := range []string{iface.InitFunc(), iface.FiniFunc()} {
			if fn != opts.InitFunc && fn != opts.FiniFunc {
				continue
			}
			return &specfile.Error{
				Kind: specfile.DuplicateKey,
				File: m.Source,
				Line: iface.Line,
				Msg:  fmt.Sprintf("interface %q generates %s, which is also an entry point", iface.Name, fn),
			}
		}
	}
	return nil
}

func preamble(b *strings.Builder, opts Options, source string) {
	if opts.License != "" {
		b.WriteString(opts.License)
		b.WriteString("\n")
	}
	b.WriteString(csource.Banner(generatorName, filepath.Base(source)))
	b.WriteString("\n")
}

// GenerateDefinitions renders the C source that initializes and tears down
// every interface object.
func GenerateDefinitions(m *Model, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if err := checkEntryPoints(m, opts); err != nil {
		return "", err
	}

	var b strings.Builder
	preamble(&b, opts, m.Source)

	b.WriteString("#include <stdio.h>\n")
	b.WriteString(csource.Includes(opts.Includes))
	if opts.Header != "" {
		b.WriteString(csource.Includes([]string{csource.Quote(opts.Header)}))
	}
	b.WriteString("\n")

	for _, iface := range m.Interfaces {
		writeInterface(&b, iface)
	}

	fmt.Fprintf(&b, "void %s(void) {\n", opts.InitFunc)
	for _, iface := range m.Interfaces {
		fmt.Fprintf(&b, "    %s();\n", iface.InitFunc())
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "void %s(void) {\n", opts.FiniFunc)
	for _, iface := range m.FiniOrder() {
		fmt.Fprintf(&b, "    %s();\n", iface.FiniFunc())
	}
	b.WriteString("}\n")

	return b.String(), nil
}

func writeInterface(b *strings.Builder, iface Interface) {
	obj := "(t_object *)&" + iface.StructName()

	fmt.Fprintf(b, "static void %s(void) {\n", iface.InitFunc())
	fmt.Fprintf(b, "    %s.attributes = ht_create();\n", iface.StructName())
	for _, method := range iface.Methods {
		fmt.Fprintf(b, "    object_add_internal_method(%s, %s, ATTRIB_METHOD_STATIC, ATTRIB_VISIBILITY_PUBLIC, NULL);\n",
			obj, csource.Quote(method))
	}
	fmt.Fprintf(b, "    vm_populate_builtins(%s, %s);\n", csource.Quote(iface.Name), obj)
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "static void %s(void) {\n", iface.FiniFunc())
	fmt.Fprintf(b, "    object_free_internal_object(%s);\n", obj)
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "t_interface_object %s = {\n", iface.StructName())
	fmt.Fprintf(b, "    OBJECT_HEAD_INIT(%s, objectTypeBase, OBJECT_TYPE_INTERFACE|OBJECT_FLAG_IMMUTABLE, NULL, 0),\n",
		csource.Quote(iface.Symbol()))
	b.WriteString("};\n\n")
}

// GenerateDeclarations renders the header declaring every interface
// object, its alias macro and the two aggregate entry points.
func GenerateDeclarations(m *Model, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if err := checkEntryPoints(m, opts); err != nil {
		return "", err
	}

	var b strings.Builder
	if opts.License != "" {
		b.WriteString(opts.License)
		b.WriteString("\n")
	}
	b.WriteString(csource.GuardOpen(opts.Guard))
	b.WriteString("\n")
	b.WriteString(csource.Banner(generatorName, filepath.Base(m.Source)))
	b.WriteString("\n")
	b.WriteString(csource.Includes(opts.Includes))
	b.WriteString("\n")

	b.WriteString("typedef struct {\n")
	b.WriteString("    SAFFIRE_OBJECT_HEADER;\n")
	b.WriteString("} t_interface_object;\n\n")

	for _, iface := range m.Interfaces {
		fmt.Fprintf(&b, "/* %s */\n", iface.Name)
		fmt.Fprintf(&b, "extern t_interface_object %s;\n", iface.StructName())
		fmt.Fprintf(&b, "#define %s ((t_object *)&%s)\n\n", iface.AliasName(), iface.StructName())
	}

	fmt.Fprintf(&b, "void %s(void);\n", opts.InitFunc)
	fmt.Fprintf(&b, "void %s(void);\n\n", opts.FiniFunc)
	b.WriteString(csource.GuardClose(opts.Guard))

	return b.String(), nil
}
