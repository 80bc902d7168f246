package ifacegen

import (
	"testing"

	"github.com/chazu/vmgen/specfile"
)

func TestParse_Basic(t *testing.T) {
	spec := `# Built-in interfaces
iterator
    current
    next

	# indented comments are skipped too
datastructure
	length
`
	model, err := Parse("interfaces.dat", []byte(spec), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(model.Interfaces) != 2 {
		t.Fatalf("got %d interfaces, want 2", len(model.Interfaces))
	}

	it := model.Interfaces[0]
	if it.Name != "iterator" || it.Line != 2 {
		t.Errorf("first interface = %+v, want iterator on line 2", it)
	}
	if len(it.Methods) != 2 || it.Methods[0] != "current" || it.Methods[1] != "next" {
		t.Errorf("iterator methods = %v, want [current next]", it.Methods)
	}

	ds, ok := model.Lookup("datastructure")
	if !ok {
		t.Fatal("datastructure not found")
	}
	if len(ds.Methods) != 1 || ds.Methods[0] != "length" {
		t.Errorf("datastructure methods = %v, want [length]", ds.Methods)
	}
	if model.MethodCount() != 3 {
		t.Errorf("MethodCount = %d, want 3", model.MethodCount())
	}
}

func TestParse_DuplicateMethodWarns(t *testing.T) {
	model, err := Parse("interfaces.dat", []byte("iterator\n  next\n  next\n"), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	it := model.Interfaces[0]
	if len(it.Methods) != 2 || it.Methods[0] != "next" || it.Methods[1] != "next" {
		t.Errorf("methods = %v, want both registrations kept", it.Methods)
	}
}

func TestParse_DuplicateMethodStrict(t *testing.T) {
	_, err := Parse("interfaces.dat", []byte("iterator\n  next\n  next\n"), ParseOptions{StrictMethods: true})
	if err == nil {
		t.Fatal("expected error")
	}
	if specfile.KindOf(err) != specfile.DuplicateKey {
		t.Errorf("kind = %v, want duplicate key", specfile.KindOf(err))
	}
}

func TestParse_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		spec string
		kind specfile.Kind
		line int
	}{
		{"orphan method", "  next\n", specfile.MalformedSpec, 1},
		{"bad interface name", "my-iface\n", specfile.MalformedSpec, 1},
		{"bad method name", "iterator\n  next()\n", specfile.MalformedSpec, 2},
		{"duplicate interface", "a\nb\na\n", specfile.DuplicateKey, 3},
		{"case collision", "iterator\nIterator\n", specfile.DuplicateKey, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("interfaces.dat", []byte(tt.spec), ParseOptions{})
			if err == nil {
				t.Fatal("expected error")
			}
			se, ok := err.(*specfile.Error)
			if !ok {
				t.Fatalf("error type = %T, want *specfile.Error", err)
			}
			if se.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", se.Kind, tt.kind)
			}
			if se.Line != tt.line {
				t.Errorf("line = %d, want %d", se.Line, tt.line)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	model, err := Parse("interfaces.dat", []byte("# nothing here\n\n"), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(model.Interfaces) != 0 {
		t.Errorf("got %d interfaces, want 0", len(model.Interfaces))
	}
}
