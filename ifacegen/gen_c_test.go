package ifacegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/chazu/vmgen/specfile"
)

// TestFixtures runs every testdata/*.txtar archive. An archive holds an
// interfaces.dat spec plus either an "error" file with the expected
// diagnostic or the expected interfaces.c / interfaces.h output.
// Run with UPDATE_GOLDEN=1 to rewrite the expected outputs.
func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found")
	}

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("parsing fixture: %v", err)
			}
			files := archiveFiles(ar)

			spec, ok := files["interfaces.dat"]
			if !ok {
				t.Fatal("fixture has no interfaces.dat")
			}

			defs, decls, err := generateFixture(spec)
			if want, ok := files["error"]; ok {
				if err == nil {
					t.Fatalf("expected error %q, got none", strings.TrimSpace(string(want)))
				}
				if err.Error() != strings.TrimSpace(string(want)) {
					t.Errorf("error = %q\nwant    %q", err.Error(), strings.TrimSpace(string(want)))
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			if os.Getenv("UPDATE_GOLDEN") != "" {
				setArchiveFile(ar, "interfaces.c", defs)
				setArchiveFile(ar, "interfaces.h", decls)
				if err := os.WriteFile(path, txtar.Format(ar), 0o644); err != nil {
					t.Fatalf("updating fixture: %v", err)
				}
				return
			}

			if want, ok := files["interfaces.c"]; ok && string(want) != defs {
				t.Errorf("definitions differ from fixture.\ngot:\n%s\nwant:\n%s", defs, want)
			}
			if want, ok := files["interfaces.h"]; ok && string(want) != decls {
				t.Errorf("declarations differ from fixture.\ngot:\n%s\nwant:\n%s", decls, want)
			}
		})
	}
}

// generateFixture parses spec and renders both artifacts with the default
// options, stopping at the first error.
func generateFixture(spec []byte) (defs, decls string, err error) {
	model, err := Parse("interfaces.dat", spec, ParseOptions{})
	if err != nil {
		return "", "", err
	}
	opts := DefaultOptions()
	if defs, err = GenerateDefinitions(model, opts); err != nil {
		return "", "", err
	}
	if decls, err = GenerateDeclarations(model, opts); err != nil {
		return "", "", err
	}
	return defs, decls, nil
}

func archiveFiles(ar *txtar.Archive) map[string][]byte {
	files := make(map[string][]byte, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = f.Data
	}
	return files
}

func setArchiveFile(ar *txtar.Archive, name, content string) {
	for i := range ar.Files {
		if ar.Files[i].Name == name {
			ar.Files[i].Data = []byte(content)
			return
		}
	}
	ar.Files = append(ar.Files, txtar.File{Name: name, Data: []byte(content)})
}

func parseOrFail(t *testing.T, spec string) *Model {
	t.Helper()
	model, err := Parse("interfaces.dat", []byte(spec), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return model
}

func TestGenerateDefinitions_MethodOrder(t *testing.T) {
	model := parseOrFail(t, "iterator\n    current\n    next\n    rewind\n")

	code, err := GenerateDefinitions(model, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateDefinitions: %v", err)
	}

	var registered []string
	for _, line := range strings.Split(code, "\n") {
		if !strings.Contains(line, "object_add_internal_method(") {
			continue
		}
		if !strings.Contains(line, "&Object_Iterator_struct") {
			t.Errorf("method registered against wrong struct: %s", line)
		}
		start := strings.Index(line, `"`)
		end := strings.Index(line[start+1:], `"`)
		registered = append(registered, line[start+1:start+1+end])
	}

	want := []string{"current", "next", "rewind"}
	if strings.Join(registered, ",") != strings.Join(want, ",") {
		t.Errorf("registered methods = %v, want %v", registered, want)
	}
}

func TestGenerateDefinitions_TeardownOrder(t *testing.T) {
	model := parseOrFail(t, "iterator\n    next\ndatastructure\nhashable\n    hash\n")

	code, err := GenerateDefinitions(model, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateDefinitions: %v", err)
	}

	initBody := functionBody(t, code, "void object_interfaces_init(void) {")
	wantInit := "    object_iterator_init();\n    object_datastructure_init();\n    object_hashable_init();\n"
	if initBody != wantInit {
		t.Errorf("init body =\n%s\nwant\n%s", initBody, wantInit)
	}

	finiBody := functionBody(t, code, "void object_interfaces_fini(void) {")
	wantFini := "    object_iterator_fini();\n    object_hashable_fini();\n    object_datastructure_fini();\n"
	if finiBody != wantFini {
		t.Errorf("fini body =\n%s\nwant\n%s", finiBody, wantFini)
	}
}

func functionBody(t *testing.T, code, opening string) string {
	t.Helper()
	start := strings.Index(code, opening)
	if start < 0 {
		t.Fatalf("missing %q", opening)
	}
	rest := code[start+len(opening)+1:]
	end := strings.Index(rest, "}\n")
	return rest[:end]
}

func TestGenerateDeclarations_SymbolsMatchDefinitions(t *testing.T) {
	model := parseOrFail(t, "iterator\n    next\nutf8string\n    length\n")

	defs, err := GenerateDefinitions(model, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateDefinitions: %v", err)
	}
	decls, err := GenerateDeclarations(model, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateDeclarations: %v", err)
	}

	for _, sym := range []string{"Object_Iterator_struct", "Object_Utf8String_struct"} {
		if !strings.Contains(defs, "t_interface_object "+sym+" = {") {
			t.Errorf("definitions missing struct %s", sym)
		}
		if !strings.Contains(decls, "extern t_interface_object "+sym+";") {
			t.Errorf("declarations missing struct %s", sym)
		}
	}
}

func TestGenerate_EmptyModel(t *testing.T) {
	model := &Model{Source: "empty.dat"}

	defs, err := GenerateDefinitions(model, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateDefinitions: %v", err)
	}
	if !strings.Contains(defs, "void object_interfaces_init(void) {\n}\n") {
		t.Error("expected empty init entry point")
	}
	if !strings.Contains(defs, "void object_interfaces_fini(void) {\n}\n") {
		t.Error("expected empty fini entry point")
	}
}

func TestGenerate_CustomOptions(t *testing.T) {
	model := parseOrFail(t, "iterator\n    next\n")
	opts := DefaultOptions()
	opts.InitFunc = "builtin_interfaces_init"
	opts.Guard = "BUILTIN_INTERFACES_H"
	opts.License = "/*\n * Copyright\n */\n"

	decls, err := GenerateDeclarations(model, opts)
	if err != nil {
		t.Fatalf("GenerateDeclarations: %v", err)
	}
	if !strings.HasPrefix(decls, "/*\n * Copyright\n */\n\n#ifndef BUILTIN_INTERFACES_H\n") {
		t.Errorf("unexpected header start:\n%s", decls)
	}
	if !strings.Contains(decls, "void builtin_interfaces_init(void);") {
		t.Error("expected custom init prototype")
	}

	opts.FiniFunc = "not valid"
	if _, err := GenerateDefinitions(model, opts); err == nil {
		t.Error("expected error for invalid entry point name")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	spec := "iterator\n    next\ndatastructure\n    length\nhashable\n    hash\n"

	first, err := GenerateDefinitions(parseOrFail(t, spec), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := GenerateDefinitions(parseOrFail(t, spec), DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("run %d produced different output", i)
		}
	}
}

func TestGenerate_EntryPointCollision(t *testing.T) {
	model := parseOrFail(t, "iterator\n    next\nbuiltin\n    hash\n")
	opts := DefaultOptions()
	opts.FiniFunc = "object_builtin_fini"

	for name, generate := range map[string]func(*Model, Options) (string, error){
		"definitions":  GenerateDefinitions,
		"declarations": GenerateDeclarations,
	} {
		_, err := generate(model, opts)
		if err == nil {
			t.Fatalf("%s: expected collision with object_builtin_fini", name)
		}
		if specfile.KindOf(err) != specfile.DuplicateKey {
			t.Errorf("%s: kind = %v, want duplicate key", name, specfile.KindOf(err))
		}
		if !strings.HasPrefix(err.Error(), "interfaces.dat:3: ") {
			t.Errorf("%s: error %q should point at the builtin declaration", name, err)
		}
	}

	opts = DefaultOptions()
	opts.InitFunc = "builtin_interfaces_init"
	opts.FiniFunc = "builtin_interfaces_init"
	if _, err := GenerateDefinitions(model, opts); err == nil {
		t.Error("expected error when init and fini entry points share a name")
	}

	clash := parseOrFail(t, "interfaces\n    next\n")
	opts = DefaultOptions()
	opts.InitFunc = "builtin_interfaces_init"
	opts.FiniFunc = "builtin_interfaces_fini"
	if _, err := GenerateDefinitions(clash, opts); err != nil {
		t.Errorf("renamed entry points should avoid the collision: %v", err)
	}
}
