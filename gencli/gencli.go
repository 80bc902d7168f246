// Package gencli is the command-line driver shared by generate-interfaces
// and generate-opcodes: flag handling, configuration lookup, logging setup,
// all-or-nothing output and the optional generation record.
package gencli

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/vmgen/csource"
	"github.com/chazu/vmgen/genout"
	"github.com/chazu/vmgen/manifest"
	"github.com/chazu/vmgen/record"
	"github.com/chazu/vmgen/specfile"
)

var log = commonlog.GetLogger("vmgen.cli")

// Exit codes beyond those of specfile.ExitCode.
const (
	ExitStale       = 3
	exitInterrupted = 2
)

// Main runs g with the process arguments and exits. Staged outputs are
// removed if the process is interrupted.
func Main(g Generator) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		fmt.Fprintf(os.Stderr, "%s: %s, aborting\n", g.Name, sig)
		atexit.Exit(exitInterrupted)
	}()

	atexit.Exit(Run(g, os.Args[1:], os.Stderr))
}

type flags struct {
	config  string
	verbose bool
	check   bool
	record  string
}

// Run executes one generator invocation and returns the process exit code.
func Run(g Generator, args []string, stderr io.Writer) int {
	var f flags
	fs := flag.NewFlagSet(g.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "configuration file (default: nearest "+manifest.FileName+" above the spec)")
	fs.BoolVar(&f.verbose, "v", false, "verbose logging")
	fs.BoolVar(&f.check, "check", false, "report stale outputs without writing them")
	fs.StringVar(&f.record, "record", "", "generation record; skip work when inputs and outputs are unchanged")
	fs.Usage = func() { usage(g, fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return 1
	}

	verbosity := 0
	if f.verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	specPath, defsPath, declsPath := fs.Arg(0), fs.Arg(1), fs.Arg(2)
	if err := run(g, f, specPath, defsPath, declsPath, stderr); err != nil {
		if code, ok := err.(exitError); ok {
			return int(code)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return specfile.ExitCode(err)
	}
	return 0
}

func usage(g Generator, fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [flags] <spec-file> <definitions-out>.c <declarations-out>.h\n", g.Name)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0  success")
	fmt.Fprintln(w, "  1  invalid spec, usage or configuration")
	fmt.Fprintln(w, "  2  I/O failure")
	fmt.Fprintln(w, "  3  -check found stale outputs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example:")
	fmt.Fprintf(w, "  %s\n", g.Example)
}

// exitError ends a run with a specific code and no further message.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit %d", int(e)) }

func run(g Generator, f flags, specPath, defsPath, declsPath string, stderr io.Writer) error {
	spec, err := os.ReadFile(specPath)
	if err != nil {
		return specfile.IO(specPath, err)
	}

	cfg, err := loadConfig(f.config, filepath.Dir(specPath))
	if err != nil {
		return err
	}
	license, err := licenseComment(cfg)
	if err != nil {
		return err
	}

	specArtifact := record.NewArtifact(specPath, spec)
	configDigest, err := digestConfig(cfg, license)
	if err != nil {
		return err
	}

	if f.record != "" && !f.check {
		prev, err := record.Load(f.record)
		if err != nil {
			log.Warningf("ignoring record %s: %v", f.record, err)
		} else if prev != nil {
			ok, why := prev.Matches(g.Name, specArtifact, configDigest, []string{defsPath, declsPath})
			if ok {
				log.Noticef("%s: outputs up to date", specPath)
				return nil
			}
			log.Infof("%s: regenerating, %s", specPath, why)
		}
	}

	defs, decls, err := g.render(request{
		specPath:  specPath,
		spec:      spec,
		declsPath: declsPath,
		config:    cfg,
		license:   license,
	})
	if err != nil {
		return err
	}

	files := []genout.File{
		{Path: defsPath, Data: []byte(defs)},
		{Path: declsPath, Data: []byte(decls)},
	}

	if f.check {
		stale, err := genout.Stale(files)
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		for _, path := range stale {
			fmt.Fprintf(stderr, "%s: stale\n", path)
		}
		return exitError(ExitStale)
	}

	stage := genout.NewStage(genout.Options{PreserveUnchanged: cfg.Output.Preserve()})
	id := atexit.Register(stage.Discard)
	defer id.Cancel()
	defer stage.Discard()

	for _, file := range files {
		if err := stage.Add(file); err != nil {
			return err
		}
	}

	if f.record != "" {
		rec := &record.Record{
			Version:   record.Version,
			Generator: g.Name,
			Spec:      specArtifact,
			Config:    configDigest,
		}
		for _, file := range files {
			rec.Outputs = append(rec.Outputs, record.NewArtifact(file.Path, file.Data))
		}
		data, err := record.Marshal(rec)
		if err != nil {
			return err
		}
		if err := stage.Add(genout.File{Path: f.record, Data: data}); err != nil {
			return err
		}
	}

	return stage.Commit()
}

// loadConfig reads an explicit configuration file, else the nearest
// vmgen.toml above dir, else the built-in defaults.
func loadConfig(explicit, dir string) (*manifest.Manifest, error) {
	if explicit != "" {
		return manifest.Load(explicit)
	}
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		log.Debugf("no %s found, using defaults", manifest.FileName)
		return manifest.Default(), nil
	}
	log.Debugf("using %s", filepath.Join(m.Dir, manifest.FileName))
	return m, nil
}

// licenseComment renders the license notice as a C comment, or "" when
// the license is switched off. Text that would close the comment early is
// rejected.
func licenseComment(m *manifest.Manifest) (string, error) {
	text, err := m.LicenseText()
	if err != nil {
		return "", err
	}
	if text == "" {
		for _, field := range []string{m.License.Holder, m.License.Years} {
			if strings.Contains(field, "*/") {
				return "", fmt.Errorf("license holder and years must not contain \"*/\": %q", field)
			}
		}
		return csource.License(m.License.Holder, m.License.Years), nil
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/*") {
		if !strings.HasSuffix(trimmed, "*/") || strings.Count(trimmed, "*/") != 1 {
			return "", fmt.Errorf("license file %s: must be a single block comment", m.License.File)
		}
		return strings.TrimRight(text, "\n") + "\n", nil
	}
	if strings.Contains(text, "*/") {
		return "", fmt.Errorf("license file %s: text must not contain \"*/\"", m.License.File)
	}
	return csource.Comment(text), nil
}

// digestConfig hashes everything besides the spec that shapes the output.
func digestConfig(m *manifest.Manifest, license string) (record.Digest, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return record.Digest{}, fmt.Errorf("encode configuration: %w", err)
	}
	buf.WriteString(license)
	return record.Sum(buf.Bytes()), nil
}
