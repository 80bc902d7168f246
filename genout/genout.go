// Package genout writes generated artifacts all-or-nothing: every file is
// staged next to its destination and only renamed into place once all of
// them have been written. A failed commit puts the previous files back, so
// a build never sees a half-written output set.
package genout

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/vmgen/specfile"
)

var log = commonlog.GetLogger("vmgen.output")

// File is one artifact and its final location.
type File struct {
	Path string
	Data []byte
}

// Options controls Commit.
type Options struct {
	// PreserveUnchanged leaves a destination alone when it already holds
	// the exact bytes, keeping its modification time.
	PreserveUnchanged bool
}

type staged struct {
	File
	tmp       string
	unchanged bool
}

// Stage holds artifacts written to temporary files but not yet in place.
// Discard may be called from another goroutine (an exit handler).
type Stage struct {
	mu      sync.Mutex
	opts    Options
	entries []*staged
	done    bool
}

// NewStage returns an empty stage.
func NewStage(opts Options) *Stage {
	return &Stage{opts: opts}
}

// Add writes f to a temporary file in its destination directory.
func (s *Stage) Add(f File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return errors.New("stage already committed or discarded")
	}
	for _, e := range s.entries {
		if e.Path == f.Path {
			return fmt.Errorf("%s staged twice", f.Path)
		}
	}

	entry := &staged{File: f}
	if s.opts.PreserveUnchanged {
		if existing, err := os.ReadFile(f.Path); err == nil && bytes.Equal(existing, f.Data) {
			entry.unchanged = true
			s.entries = append(s.entries, entry)
			return nil
		}
	}

	tmp, err := writeTemp(f, ".tmp")
	if err != nil {
		return specfile.IO(f.Path, err)
	}
	entry.tmp = tmp
	s.entries = append(s.entries, entry)
	return nil
}

func writeTemp(f File, suffix string) (string, error) {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*"+suffix)
	if err != nil {
		return "", err
	}
	name := tmp.Name()

	_, err = tmp.Write(f.Data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(name, 0o644)
	}
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// Commit renames every staged file into place. If any rename fails the
// destinations already replaced get their previous content back, files that
// did not exist before are removed again, and every temporary file is
// cleaned up.
func (s *Stage) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return errors.New("stage already committed or discarded")
	}
	s.done = true

	var replaced []replacement
	for i, e := range s.entries {
		if e.unchanged {
			continue
		}
		backup, err := backupFile(e.Path)
		if err == nil {
			err = os.Rename(e.tmp, e.Path)
			if err != nil && backup != "" {
				os.Remove(backup)
			}
		}
		if err != nil {
			restore(replaced)
			removeTemps(s.entries[i:])
			return specfile.IO(e.Path, err)
		}
		e.tmp = ""
		replaced = append(replaced, replacement{path: e.Path, backup: backup})
	}

	for _, r := range replaced {
		if r.backup != "" {
			if err := os.Remove(r.backup); err != nil {
				log.Warningf("cannot remove %s: %v", r.backup, err)
			}
		}
	}
	for _, e := range s.entries {
		if e.unchanged {
			log.Infof("%s unchanged", e.Path)
		} else {
			log.Infof("wrote %s (%d bytes)", e.Path, len(e.Data))
		}
	}
	return nil
}

// replacement is a destination Commit has overwritten. backup is empty
// when the destination did not exist.
type replacement struct {
	path   string
	backup string
}

// backupFile copies path to a temporary file beside it and returns the
// copy's name, or "" when path does not exist.
func backupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return writeTemp(File{Path: path, Data: data}, ".bak")
}

func restore(replaced []replacement) {
	for i := len(replaced) - 1; i >= 0; i-- {
		r := replaced[i]
		var err error
		if r.backup == "" {
			err = os.Remove(r.path)
		} else {
			err = os.Rename(r.backup, r.path)
		}
		if err != nil {
			log.Errorf("cannot restore %s: %v", r.path, err)
		}
	}
}

// Discard removes every staged temporary file. It is safe to call more
// than once and after Commit.
func (s *Stage) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}
	s.done = true
	removeTemps(s.entries)
}

func removeTemps(entries []*staged) {
	for _, e := range entries {
		if e.tmp == "" {
			continue
		}
		if err := os.Remove(e.tmp); err != nil && !os.IsNotExist(err) {
			log.Warningf("cannot remove %s: %v", e.tmp, err)
		}
		e.tmp = ""
	}
}

// Stale returns the paths whose on-disk content differs from files,
// including paths that do not exist yet.
func Stale(files []File) ([]string, error) {
	var stale []string
	for _, f := range files {
		existing, err := os.ReadFile(f.Path)
		if err != nil {
			if os.IsNotExist(err) {
				stale = append(stale, f.Path)
				continue
			}
			return nil, specfile.IO(f.Path, err)
		}
		if !bytes.Equal(existing, f.Data) {
			stale = append(stale, f.Path)
		}
	}
	return stale, nil
}
