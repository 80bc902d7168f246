// Package specfile holds what both generators share before their models
// diverge: the line scanner and the error taxonomy.
package specfile

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a generation failure.
type Kind int

const (
	MalformedSpec Kind = iota + 1 // unparseable line or unusable name
	DuplicateKey                  // two entities claim the same identity
	RangeError                    // opcode value outside a byte
	IOError                       // cannot read spec or write outputs
)

func (k Kind) String() string {
	switch k {
	case MalformedSpec:
		return "malformed spec"
	case DuplicateKey:
		return "duplicate key"
	case RangeError:
		return "range error"
	case IOError:
		return "i/o error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a located generation failure. Line and Text are zero when the
// failure is not tied to a single source line.
type Error struct {
	Kind Kind
	File string
	Line int
	Text string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Text != "" {
		fmt.Fprintf(&b, ": %q", e.Text)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Malformed reports an unparseable line.
func Malformed(file string, line Line, format string, args ...any) *Error {
	return &Error{Kind: MalformedSpec, File: file, Line: line.Number, Text: line.Raw, Msg: fmt.Sprintf(format, args...)}
}

// Duplicate reports a second declaration of an identity first seen on
// line first.
func Duplicate(file string, line Line, first int, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if first > 0 {
		msg = fmt.Sprintf("%s (first declared on line %d)", msg, first)
	}
	return &Error{Kind: DuplicateKey, File: file, Line: line.Number, Text: line.Raw, Msg: msg}
}

// OutOfRange reports a value the generated tables cannot represent.
func OutOfRange(file string, line Line, format string, args ...any) *Error {
	return &Error{Kind: RangeError, File: file, Line: line.Number, Text: line.Raw, Msg: fmt.Sprintf(format, args...)}
}

// IO wraps a filesystem failure on path.
func IO(path string, err error) *Error {
	return &Error{Kind: IOError, File: path, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// ExitCode maps an error to the process exit status: 0 for nil, 2 for
// I/O failures, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if KindOf(err) == IOError {
		return 2
	}
	return 1
}
