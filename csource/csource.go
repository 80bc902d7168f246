// Package csource holds the formatting pieces every generated C artifact
// shares: license comment, autogenerated banner, include guards, wrapped
// initializer lists and identifier checks.
package csource

import (
	"fmt"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s can be used verbatim as a C identifier.
// Anything that passes is also safe inside a string literal.
func IsIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// Quote renders s as a C string literal. Callers only pass identifiers,
// so no escaping is needed beyond the quotes.
func Quote(s string) string {
	return `"` + s + `"`
}

// Comment wraps text in a block comment, one " * " prefixed line per line
// of text. Empty text yields an empty string.
func Comment(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("/*\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString(" *\n")
			continue
		}
		b.WriteString(" * ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(" */\n")
	return b.String()
}

// Banner is the do-not-edit notice placed at the top of every artifact.
// source names the spec file the artifact was generated from.
func Banner(generator, source string) string {
	return Comment(fmt.Sprintf("WARNING: THIS FILE IS AUTOGENERATED! DO NOT EDIT.\nGenerated by %s from %s.", generator, source))
}

// GuardOpen starts an include guard.
func GuardOpen(guard string) string {
	return fmt.Sprintf("#ifndef %s\n#define %s\n", guard, guard)
}

// GuardClose ends an include guard.
func GuardClose(guard string) string {
	return fmt.Sprintf("#endif /* %s */\n", guard)
}

// Includes renders one #include per entry. Entries already wrapped in
// quotes or angle brackets are used as is; bare paths get angle brackets.
func Includes(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		if !strings.HasPrefix(p, "<") && !strings.HasPrefix(p, `"`) {
			p = "<" + p + ">"
		}
		fmt.Fprintf(&b, "#include %s\n", p)
	}
	return b.String()
}

// WrapList fills the comma-separated items of an initializer list into
// lines: every line starts with indent and no line exceeds width unless a
// single item is wider. A comma stays on the line of the item it follows.
func WrapList(items []string, indent string, width int) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	line := indent
	empty := true
	for i, item := range items {
		word := item
		if i < len(items)-1 {
			word += ","
		}
		if !empty && len(line)+1+len(word) > width {
			b.WriteString(line)
			b.WriteString("\n")
			line = indent
			empty = true
		}
		if !empty {
			line += " "
		}
		line += word
		empty = false
	}
	b.WriteString(line)
	return b.String()
}

// Array renders a complete C array definition:
//
//	decl = {
//	    a, b, c
//	};
func Array(decl string, items []string, width int) string {
	var b strings.Builder
	b.WriteString(decl)
	b.WriteString(" = {\n")
	if body := WrapList(items, "    ", width); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	b.WriteString("};\n")
	return b.String()
}
