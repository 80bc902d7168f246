package specfile

import "strings"

// Line is one physical line of a spec file.
type Line struct {
	Number   int    // 1-based
	Raw      string // as written, without the line terminator
	Text     string // trimmed of surrounding whitespace
	Indented bool   // Raw starts with a space or tab
}

// Blank reports whether the line carries nothing after trimming.
func (l Line) Blank() bool { return l.Text == "" }

// Comment reports whether the trimmed line starts with marker.
func (l Line) Comment(marker string) bool { return strings.HasPrefix(l.Text, marker) }

// Scan splits data into numbered lines. Both "\n" and "\r\n" terminators
// are accepted; a trailing terminator does not produce an extra line.
func Scan(data []byte) []Line {
	s := string(data)
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	parts := strings.Split(s, "\n")
	lines := make([]Line, 0, len(parts))
	for i, raw := range parts {
		raw = strings.TrimSuffix(raw, "\r")
		lines = append(lines, Line{
			Number:   i + 1,
			Raw:      raw,
			Text:     strings.TrimSpace(raw),
			Indented: len(raw) > 0 && (raw[0] == ' ' || raw[0] == '\t'),
		})
	}
	return lines
}
