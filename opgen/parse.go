package opgen

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/vmgen/specfile"
)

var log = commonlog.GetLogger("vmgen.opcodes")

var (
	// <MNEMONIC> <VALUE> with an optional trailing "; comment".
	lineRe  = regexp.MustCompile(`^([A-Za-z_0-9]+)[\t ]+(\S+?)[\t ]*(?:;.*)?$`)
	valueRe = regexp.MustCompile(`^(?:0[xX][0-9A-Fa-f]+|[0-9]+)$`)
)

// Parse reads an opcode spec. file names the spec in diagnostics.
//
// Grammar: blank lines and lines starting with ';' are skipped; every other
// line is "<MNEMONIC> <VALUE>", where VALUE is 0x-prefixed hex or decimal.
// The first line that does not fit stops parsing.
func Parse(file string, data []byte) (*Model, error) {
	model := &Model{Source: file}

	for _, line := range specfile.Scan(data) {
		if line.Blank() || line.Comment(";") {
			continue
		}

		match := lineRe.FindStringSubmatch(line.Text)
		if match == nil {
			return nil, specfile.Malformed(file, line, "expected <MNEMONIC> <VALUE>")
		}
		mnemonic, literal := strings.ToUpper(match[1]), match[2]

		code, err := parseValue(file, line, literal)
		if err != nil {
			return nil, err
		}

		op := Opcode{Mnemonic: mnemonic, Code: code, Literal: literal, Line: line.Number}
		if prev, ok := model.ByCode(code); ok {
			return nil, specfile.Duplicate(file, line, prev.Line, "opcode value %s already used by %s", op.Hex(), prev.Mnemonic)
		}
		if prev, ok := model.ByMnemonic(mnemonic); ok {
			return nil, specfile.Duplicate(file, line, prev.Line, "mnemonic %s already declared with value %s", mnemonic, prev.Hex())
		}
		model.Opcodes = append(model.Opcodes, op)
	}

	if len(model.Opcodes) == 0 {
		return nil, &specfile.Error{Kind: specfile.MalformedSpec, File: file, Msg: "no opcodes declared"}
	}

	log.Debugf("parsed %s: %d opcodes", file, len(model.Opcodes))
	return model, nil
}

func parseValue(file string, line specfile.Line, literal string) (byte, error) {
	if !valueRe.MatchString(literal) {
		return 0, specfile.Malformed(file, line, "invalid opcode value %q", literal)
	}

	digits, base := literal, 10
	if len(literal) > 2 && (literal[:2] == "0x" || literal[:2] == "0X") {
		digits, base = literal[2:], 16
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, specfile.OutOfRange(file, line, "opcode value %s does not fit in a byte", literal)
		}
		return 0, specfile.Malformed(file, line, "invalid opcode value %q", literal)
	}
	if v > 0xFF {
		return 0, specfile.OutOfRange(file, line, "opcode value %s does not fit in a byte", literal)
	}
	return byte(v), nil
}
