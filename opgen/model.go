// Package opgen parses opcode spec files and generates the VM's opcode
// lookup tables: symbolic constants, the dense name index and the 256-slot
// offset table that maps a byte to its position in that index.
package opgen

import "fmt"

// Model is the in-memory representation of one opcode spec file.
type Model struct {
	Source  string
	Opcodes []Opcode // declaration order
}

// Opcode is one declared instruction.
type Opcode struct {
	Mnemonic string // upper-cased
	Code     byte
	Literal  string // value as written, e.g. "0x1f" or "31"
	Line     int
}

// Hex formats the code the way every generated artifact spells it.
func (o Opcode) Hex() string {
	return fmt.Sprintf("0x%02X", o.Code)
}

// ByCode returns the opcode declared for code.
func (m *Model) ByCode(code byte) (Opcode, bool) {
	for _, op := range m.Opcodes {
		if op.Code == code {
			return op, true
		}
	}
	return Opcode{}, false
}

// ByMnemonic returns the opcode declared with mnemonic (already upper-cased).
func (m *Model) ByMnemonic(mnemonic string) (Opcode, bool) {
	for _, op := range m.Opcodes {
		if op.Mnemonic == mnemonic {
			return op, true
		}
	}
	return Opcode{}, false
}
