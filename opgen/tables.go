package opgen

import (
	"cmp"
	"fmt"
	"slices"
)

// NoOpcode marks an offset table slot with no declared opcode.
const NoOpcode = -1

// IndexOrder selects how the dense index is ordered.
type IndexOrder string

const (
	// IndexByCode orders the index by numeric opcode value.
	IndexByCode IndexOrder = "code"
	// IndexByMnemonic orders the index alphabetically by mnemonic.
	IndexByMnemonic IndexOrder = "mnemonic"
)

// ParseIndexOrder validates an order name from configuration. The empty
// string selects IndexByCode.
func ParseIndexOrder(s string) (IndexOrder, error) {
	switch IndexOrder(s) {
	case "", IndexByCode:
		return IndexByCode, nil
	case IndexByMnemonic:
		return IndexByMnemonic, nil
	}
	return "", fmt.Errorf("unknown index order %q (want %q or %q)", s, IndexByCode, IndexByMnemonic)
}

// Tables are the three synchronized views of an opcode set. Codes and
// Names are parallel; Offsets maps every byte to its position in them.
type Tables struct {
	Source  string
	Codes   []byte
	Names   []string
	Offsets [256]int
}

// BuildTables derives the index and offset table from a model.
func BuildTables(m *Model, order IndexOrder) (*Tables, error) {
	ops := slices.Clone(m.Opcodes)
	switch order {
	case "", IndexByCode:
		slices.SortFunc(ops, func(a, b Opcode) int { return cmp.Compare(a.Code, b.Code) })
	case IndexByMnemonic:
		slices.SortFunc(ops, func(a, b Opcode) int { return cmp.Compare(a.Mnemonic, b.Mnemonic) })
	default:
		return nil, fmt.Errorf("unknown index order %q", order)
	}

	t := &Tables{
		Source: m.Source,
		Codes:  make([]byte, len(ops)),
		Names:  make([]string, len(ops)),
	}
	for b := range t.Offsets {
		t.Offsets[b] = NoOpcode
	}
	for i, op := range ops {
		t.Codes[i] = op.Code
		t.Names[i] = op.Mnemonic
		t.Offsets[op.Code] = i
	}

	if err := t.Verify(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len is the number of declared opcodes.
func (t *Tables) Len() int { return len(t.Codes) }

// Lookup decodes a byte the way the runtime does: Names[Offsets[b]].
func (t *Tables) Lookup(b byte) (string, bool) {
	idx := t.Offsets[b]
	if idx == NoOpcode {
		return "", false
	}
	return t.Names[idx], true
}

// Verify checks that the index and offset table agree: every slot either
// holds NoOpcode and no index entry carries that byte, or holds the one
// index position whose code is that byte.
func (t *Tables) Verify() error {
	if len(t.Codes) != len(t.Names) {
		return fmt.Errorf("index has %d codes but %d names", len(t.Codes), len(t.Names))
	}

	seen := make(map[byte]bool, len(t.Codes))
	for i, code := range t.Codes {
		if seen[code] {
			return fmt.Errorf("code 0x%02X appears twice in index", code)
		}
		seen[code] = true
		if t.Offsets[code] != i {
			return fmt.Errorf("offset[0x%02X] = %d, but index %d holds that code", code, t.Offsets[code], i)
		}
	}
	for b, idx := range t.Offsets {
		if idx == NoOpcode {
			continue
		}
		if idx < 0 || idx >= len(t.Codes) {
			return fmt.Errorf("offset[0x%02X] = %d is outside the index", b, idx)
		}
		if int(t.Codes[idx]) != b {
			return fmt.Errorf("offset[0x%02X] = %d, but index %d holds code 0x%02X", b, idx, idx, t.Codes[idx])
		}
	}
	return nil
}
