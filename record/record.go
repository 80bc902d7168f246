// Package record keeps a content-addressed account of one generator run:
// which spec and configuration went in, which artifacts came out. A later
// run with identical inputs whose outputs are still intact can skip
// generation entirely.
package record

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"lukechampine.com/blake3"
)

// Version is bumped whenever the record layout or generator output changes
// in a way that must invalidate existing records.
const Version = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("record: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Digest is a BLAKE3-256 content hash.
type Digest [32]byte

// Sum hashes data.
func Sum(data []byte) Digest {
	return blake3.Sum256(data)
}

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:8])
}

// Artifact identifies a file by path and content.
type Artifact struct {
	Path   string `cbor:"1,keyasint"`
	Digest Digest `cbor:"2,keyasint"`
	Size   int64  `cbor:"3,keyasint"`
}

// NewArtifact describes data stored at path.
func NewArtifact(path string, data []byte) Artifact {
	return Artifact{Path: path, Digest: Sum(data), Size: int64(len(data))}
}

// Record is the account of one successful run.
type Record struct {
	Version   int        `cbor:"1,keyasint"`
	Generator string     `cbor:"2,keyasint"`
	Spec      Artifact   `cbor:"3,keyasint"`
	Config    Digest     `cbor:"4,keyasint"`
	Outputs   []Artifact `cbor:"5,keyasint"`
}

// Marshal serializes r to canonical CBOR.
func Marshal(r *Record) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// Unmarshal deserializes a Record from CBOR bytes.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("record: unmarshal: %w", err)
	}
	return &r, nil
}

// Load reads a record file. A missing file returns (nil, nil).
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	return Unmarshal(data)
}

// Matches reports whether r was produced by generator from the same spec
// and configuration into exactly the output paths requested, in order, and
// every output still has its recorded content. The second result explains
// a mismatch.
func (r *Record) Matches(generator string, spec Artifact, config Digest, outputs []string) (bool, string) {
	switch {
	case r.Version != Version:
		return false, fmt.Sprintf("record version %d, want %d", r.Version, Version)
	case r.Generator != generator:
		return false, fmt.Sprintf("record is for %s", r.Generator)
	case r.Spec.Path != spec.Path || r.Spec.Digest != spec.Digest:
		return false, "spec changed"
	case r.Config != config:
		return false, "configuration changed"
	case len(r.Outputs) == 0:
		return false, "record lists no outputs"
	case len(r.Outputs) != len(outputs):
		return false, fmt.Sprintf("record lists %d outputs, want %d", len(r.Outputs), len(outputs))
	}

	for i, out := range r.Outputs {
		if out.Path != outputs[i] {
			return false, fmt.Sprintf("record is for %s, not %s", out.Path, outputs[i])
		}
	}

	for _, out := range r.Outputs {
		data, err := os.ReadFile(out.Path)
		if err != nil {
			return false, fmt.Sprintf("%s unreadable", out.Path)
		}
		if Sum(data) != out.Digest {
			return false, fmt.Sprintf("%s modified", out.Path)
		}
	}
	return true, ""
}
