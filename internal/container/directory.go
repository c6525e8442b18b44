package container

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// object describes one dataset: its element type, filespace extents,
// scalars per element, and the placement of its payload in the file.
type object struct {
	Name   string   `json:"name"`
	Type   ElemType `json:"type"`
	Dims   []int64  `json:"dims"`
	Arity  int64    `json:"arity"`
	Offset int64    `json:"offset"`
	Bytes  int64    `json:"bytes"`
}

// Attribute value kinds.
const (
	attrInts    = "ints"
	attrNumeric = "numeric"
	attrString  = "string"
)

// attribute is a small typed value attached to a named object, or to the
// container root under owner "/".
type attribute struct {
	Owner string    `json:"owner"`
	Name  string    `json:"name"`
	Kind  string    `json:"kind"`
	Type  ElemType  `json:"type,omitempty"`
	Ints  []int64   `json:"ints,omitempty"`
	Vals  []float64 `json:"vals,omitempty"`
	Str   string    `json:"str,omitempty"`
}

// directory is the container's self-description: every dataset and every
// attribute. It is serialized to JSON, guarded by an xxhash64 trailer,
// and rewritten on each flush.
type directory struct {
	Objects []*object    `json:"objects"`
	Attrs   []*attribute `json:"attrs"`
}

func (d *directory) object(name string) *object {
	for _, o := range d.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func (d *directory) attr(owner, name string) *attribute {
	for _, a := range d.Attrs {
		if a.Owner == owner && a.Name == name {
			return a
		}
	}
	return nil
}

func (d *directory) setAttr(a *attribute) {
	for i, old := range d.Attrs {
		if old.Owner == a.Owner && old.Name == a.Name {
			d.Attrs[i] = a
			return
		}
	}
	d.Attrs = append(d.Attrs, a)
}

// encodeDirectory serializes the directory with its checksum trailer.
func encodeDirectory(d *directory) ([]byte, error) {
	body, err := jsonAPI.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("container: encoding directory: %w", err)
	}
	sum := make([]byte, 8)
	binary.LittleEndian.PutUint64(sum, xxhash.Checksum64(body))
	return append(body, sum...), nil
}

// decodeDirectory verifies the trailer and parses the directory.
func decodeDirectory(data []byte) (*directory, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("container: directory truncated")
	}
	body, trailer := data[:len(data)-8], data[len(data)-8:]
	if binary.LittleEndian.Uint64(trailer) != xxhash.Checksum64(body) {
		return nil, fmt.Errorf("container: directory checksum mismatch")
	}
	d := &directory{}
	if err := jsonAPI.Unmarshal(body, d); err != nil {
		return nil, fmt.Errorf("container: decoding directory: %w", err)
	}
	return d, nil
}
