// Package encoding implements the two on-disk/on-wire representations of an
// Index: json-lines (NDJSON, human-readable and cross-compatible) and
// binary (a compact length-prefixed framing of Roaring's own serialization).
package encoding

import (
	"fmt"
	"io"

	"github.com/lirsacc/crible/internal/index"
)

// Codec encodes and decodes a full Index to and from a stream. Both
// implementations here round-trip exactly: Decode(Encode(idx)) produces an
// Index with identical properties and identical set contents.
type Codec interface {
	Encode(w io.Writer, idx *index.Index) error
	Decode(r io.Reader) (*index.Index, error)
}

// Name identifies a codec, used by backend.Options to pick one from a URL's
// format query parameter or file extension.
type Name string

const (
	JSONLines Name = "json-lines"
	Binary    Name = "binary"
)

// ByName resolves a codec by its configured name.
func ByName(name Name) (Codec, error) {
	switch name {
	case JSONLines, "":
		return JSONLinesCodec{}, nil
	case Binary:
		return BinaryCodec{}, nil
	default:
		return nil, fmt.Errorf("encoding: unknown codec %q", name)
	}
}

// ByExtension resolves a codec from a filename extension. ".json" and
// ".ndjson" select JSONLines; every other extension, recognized or not,
// defaults to Binary.
func ByExtension(ext string) Codec {
	switch ext {
	case ".json", ".ndjson":
		return JSONLinesCodec{}
	default:
		return BinaryCodec{}
	}
}
