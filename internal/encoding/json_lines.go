package encoding

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	goccyjson "github.com/goccy/go-json"

	"github.com/lirsacc/crible/internal/cis"
	"github.com/lirsacc/crible/internal/expr"
	"github.com/lirsacc/crible/internal/index"
)

// JSONLinesCodec implements the NDJSON interoperability format: one JSON
// object per line, shape {"property": string, "values": [u32, ...]}.
type JSONLinesCodec struct{}

type jsonLinesRecord struct {
	Property string   `json:"property"`
	Values   []uint32 `json:"values"`
}

// Encode writes one jsonLinesRecord per line, properties and values both in
// ascending order, with a trailing newline after the last record.
func (JSONLinesCodec) Encode(w io.Writer, idx *index.Index) error {
	names := idx.Properties()
	sort.Strings(names)

	bw := bufio.NewWriter(w)
	for _, name := range names {
		s, _ := idx.Get(name)
		record := jsonLinesRecord{Property: name, Values: s.ToSlice()}
		line, err := goccyjson.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding: marshal property %q: %w", name, err)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode parses an NDJSON stream into a fresh Index. Empty lines are
// skipped; duplicate properties and invalid property names are rejected.
func (JSONLinesCodec) Decode(r io.Reader) (*index.Index, error) {
	idx := index.New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record jsonLinesRecord
		if err := goccyjson.Unmarshal(line, &record); err != nil {
			return nil, &JSONError{Line: lineNo, Err: err}
		}
		if err := expr.ValidatePropertyName(record.Property); err != nil {
			return nil, &InvalidPropertyError{Property: record.Property, Reason: err}
		}
		if _, exists := idx.Get(record.Property); exists {
			return nil, &DuplicatePropertyError{Property: record.Property}
		}
		idx.SetProperty(record.Property, cis.Of(record.Values...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("encoding: reading json-lines stream: %w", err)
	}
	return idx, nil
}
