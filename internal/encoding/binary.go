package encoding

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/lirsacc/crible/internal/cis"
	"github.com/lirsacc/crible/internal/expr"
	"github.com/lirsacc/crible/internal/index"
)

// binaryFormatVersion is bumped whenever the framing below changes
// incompatibly. Backwards compatibility across major versions isn't
// guaranteed, matching the upstream binary backend's stance.
const binaryFormatVersion uint8 = 1

// BinaryCodec implements the compact on-disk/on-wire format: a version
// byte followed by an ascending-name-order sequence of
// (name length, name, payload length, payload) records, where payload is
// the property's CIS in its portable Roaring serialization.
type BinaryCodec struct{}

// Encode writes the versioned binary framing described above.
func (BinaryCodec) Encode(w io.Writer, idx *index.Index) error {
	bw := bufio.NewWriter(w)
	if err := bw.WriteByte(binaryFormatVersion); err != nil {
		return err
	}

	names := idx.Properties()
	sort.Strings(names)

	for _, name := range names {
		s, _ := idx.Get(name)
		payload, err := s.Serialize()
		if err != nil {
			return fmt.Errorf("encoding: serialize property %q: %w", name, err)
		}
		if err := writeFrame(bw, []byte(name)); err != nil {
			return err
		}
		if err := writeFrame(bw, payload); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads the versioned binary framing back into a fresh Index.
func (BinaryCodec) Decode(r io.Reader) (*index.Index, error) {
	br := bufio.NewReader(r)

	version, err := br.ReadByte()
	if errors.Is(err, io.EOF) {
		return index.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("encoding: reading format version: %w", err)
	}
	if version != binaryFormatVersion {
		return nil, fmt.Errorf("encoding: unsupported binary format version %d", version)
	}

	idx := index.New()
	for {
		nameBytes, err := readFrame(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("encoding: reading property name: %w", err)
		}
		name := string(nameBytes)

		payload, err := readFrame(br)
		if err != nil {
			return nil, fmt.Errorf("encoding: reading payload for property %q: %w", name, err)
		}

		if err := expr.ValidatePropertyName(name); err != nil {
			return nil, &InvalidPropertyError{Property: name, Reason: err}
		}
		if _, exists := idx.Get(name); exists {
			return nil, &DuplicatePropertyError{Property: name}
		}
		s, err := cis.Deserialize(payload)
		if err != nil {
			return nil, &InvalidBitmapError{Property: name, Err: err}
		}
		idx.SetProperty(name, s)
	}
	return idx, nil
}

func writeFrame(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// readFrame reads one length-prefixed frame. An io.EOF returned here means
// the caller was positioned exactly at a record boundary with no more
// records to read, not a truncated stream.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("encoding: truncated frame: %w", err)
		}
		return nil, err
	}
	return data, nil
}
