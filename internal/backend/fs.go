package backend

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	natfatomic "github.com/natefinch/atomic"

	"github.com/lirsacc/crible/internal/encoding"
	"github.com/lirsacc/crible/internal/index"
)

// FS is a filesystem-backed durability endpoint. Writes go through a
// temp-file-then-rename dance (via natefinch/atomic) so a crash mid-write
// never leaves a partially-written file in the final location. A missing
// file on Load is treated as an empty Index, and that empty Index is
// immediately written back so subsequent Loads see a real file.
type FS struct {
	path  string
	codec encoding.Codec
}

// NewFS returns an FS backend writing to path using codec.
func NewFS(path string, codec encoding.Codec) *FS {
	return &FS{path: path, codec: codec}
}

func (f *FS) Load(ctx context.Context) (*index.Index, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		idx := index.New()
		if err := f.Dump(ctx, idx); err != nil {
			return nil, err
		}
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return f.codec.Decode(file)
}

func (f *FS) Dump(_ context.Context, idx *index.Index) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := f.codec.Encode(&buf, idx); err != nil {
		return err
	}
	return natfatomic.WriteFile(f.path, &buf)
}

func (f *FS) Clear(_ context.Context) error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
