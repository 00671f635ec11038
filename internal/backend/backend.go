// Package backend implements the durable storage endpoints an Index can be
// loaded from and dumped to: in-process memory, an atomic local file, and a
// Redis hash.
package backend

import (
	"context"

	"github.com/lirsacc/crible/internal/index"
)

// Backend is a polymorphic durability endpoint. Implementations must treat
// Dump as overwriting prior state wholesale, not merging into it. Errors
// are opaque and wrapped; callers only distinguish success from failure.
type Backend interface {
	// Load reads and reconstructs a full Index.
	Load(ctx context.Context) (*index.Index, error)
	// Dump persists idx, replacing whatever was previously stored.
	Dump(ctx context.Context, idx *index.Index) error
	// Clear deletes any persisted state.
	Clear(ctx context.Context) error
}
