package backend

import (
	"context"
	"sync"

	"github.com/lirsacc/crible/internal/index"
)

// Memory is a purely in-process backend: Dump stores a deep clone of the
// given Index, Load hands back a deep clone of whatever was last stored.
// It provides no durability across process restarts.
type Memory struct {
	mu  sync.RWMutex
	idx *index.Index
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{idx: index.New()}
}

func (m *Memory) Dump(_ context.Context, idx *index.Index) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idx = idx.Clone()
	return nil
}

func (m *Memory) Load(_ context.Context) (*index.Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idx.Clone(), nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idx = index.New()
	return nil
}
