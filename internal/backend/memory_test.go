package backend

import (
	"context"
	"testing"

	"github.com/lirsacc/crible/internal/index"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	orig := index.Of(map[string][]uint32{"foo": {1, 2, 3}})
	if err := m.Dump(ctx, orig); err != nil {
		t.Fatalf("dump: %v", err)
	}

	loaded, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, ok := loaded.Get("foo")
	if !ok {
		t.Fatal("expected foo to be present")
	}
	if got := s.ToSlice(); len(got) != 3 {
		t.Fatalf("got %v", got)
	}

	// Mutating the original after Dump must not affect what was stored.
	orig.Set("foo", 99)
	reloaded, _ := m.Load(ctx)
	fresh, _ := reloaded.Get("foo")
	if fresh.Contains(99) {
		t.Fatal("Dump must store an independent clone")
	}
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Dump(ctx, index.Of(map[string][]uint32{"foo": {1}})); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	loaded, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.IsEmpty() {
		t.Fatal("expected empty index after clear")
	}
}
