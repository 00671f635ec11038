package operations

import (
	"testing"

	"github.com/lirsacc/crible/internal/index"
)

func testIndex() *index.Index {
	return index.Of(map[string][]uint32{
		"a": {1, 2, 3},
		"b": {2, 3, 4},
	})
}

func TestQueryRun(t *testing.T) {
	idx := testIndex()
	res, err := Query{Expr: "a and b"}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Values) != 2 || res.Values[0] != 2 || res.Values[1] != 3 {
		t.Fatalf("unexpected values: %v", res.Values)
	}
	if res.HasCardinalities {
		t.Fatal("did not request cardinalities")
	}
}

func TestQueryRunWithCardinalities(t *testing.T) {
	idx := testIndex()
	res, err := Query{Expr: "a", IncludeCardinalities: true}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasCardinalities {
		t.Fatal("expected cardinalities to be populated")
	}
	if res.Cardinalities["a"] != 3 || res.Cardinalities["b"] != 3 {
		t.Fatalf("unexpected cardinalities: %v", res.Cardinalities)
	}
}

func TestQueryRunUnknownProperty(t *testing.T) {
	_, err := Query{Expr: "nope"}.Run(testIndex())
	if err == nil {
		t.Fatal("expected an error for an unknown property")
	}
}

func TestQueryRunInvalidExpr(t *testing.T) {
	_, err := Query{Expr: "("}.Run(testIndex())
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestCountRun(t *testing.T) {
	got, err := Count{Expr: "a or b"}.Run(testIndex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestQueryAndCountShareParseCache(t *testing.T) {
	idx := testIndex()
	if _, err := (Query{Expr: "a xor b"}).Run(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !queryCache.Contains("a xor b") {
		t.Fatal("expected Query to store the parsed expression in the shared cache")
	}
	got, err := Count{Expr: "a xor b"}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestStatsRun(t *testing.T) {
	res, err := Stats{}.Run(testIndex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Root.Cardinality != 4 {
		t.Fatalf("expected root cardinality 4, got %d", res.Root.Cardinality)
	}
	if len(res.Properties) != 2 {
		t.Fatalf("expected 2 property stats, got %d", len(res.Properties))
	}
	if res.Properties["a"].Cardinality != 3 {
		t.Fatalf("unexpected stats for a: %+v", res.Properties["a"])
	}
}

func TestSetRun(t *testing.T) {
	idx := testIndex()
	changed, err := Set{Property: "a", Bit: 99}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected newly-set bit to report true")
	}
	changed, _ = Set{Property: "a", Bit: 99}.Run(idx)
	if changed {
		t.Fatal("expected re-setting an existing bit to report false")
	}
}

func TestSetCreatesNewProperty(t *testing.T) {
	idx := testIndex()
	if _, err := (Set{Property: "c", Bit: 1}).Run(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected Set to create a new property, got %d properties", idx.Len())
	}
}

func TestSetManyRun(t *testing.T) {
	idx := testIndex()
	if _, err := (SetMany{Values: map[string][]uint32{"c": {10, 11}}}).Run(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := idx.Get("c")
	if !ok || s.Cardinality() != 2 {
		t.Fatalf("expected property c with 2 members, got %v ok=%v", s, ok)
	}
}

func TestUnsetRun(t *testing.T) {
	idx := testIndex()
	was, err := Unset{Property: "a", Bit: 1}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !was {
		t.Fatal("expected bit 1 to have been present on a")
	}
	was, _ = Unset{Property: "a", Bit: 1}.Run(idx)
	if was {
		t.Fatal("expected re-unsetting to report false")
	}
}

func TestUnsetMissingPropertyDoesNotCreateIt(t *testing.T) {
	idx := testIndex()
	was, err := Unset{Property: "nope", Bit: 1}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if was {
		t.Fatal("expected false for a missing property")
	}
	if idx.Len() != 2 {
		t.Fatal("Unset must never create a property")
	}
}

func TestUnsetManyRun(t *testing.T) {
	idx := testIndex()
	if _, err := (UnsetMany{Values: map[string][]uint32{"a": {2, 3}}}).Run(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := idx.Get("a")
	if s.Cardinality() != 1 {
		t.Fatalf("expected a to have 1 member left, got %d", s.Cardinality())
	}
}

func TestGetBitRunSorted(t *testing.T) {
	idx := index.Of(map[string][]uint32{"zeta": {5}, "alpha": {5}, "mid": {9}})
	names, err := GetBit{Bit: 5}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("unexpected result: %v", names)
	}
}

func TestSetBitRun(t *testing.T) {
	idx := testIndex()
	changed, err := SetBit{Bit: 1, Properties: []string{"a", "b"}}.Run(idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected setting bit 1 on b to report a change")
	}
	names, _ := GetBit{Bit: 1}.Run(idx)
	if len(names) != 2 {
		t.Fatalf("expected bit 1 on both a and b, got %v", names)
	}

	changed, _ = SetBit{Bit: 1, Properties: []string{"a"}}.Run(idx)
	if !changed {
		t.Fatal("expected clearing bit 1 from b to report a change")
	}
	names, _ = GetBit{Bit: 1}.Run(idx)
	if len(names) != 1 || names[0] != "a" {
		t.Fatalf("expected bit 1 only on a, got %v", names)
	}
}

func TestDeleteBitsRun(t *testing.T) {
	idx := testIndex()
	if _, err := (DeleteBits{Bits: []uint32{2, 3}}).Run(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := idx.Get("a")
	b, _ := idx.Get("b")
	if a.Cardinality() != 1 || b.Cardinality() != 1 {
		t.Fatalf("expected bits 2,3 removed everywhere, got a=%d b=%d", a.Cardinality(), b.Cardinality())
	}
	if idx.Len() != 2 {
		t.Fatal("DeleteBits must never remove a property itself")
	}
}
