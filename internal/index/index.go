// Package index implements the in-memory property index: a map from
// property name to its Compressed Identifier Set, plus the boolean query
// evaluator that runs an expr.Expression against it.
//
// Index itself is not safe for concurrent use. Callers that need to share
// one across goroutines guard it externally (see internal/executor).
package index

import (
	"fmt"
	"sort"

	"github.com/lirsacc/crible/internal/cis"
	"github.com/lirsacc/crible/internal/expr"
)

// PropertyDoesNotExistError is returned by Execute when a query references
// a property that isn't present in the index.
type PropertyDoesNotExistError struct {
	Property string
}

func (e *PropertyDoesNotExistError) Error() string {
	return fmt.Sprintf("property %q does not exist", e.Property)
}

// Index maps property names to their Compressed Identifier Set.
type Index struct {
	properties map[string]*cis.Set
}

// New returns an empty Index.
func New() *Index {
	return &Index{properties: make(map[string]*cis.Set)}
}

// Of builds an Index from a name -> ids mapping, primarily useful in tests.
func Of(data map[string][]uint32) *Index {
	idx := New()
	for name, ids := range data {
		idx.properties[name] = cis.Of(ids...)
	}
	return idx
}

// Len returns the number of distinct properties in the index.
func (idx *Index) Len() int {
	return len(idx.properties)
}

// IsEmpty reports whether the index has no properties at all.
func (idx *Index) IsEmpty() bool {
	return len(idx.properties) == 0
}

// Root returns the union of every property's set: every element id known
// to the index under any property.
func (idx *Index) Root() *cis.Set {
	sets := make([]*cis.Set, 0, len(idx.properties))
	for _, s := range idx.properties {
		sets = append(sets, s)
	}
	return cis.FastOr(sets...)
}

// Clone returns a deep copy whose properties can be mutated independently
// of the receiver.
func (idx *Index) Clone() *Index {
	clone := New()
	for name, s := range idx.properties {
		clone.properties[name] = s.Clone()
	}
	return clone
}

// Properties returns the index's property names, unsorted.
func (idx *Index) Properties() []string {
	names := make([]string, 0, len(idx.properties))
	for name := range idx.properties {
		names = append(names, name)
	}
	return names
}

// Get returns a defensive clone of the named property's set, or nil if it
// does not exist. The clone protects the index's internal state from being
// mutated through a reference handed out to a caller.
func (idx *Index) Get(property string) (*cis.Set, bool) {
	s, ok := idx.properties[property]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// SetProperty replaces the set stored for property wholesale, creating it
// if absent.
func (idx *Index) SetProperty(property string, s *cis.Set) {
	idx.properties[property] = s
}

// DeleteProperty removes a property entirely, reporting whether it existed.
func (idx *Index) DeleteProperty(property string) bool {
	_, ok := idx.properties[property]
	delete(idx.properties, property)
	return ok
}

// Clear removes every property from the index.
func (idx *Index) Clear() {
	idx.properties = make(map[string]*cis.Set)
}

// Set sets a single bit on property, creating the property if absent, and
// reports whether the bit was newly set.
func (idx *Index) Set(property string, bit uint32) bool {
	s, ok := idx.properties[property]
	if !ok {
		s = cis.New()
		idx.properties[property] = s
	}
	return s.AddChecked(bit)
}

// SetMany sets multiple bits on property, creating the property if absent.
func (idx *Index) SetMany(property string, bits []uint32) {
	s, ok := idx.properties[property]
	if !ok {
		s = cis.New()
		idx.properties[property] = s
	}
	s.AddMany(bits)
}

// SetAll sets bits on every existing property. It never creates new
// properties: a bit that belongs to no property yet stays that way.
func (idx *Index) SetAll(bits []uint32) {
	mask := cis.Of(bits...)
	for _, s := range idx.properties {
		s.OrInplace(mask)
	}
}

// Unset clears a single bit on property, reporting whether it was present.
// A missing property reports false without being created.
func (idx *Index) Unset(property string, bit uint32) bool {
	s, ok := idx.properties[property]
	if !ok {
		return false
	}
	return s.RemoveChecked(bit)
}

// UnsetMany clears multiple bits on property. A missing property is a
// no-op.
func (idx *Index) UnsetMany(property string, bits []uint32) {
	s, ok := idx.properties[property]
	if !ok {
		return
	}
	s.AndNotInplace(cis.Of(bits...))
}

// UnsetAll clears bits on every existing property. It never creates new
// properties.
func (idx *Index) UnsetAll(bits []uint32) {
	mask := cis.Of(bits...)
	for _, s := range idx.properties {
		s.AndNotInplace(mask)
	}
}

// PropertiesWithBit returns, sorted ascending, the names of every property
// that has bit set. This is an O(properties) scan.
func (idx *Index) PropertiesWithBit(bit uint32) []string {
	var names []string
	for name, s := range idx.properties {
		if s.Contains(bit) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SetPropertiesWithBit sets bit on exactly the named properties and unsets
// it everywhere else, reporting whether anything changed. Existing
// properties not named are left in the index (only the bit is touched).
func (idx *Index) SetPropertiesWithBit(bit uint32, properties []string) bool {
	want := make(map[string]struct{}, len(properties))
	for _, p := range properties {
		want[p] = struct{}{}
	}
	changed := false
	for name, s := range idx.properties {
		if _, ok := want[name]; ok {
			if s.AddChecked(bit) {
				changed = true
			}
		} else {
			if s.RemoveChecked(bit) {
				changed = true
			}
		}
	}
	return changed
}

// Cardinality summarizes a single property's set.
type Cardinality struct {
	Property string
	Count    uint64
}

// Cardinalities returns the cardinality of every property whose name has
// the given prefix (empty prefix matches everything), sorted by property
// name. Properties with zero members are omitted.
func (idx *Index) Cardinalities(prefix string) []Cardinality {
	var out []Cardinality
	for name, s := range idx.properties {
		if prefix != "" && !hasPrefix(name, prefix) {
			continue
		}
		if s.IsEmpty() {
			continue
		}
		out = append(out, Cardinality{Property: name, Count: s.Cardinality()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Property < out[j].Property })
	return out
}

func hasPrefix(name, prefix string) bool {
	return len(name) >= len(prefix) && name[:len(prefix)] == prefix
}

// Stats summarizes a single set for reporting, e.g. the /stats endpoint.
type Stats struct {
	Cardinality uint64
	Min         uint32
	HasMin      bool
	Max         uint32
	HasMax      bool
}

// PropertyStats reports Stats for a single property, or false if it does
// not exist.
func (idx *Index) PropertyStats(property string) (Stats, bool) {
	s, ok := idx.properties[property]
	if !ok {
		return Stats{}, false
	}
	return statsOf(s), true
}

func statsOf(s *cis.Set) Stats {
	st := Stats{Cardinality: s.Cardinality()}
	if min, ok := s.Minimum(); ok {
		st.Min, st.HasMin = min, true
	}
	if max, ok := s.Maximum(); ok {
		st.Max, st.HasMax = max, true
	}
	return st
}

// Execute evaluates a parsed query expression against the index, returning
// the resulting set of element ids. It fails with
// *PropertyDoesNotExistError if it evaluates a reference to an unknown
// property. An And node stops evaluating its remaining children once the
// running intersection is empty, so an unknown property among those
// skipped children is not reported.
func (idx *Index) Execute(e expr.Expression) (*cis.Set, error) {
	switch node := e.(type) {
	case expr.Root:
		return idx.Root(), nil

	case expr.Property:
		s, ok := idx.properties[node.Name]
		if !ok {
			return nil, &PropertyDoesNotExistError{Property: node.Name}
		}
		return s.Clone(), nil

	case expr.And:
		res, err := idx.Execute(node.Children[0])
		if err != nil {
			return nil, err
		}
		for _, child := range node.Children[1:] {
			if res.IsEmpty() {
				break
			}
			next, err := idx.Execute(child)
			if err != nil {
				return nil, err
			}
			res.AndInplace(next)
		}
		return res, nil

	case expr.Or:
		sets, err := idx.executeAll(node.Children)
		if err != nil {
			return nil, err
		}
		return cis.FastOr(sets...), nil

	case expr.Xor:
		sets, err := idx.executeAll(node.Children)
		if err != nil {
			return nil, err
		}
		return cis.FastXor(sets...), nil

	case expr.Sub:
		res, err := idx.Execute(node.Children[0])
		if err != nil {
			return nil, err
		}
		for _, child := range node.Children[1:] {
			next, err := idx.Execute(child)
			if err != nil {
				return nil, err
			}
			res.AndNotInplace(next)
		}
		return res, nil

	case expr.Not:
		root := idx.Root()
		inner, err := idx.Execute(node.Child)
		if err != nil {
			return nil, err
		}
		root.AndNotInplace(inner)
		return root, nil

	default:
		return nil, fmt.Errorf("index: unhandled expression node %T", e)
	}
}

func (idx *Index) executeAll(children []expr.Expression) ([]*cis.Set, error) {
	sets := make([]*cis.Set, 0, len(children))
	for _, c := range children {
		s, err := idx.Execute(c)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, nil
}
