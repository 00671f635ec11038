// Package operations implements every request shape from the operations
// table: one small struct per request kind, each with a Run method that
// takes the Index in the lock mode the table prescribes. Callers (the
// executor's IndexHandle, ultimately internal/httpapi) decide whether to
// invoke a given operation's Run under a read or write lock; operations
// never acquire locks themselves.
package operations

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lirsacc/crible/internal/expr"
	"github.com/lirsacc/crible/internal/index"
)

// queryCacheSize bounds the number of distinct query strings whose parsed
// AST is kept around. Queries tend to repeat heavily across callers (the
// same dashboard filter fired every few seconds), so caching the parse
// avoids re-tokenizing the same expression on every request.
const queryCacheSize = 1024

var queryCache *lru.Cache[string, expr.Expression]

func init() {
	c, err := lru.New[string, expr.Expression](queryCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which queryCacheSize
		// never is.
		panic(err)
	}
	queryCache = c
}

// parseCached parses query, consulting the shared LRU first.
func parseCached(query string) (expr.Expression, error) {
	if e, ok := queryCache.Get(query); ok {
		return e, nil
	}
	e, err := expr.Parse(query)
	if err != nil {
		return nil, err
	}
	queryCache.Add(query, e)
	return e, nil
}

// QueryResult is the output of Query.Run.
type QueryResult struct {
	Values           []uint32
	Cardinalities    map[string]uint64
	HasCardinalities bool
}

// Query evaluates an expression and returns the matching element ids.
type Query struct {
	Expr                string
	IncludeCardinalities bool
}

func (q Query) Run(idx *index.Index) (QueryResult, error) {
	e, err := parseCached(q.Expr)
	if err != nil {
		return QueryResult{}, err
	}
	set, err := idx.Execute(e)
	if err != nil {
		return QueryResult{}, err
	}
	res := QueryResult{Values: set.ToSlice()}
	if q.IncludeCardinalities {
		res.HasCardinalities = true
		res.Cardinalities = make(map[string]uint64, len(idx.Properties()))
		for _, c := range idx.Cardinalities("") {
			res.Cardinalities[c.Property] = c.Count
		}
	}
	return res, nil
}

// Count evaluates an expression and returns only the size of the result,
// never materializing the matching id list.
type Count struct {
	Expr string
}

func (q Count) Run(idx *index.Index) (uint64, error) {
	e, err := parseCached(q.Expr)
	if err != nil {
		return 0, err
	}
	set, err := idx.Execute(e)
	if err != nil {
		return 0, err
	}
	return set.Cardinality(), nil
}

// StatsResult is the output of Stats.Run.
type StatsResult struct {
	Root       index.Stats
	Properties map[string]index.Stats
}

// Stats reports cardinality/min/max for the root set and every property.
type Stats struct{}

func (Stats) Run(idx *index.Index) (StatsResult, error) {
	root := idx.Root()
	rootStats := index.Stats{Cardinality: root.Cardinality()}
	if min, ok := root.Minimum(); ok {
		rootStats.Min, rootStats.HasMin = min, true
	}
	if max, ok := root.Maximum(); ok {
		rootStats.Max, rootStats.HasMax = max, true
	}

	props := make(map[string]index.Stats, idx.Len())
	for _, name := range idx.Properties() {
		st, _ := idx.PropertyStats(name)
		props[name] = st
	}

	return StatsResult{Root: rootStats, Properties: props}, nil
}

// Set flips a single bit on in property, creating the property if absent.
// Run reports whether the bit was newly set.
type Set struct {
	Property string
	Bit      uint32
}

func (s Set) Run(idx *index.Index) (bool, error) {
	return idx.Set(s.Property, s.Bit), nil
}

// SetMany bulk-sets bits across several properties in one mutation.
type SetMany struct {
	Values map[string][]uint32
}

func (s SetMany) Run(idx *index.Index) (struct{}, error) {
	for name, ids := range s.Values {
		idx.SetMany(name, ids)
	}
	return struct{}{}, nil
}

// Unset clears a single bit on property. Run reports whether the bit had
// been present. A property that does not exist yields false without being
// created.
type Unset struct {
	Property string
	Bit      uint32
}

func (u Unset) Run(idx *index.Index) (bool, error) {
	return idx.Unset(u.Property, u.Bit), nil
}

// UnsetMany bulk-clears bits across several properties in one mutation.
type UnsetMany struct {
	Values map[string][]uint32
}

func (u UnsetMany) Run(idx *index.Index) (struct{}, error) {
	for name, ids := range u.Values {
		idx.UnsetMany(name, ids)
	}
	return struct{}{}, nil
}

// GetBit reports every property that currently has Bit set, sorted by name.
type GetBit struct {
	Bit uint32
}

func (g GetBit) Run(idx *index.Index) ([]string, error) {
	return idx.PropertiesWithBit(g.Bit), nil
}

// SetBit sets Bit on exactly Properties and clears it everywhere else. Run
// reports whether anything in the index actually changed.
type SetBit struct {
	Bit        uint32
	Properties []string
}

func (s SetBit) Run(idx *index.Index) (bool, error) {
	return idx.SetPropertiesWithBit(s.Bit, s.Properties), nil
}

// DeleteBits clears every given bit from every property in the index.
type DeleteBits struct {
	Bits []uint32
}

func (d DeleteBits) Run(idx *index.Index) (struct{}, error) {
	idx.UnsetAll(d.Bits)
	return struct{}{}, nil
}
