// Package expr implements the boolean query language: the expression AST,
// its combinator builders, a hand-written recursive-descent parser, and a
// canonical textual serializer used for query caching and deduplication.
package expr

import "strings"

// Expression is the sum type for a parsed (or hand-built) query. The
// concrete cases are Root, Property, And, Or, Xor, Sub and Not.
type Expression interface {
	isExpression()
	// Serialize renders the canonical textual form described in the
	// expression grammar: re-parsing it always yields an equal Expression.
	Serialize() string
}

// Root denotes the index's entire root set. It is only ever valid as the
// whole query, never nested as a sub-term; the parser enforces this.
type Root struct{}

func (Root) isExpression()   {}
func (Root) Serialize() string { return "*" }

// Property references the named property's stored set.
type Property struct {
	Name string
}

func (Property) isExpression()     {}
func (p Property) Serialize() string { return p.Name }

// And is the n-ary intersection of its children (len >= 2 once built
// through BuildAnd, but see the n-ary serialize rule below for the degenerate
// single-child case).
type And struct{ Children []Expression }

// Or is the n-ary union of its children.
type Or struct{ Children []Expression }

// Xor is the n-ary symmetric difference of its children.
type Xor struct{ Children []Expression }

// Sub is left-associative n-ary difference: Sub[a,b,c] means (a - b) - c.
type Sub struct{ Children []Expression }

func (And) isExpression() {}
func (Or) isExpression()  {}
func (Xor) isExpression() {}
func (Sub) isExpression() {}

// Not is the unary negation of its child, evaluated against the current
// root (see internal/index's evaluator), not a fixed universe.
type Not struct{ Child Expression }

func (Not) isExpression() {}

func (e And) Serialize() string { return serializeNary(e.Children, " and ") }
func (e Or) Serialize() string  { return serializeNary(e.Children, " or ") }
func (e Xor) Serialize() string { return serializeNary(e.Children, " xor ") }
func (e Sub) Serialize() string { return serializeNary(e.Children, " - ") }
func (e Not) Serialize() string { return "not (" + e.Child.Serialize() + ")" }

func serializeNary(children []Expression, op string) string {
	if len(children) == 1 {
		return children[0].Serialize()
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.Serialize()
	}
	return "(" + strings.Join(parts, op) + ")"
}

// BuildAnd builds an n-ary intersection, flattening same-kind nesting:
// BuildAnd(BuildAnd(x,y), BuildAnd(a,b)) == And{x,y,a,b}.
func BuildAnd(children ...Expression) Expression {
	return buildNary(children, func(e Expression) ([]Expression, bool) {
		a, ok := e.(And)
		return a.Children, ok
	}, func(c []Expression) Expression { return And{Children: c} })
}

// BuildOr builds an n-ary union, flattening same-kind nesting.
func BuildOr(children ...Expression) Expression {
	return buildNary(children, func(e Expression) ([]Expression, bool) {
		o, ok := e.(Or)
		return o.Children, ok
	}, func(c []Expression) Expression { return Or{Children: c} })
}

// BuildXor builds an n-ary symmetric difference, flattening same-kind nesting.
func BuildXor(children ...Expression) Expression {
	return buildNary(children, func(e Expression) ([]Expression, bool) {
		x, ok := e.(Xor)
		return x.Children, ok
	}, func(c []Expression) Expression { return Xor{Children: c} })
}

// BuildSub builds a left-associative n-ary difference, flattening same-kind
// nesting.
func BuildSub(children ...Expression) Expression {
	return buildNary(children, func(e Expression) ([]Expression, bool) {
		s, ok := e.(Sub)
		return s.Children, ok
	}, func(c []Expression) Expression { return Sub{Children: c} })
}

// BuildNot negates e, collapsing double negation: BuildNot(BuildNot(e)) == e.
func BuildNot(e Expression) Expression {
	if n, ok := e.(Not); ok {
		return n.Child
	}
	return Not{Child: e}
}

func buildNary(
	exprs []Expression,
	extract func(Expression) ([]Expression, bool),
	wrap func([]Expression) Expression,
) Expression {
	var children []Expression
	for _, e := range exprs {
		if inner, ok := extract(e); ok {
			children = append(children, inner...)
		} else {
			children = append(children, e)
		}
	}
	if len(children) == 1 {
		return children[0]
	}
	return wrap(children)
}
