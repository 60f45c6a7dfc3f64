// Package query implements the IndexedSelect planner/executor: it folds a
// conjunction of predicates on the key into a bounded index traversal,
// evaluates residual value predicates per tuple, and falls back to a full
// heap scan when no index is available.
package query

import "strings"

// Attr names which column a Predicate constrains.
type Attr int

const (
	AttrKey Attr = iota
	AttrValue
)

// Comp is one of the six comparison operators a predicate may use.
type Comp int

const (
	EQ Comp = iota
	NE
	LT
	LE
	GT
	GE
)

// Predicate is one conjunct of a SELECT's WHERE clause. Exactly one of
// KeyLiteral / ValueLiteral is meaningful, selected by Attr.
type Predicate struct {
	Attr        Attr
	Comp        Comp
	KeyLiteral  int32
	ValueLiteral string
}

// Projection selects what a matching tuple emits.
type Projection int

const (
	ProjKey Projection = iota
	ProjValue
	ProjBoth
	ProjCount
)

// evalValue reports whether value satisfies p, a value-attribute predicate.
// Comparison is lexicographic, matching RecordFile's C-string value
// semantics (spec.md §6).
func evalValue(p Predicate, value string) bool {
	cmp := strings.Compare(value, p.ValueLiteral)
	switch p.Comp {
	case EQ:
		return cmp == 0
	case NE:
		return cmp != 0
	case LT:
		return cmp < 0
	case LE:
		return cmp <= 0
	case GT:
		return cmp > 0
	case GE:
		return cmp >= 0
	default:
		return false
	}
}

func evalResidual(residual []Predicate, value string) bool {
	for _, p := range residual {
		if !evalValue(p, value) {
			return false
		}
	}
	return true
}
