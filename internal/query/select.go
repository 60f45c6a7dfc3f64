package query

import (
	"math"

	"btreedb/internal/btree"
	"btreedb/internal/recordfile"
)

// Tuple is one matching (key, value) pair.
type Tuple struct {
	Key   int32
	Value string
}

// Result is the outcome of a Select call. Tuples holds the matches for
// ProjKey/ProjValue/ProjBoth and stays empty for ProjCount; Count is the
// number of matches for every projection.
type Result struct {
	Tuples []Tuple
	Count  int
}

// keyBounds is the folded form of every key-attribute predicate: a
// half-open-or-closed range plus a set of excluded values, per spec.md
// §4.4 step 1.
type keyBounds struct {
	min        int64
	includeMin bool
	max        int64
	includeMax bool
	neSet      map[int32]bool
}

func foldKeyBounds(preds []Predicate) (keyBounds, []Predicate) {
	b := keyBounds{
		min:        math.MinInt32,
		includeMin: true,
		max:        math.MaxInt32,
		includeMax: true,
		neSet:      map[int32]bool{},
	}

	var residual []Predicate
	for _, p := range preds {
		if p.Attr == AttrValue {
			residual = append(residual, p)
			continue
		}

		v := int64(p.KeyLiteral)
		switch p.Comp {
		case EQ:
			if v > b.min {
				b.min = v
				b.includeMin = true
			}
			if v < b.max {
				b.max = v
				b.includeMax = true
			}
		case GE:
			if v > b.min {
				b.min = v
				b.includeMin = true
			}
		case GT:
			if v > b.min || (v == b.min && b.includeMin) {
				b.min = v
				b.includeMin = false
			}
		case LE:
			if v < b.max {
				b.max = v
				b.includeMax = true
			}
		case LT:
			if v < b.max || (v == b.max && b.includeMax) {
				b.max = v
				b.includeMax = false
			}
		case NE:
			b.neSet[p.KeyLiteral] = true
		}
	}
	return b, residual
}

// feasible reports whether the folded range can contain any key at all
// (spec.md §4.4 step 2).
func (b keyBounds) feasible() bool {
	if b.min > b.max {
		return false
	}
	if b.min == b.max && (!b.includeMin || !b.includeMax) {
		return false
	}
	return true
}

// aboveMax reports whether key k is past the end of the folded range.
func (b keyBounds) aboveMax(k int32) bool {
	kk := int64(k)
	if kk > b.max {
		return true
	}
	return kk == b.max && !b.includeMax
}

// belowMin reports whether key k is before the start of the folded range.
// Only the heap-scan fallback needs this: the indexed scan starts its
// cursor at the folded lower bound directly, so every key it yields is
// already >= min.
func (b keyBounds) belowMin(k int32) bool {
	kk := int64(k)
	if kk < b.min {
		return true
	}
	return kk == b.min && !b.includeMin
}

// Select runs an IndexedSelect: idx may be nil, in which case a full heap
// scan over rf is used instead (spec.md §4.4's fallback, made a first-class
// path here rather than just a mention).
func Select(rf *recordfile.RecordFile, idx *btree.BTreeIndex, projection Projection, preds []Predicate) (*Result, error) {
	bounds, residual := foldKeyBounds(preds)
	if !bounds.feasible() {
		return &Result{}, nil
	}

	if idx == nil {
		return scanHeap(rf, bounds, projection, residual)
	}
	return scanIndexed(rf, idx, bounds, projection, residual)
}

func scanIndexed(rf *recordfile.RecordFile, idx *btree.BTreeIndex, bounds keyBounds, projection Projection, residual []Predicate) (*Result, error) {
	startKey := int32(bounds.min)
	cur, err := idx.Locate(startKey)
	if err != nil {
		return nil, err
	}

	if !bounds.includeMin {
		peek := *cur
		k, _, ok, err := peek.Next()
		if err != nil {
			return nil, err
		}
		if ok && k == startKey {
			cur = &peek
		}
	}

	res := &Result{}
	noFetchNeeded := len(residual) == 0 && (projection == ProjKey || projection == ProjCount)

	for {
		k, rid, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok || bounds.aboveMax(k) {
			break
		}
		if bounds.neSet[k] {
			continue
		}

		if noFetchNeeded {
			emit(res, projection, k, "")
			continue
		}

		_, value, err := rf.Read(rid)
		if err != nil {
			return nil, err
		}
		if !evalResidual(residual, value) {
			continue
		}
		emit(res, projection, k, value)
	}
	return res, nil
}

func scanHeap(rf *recordfile.RecordFile, bounds keyBounds, projection Projection, residual []Predicate) (*Result, error) {
	res := &Result{}
	c := rf.Scan()
	for {
		_, key, value, ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if bounds.belowMin(key) || bounds.aboveMax(key) {
			continue
		}
		if bounds.neSet[key] {
			continue
		}
		if !evalResidual(residual, value) {
			continue
		}
		emit(res, projection, key, value)
	}
	return res, nil
}

func emit(res *Result, projection Projection, key int32, value string) {
	switch projection {
	case ProjCount:
		res.Count++
	case ProjKey:
		res.Tuples = append(res.Tuples, Tuple{Key: key})
		res.Count++
	case ProjValue:
		res.Tuples = append(res.Tuples, Tuple{Value: value})
		res.Count++
	case ProjBoth:
		res.Tuples = append(res.Tuples, Tuple{Key: key, Value: value})
		res.Count++
	}
}
