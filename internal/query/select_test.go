package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"btreedb/internal/btree"
	"btreedb/internal/pagefile"
	"btreedb/internal/recordfile"
)

func buildFixture(t *testing.T, withIndex bool) (*recordfile.RecordFile, *btree.BTreeIndex) {
	t.Helper()
	dir := t.TempDir()

	rf, err := recordfile.Open(filepath.Join(dir, "t.tbl"), pagefile.ReadWrite)
	require.NoError(t, err)
	t.Cleanup(func() { rf.Close() })

	var idx *btree.BTreeIndex
	if withIndex {
		idx, err = btree.Open(filepath.Join(dir, "t.idx"), pagefile.ReadWrite)
		require.NoError(t, err)
		t.Cleanup(func() { idx.Close() })
	}

	values := map[int32]string{
		1: "alice", 2: "bob", 3: "carol", 4: "dave", 5: "erin",
		6: "frank", 7: "grace", 8: "heidi", 9: "ivan", 10: "judy",
	}
	for k := int32(1); k <= 10; k++ {
		rid, err := rf.Append(k, values[k])
		require.NoError(t, err)
		if withIndex {
			require.NoError(t, idx.Insert(k, rid))
		}
	}
	return rf, idx
}

func TestSelectEqualityIndexed(t *testing.T) {
	rf, idx := buildFixture(t, true)
	res, err := Select(rf, idx, ProjBoth, []Predicate{{Attr: AttrKey, Comp: EQ, KeyLiteral: 5}})
	require.NoError(t, err)
	require.Equal(t, []Tuple{{Key: 5, Value: "erin"}}, res.Tuples)
}

func TestSelectRangeIndexed(t *testing.T) {
	rf, idx := buildFixture(t, true)
	preds := []Predicate{
		{Attr: AttrKey, Comp: GE, KeyLiteral: 3},
		{Attr: AttrKey, Comp: LT, KeyLiteral: 7},
	}
	res, err := Select(rf, idx, ProjKey, preds)
	require.NoError(t, err)
	require.Equal(t, []Tuple{{Key: 3}, {Key: 4}, {Key: 5}, {Key: 6}}, res.Tuples)
}

func TestSelectExclusiveBoundsIndexed(t *testing.T) {
	rf, idx := buildFixture(t, true)
	preds := []Predicate{
		{Attr: AttrKey, Comp: GT, KeyLiteral: 3},
		{Attr: AttrKey, Comp: LE, KeyLiteral: 7},
	}
	res, err := Select(rf, idx, ProjKey, preds)
	require.NoError(t, err)
	require.Equal(t, []Tuple{{Key: 4}, {Key: 5}, {Key: 6}, {Key: 7}}, res.Tuples)
}

func TestSelectNotEqualIndexed(t *testing.T) {
	rf, idx := buildFixture(t, true)
	preds := []Predicate{
		{Attr: AttrKey, Comp: GE, KeyLiteral: 1},
		{Attr: AttrKey, Comp: LE, KeyLiteral: 5},
		{Attr: AttrKey, Comp: NE, KeyLiteral: 3},
	}
	res, err := Select(rf, idx, ProjKey, preds)
	require.NoError(t, err)
	require.Equal(t, []Tuple{{Key: 1}, {Key: 2}, {Key: 4}, {Key: 5}}, res.Tuples)
}

func TestSelectInfeasibleRange(t *testing.T) {
	rf, idx := buildFixture(t, true)
	preds := []Predicate{
		{Attr: AttrKey, Comp: GT, KeyLiteral: 5},
		{Attr: AttrKey, Comp: LT, KeyLiteral: 5},
	}
	res, err := Select(rf, idx, ProjKey, preds)
	require.NoError(t, err)
	require.Empty(t, res.Tuples)
	require.Equal(t, 0, res.Count)
}

func TestSelectResidualValuePredicate(t *testing.T) {
	rf, idx := buildFixture(t, true)
	preds := []Predicate{
		{Attr: AttrValue, Comp: GE, ValueLiteral: "carol"},
		{Attr: AttrValue, Comp: LE, ValueLiteral: "erin"},
	}
	res, err := Select(rf, idx, ProjBoth, preds)
	require.NoError(t, err)
	require.Equal(t, []Tuple{{Key: 3, Value: "carol"}, {Key: 4, Value: "dave"}, {Key: 5, Value: "erin"}}, res.Tuples)
}

func TestSelectCountNoFetch(t *testing.T) {
	rf, idx := buildFixture(t, true)
	preds := []Predicate{
		{Attr: AttrKey, Comp: GE, KeyLiteral: 1},
		{Attr: AttrKey, Comp: LE, KeyLiteral: 10},
	}
	res, err := Select(rf, idx, ProjCount, preds)
	require.NoError(t, err)
	require.Equal(t, 10, res.Count)
	require.Empty(t, res.Tuples)
}

func TestSelectFallbackHeapScan(t *testing.T) {
	rf, _ := buildFixture(t, false)
	preds := []Predicate{
		{Attr: AttrKey, Comp: GE, KeyLiteral: 4},
		{Attr: AttrKey, Comp: LE, KeyLiteral: 6},
	}
	res, err := Select(rf, nil, ProjBoth, preds)
	require.NoError(t, err)
	require.Equal(t, []Tuple{{Key: 4, Value: "dave"}, {Key: 5, Value: "erin"}, {Key: 6, Value: "frank"}}, res.Tuples)
}

func TestSelectWholeTableNoPredicates(t *testing.T) {
	rf, idx := buildFixture(t, true)
	res, err := Select(rf, idx, ProjKey, nil)
	require.NoError(t, err)
	require.Len(t, res.Tuples, 10)
}
