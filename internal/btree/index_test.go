package btree

import (
	"math/rand"
	"path/filepath"
	"testing"

	"btreedb/internal/pagefile"
	"btreedb/internal/recordfile"
)

func scanAll(t *testing.T, idx *BTreeIndex) []int32 {
	t.Helper()
	cur, err := idx.Locate(0)
	if err != nil {
		t.Fatalf("Locate(0): %v", err)
	}
	var got []int32
	for {
		k, _, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, k)
	}
	return got
}

func TestInsertManyStaysSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.idx")
	idx, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	const n = 2000
	perm := rand.New(rand.NewSource(1)).Perm(n)
	for _, k := range perm {
		if err := idx.Insert(int32(k), recordfile.RecordId{PageID: int32(k), SlotID: 0}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	if idx.Height() < 2 {
		t.Fatalf("height = %d, want >= 2 for %d inserts (root should have split)", idx.Height(), n)
	}

	got := scanAll(t, idx)
	if len(got) != n {
		t.Fatalf("scanned %d keys, want %d", len(got), n)
	}
	for i, k := range got {
		if k != int32(i) {
			t.Fatalf("scan[%d] = %d, want %d (must be fully sorted)", i, k, i)
		}
	}
}

func TestLocateExactAndRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.idx")
	idx, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	for _, k := range []int32{10, 20, 30, 40, 50} {
		if err := idx.Insert(k, recordfile.RecordId{PageID: k, SlotID: 0}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	cur, err := idx.Locate(25)
	if err != nil {
		t.Fatalf("Locate(25): %v", err)
	}
	k, _, ok, err := cur.Next()
	if err != nil || !ok {
		t.Fatalf("Next after Locate(25): k=%d ok=%v err=%v", k, ok, err)
	}
	if k != 30 {
		t.Fatalf("Locate(25).Next() = %d, want 30 (first key >= target)", k)
	}

	cur, err = idx.Locate(100)
	if err != nil {
		t.Fatalf("Locate(100): %v", err)
	}
	if _, _, ok, _ := cur.Next(); ok {
		t.Fatalf("Locate(100) past every key should yield no entries")
	}
}

func TestRoundTripEveryInsertedKeyReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.idx")
	idx, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	keys := rand.New(rand.NewSource(7)).Perm(500)
	want := map[int32]recordfile.RecordId{}
	for _, k := range keys {
		rid := recordfile.RecordId{PageID: int32(k) / 10, SlotID: int32(k) % 10}
		if err := idx.Insert(int32(k), rid); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
		want[int32(k)] = rid
	}

	for k, wantRid := range want {
		cur, err := idx.Locate(k)
		if err != nil {
			t.Fatalf("Locate(%d): %v", k, err)
		}
		gotKey, gotRid, ok, err := cur.Next()
		if err != nil || !ok {
			t.Fatalf("Locate(%d).Next(): ok=%v err=%v", k, ok, err)
		}
		if gotKey != k || gotRid != wantRid {
			t.Fatalf("key %d: got (%d, %+v), want (%d, %+v)", k, gotKey, gotRid, k, wantRid)
		}
	}
}

func TestHeaderPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.idx")

	idx, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := int32(0); i < 1000; i++ {
		if err := idx.Insert(i, recordfile.RecordId{PageID: i, SlotID: 0}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	wantHeight := idx.Height()
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx2, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	if idx2.Height() != wantHeight {
		t.Fatalf("height after reopen = %d, want %d", idx2.Height(), wantHeight)
	}

	got := scanAll(t, idx2)
	if len(got) != 1000 {
		t.Fatalf("scanned %d keys after reopen, want 1000", len(got))
	}

	if err := idx2.Insert(1000, recordfile.RecordId{PageID: 1000, SlotID: 0}); err != nil {
		t.Fatalf("Insert after reopen: %v", err)
	}
	got = scanAll(t, idx2)
	if len(got) != 1001 || got[1000] != 1000 {
		t.Fatalf("scan after reopen+insert = %v (len %d)", got[len(got)-1], len(got))
	}
}

func TestEmptyTreeLocate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.idx")
	idx, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	cur, err := idx.Locate(5)
	if err != nil {
		t.Fatalf("Locate on empty tree: %v", err)
	}
	if _, _, ok, _ := cur.Next(); ok {
		t.Fatalf("empty tree should yield no entries")
	}
}
