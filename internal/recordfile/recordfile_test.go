package recordfile

import (
	"path/filepath"
	"testing"

	"btreedb/internal/pagefile"
)

func TestAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")

	rf, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()

	rid1, err := rf.Append(10, "alice")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	rid2, err := rf.Append(20, "bob")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if !rid1.Less(rid2) {
		t.Fatalf("expected rid1 < rid2, got %+v, %+v", rid1, rid2)
	}

	k, v, err := rf.Read(rid1)
	if err != nil {
		t.Fatalf("Read rid1: %v", err)
	}
	if k != 10 || v != "alice" {
		t.Fatalf("Read rid1 = (%d, %q), want (10, alice)", k, v)
	}

	k, v, err = rf.Read(rid2)
	if err != nil {
		t.Fatalf("Read rid2: %v", err)
	}
	if k != 20 || v != "bob" {
		t.Fatalf("Read rid2 = (%d, %q), want (20, bob)", k, v)
	}
}

func TestScanOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	rf, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()

	want := []int32{5, 3, 9, 1, 7}
	for _, k := range want {
		if _, err := rf.Append(k, "v"); err != nil {
			t.Fatalf("Append(%d): %v", k, err)
		}
	}

	c := rf.Scan()
	var got []int32
	for {
		_, key, _, ok, err := c.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, key)
	}

	if len(got) != len(want) {
		t.Fatalf("scanned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d = %d, want %d (insertion order must be preserved)", i, got[i], want[i])
		}
	}
}

func TestAppendAcrossPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	rf, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()

	const n = 200
	var rids []RecordId
	for i := 0; i < n; i++ {
		rid, err := rf.Append(int32(i), "0123456789")
		if err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
		rids = append(rids, rid)
	}

	if rids[0].PageID == rids[n-1].PageID {
		t.Fatalf("expected records to span multiple pages")
	}

	for i, rid := range rids {
		k, _, err := rf.Read(rid)
		if err != nil {
			t.Fatalf("Read record %d: %v", i, err)
		}
		if k != int32(i) {
			t.Fatalf("record %d key = %d, want %d", i, k, i)
		}
	}
}

func TestReopenContinuesAppending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")

	rf, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := rf.Append(1, "a"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rf2, err := Open(path, pagefile.ReadWrite)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rf2.Close()

	rid, err := rf2.Append(2, "b")
	if err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	k, v, err := rf2.Read(rid)
	if err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if k != 2 || v != "b" {
		t.Fatalf("Read after reopen = (%d, %q), want (2, b)", k, v)
	}
}
