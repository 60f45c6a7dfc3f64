package btree

import (
	"btreedb/internal/pagefile"
	"btreedb/internal/recordfile"
)

// Get returns the RecordId stored for an exact key match, or ErrNoSuchRecord
// if the key is absent.
func (idx *BTreeIndex) Get(key int32) (recordfile.RecordId, error) {
	cur, err := idx.Locate(key)
	if err != nil {
		return recordfile.RecordId{}, err
	}
	k, rid, ok, err := cur.Next()
	if err != nil {
		return recordfile.RecordId{}, err
	}
	if !ok || k != key {
		return recordfile.RecordId{}, ErrNoSuchRecord
	}
	return rid, nil
}

// Cursor walks leaf entries in key order, following nextLeafPid across page
// boundaries. It is positioned by Locate and advanced by Next.
type Cursor struct {
	idx *BTreeIndex
	pid pagefile.PageId
	eid int32
}

// Locate returns a cursor at the first leaf entry with key >= target. If
// the tree is empty, or target is past every key in the tree, the returned
// cursor's first Next call reports ok=false.
func (idx *BTreeIndex) Locate(target int32) (*Cursor, error) {
	if idx.height == 0 {
		return &Cursor{idx: idx, pid: pagefile.InvalidPageId}, nil
	}

	pid := idx.rootPid
	for h := idx.height; h > 1; h-- {
		node, err := readNonLeafNode(idx.pf, pid)
		if err != nil {
			return nil, err
		}
		pid = node.ChildAt(node.LocateChild(target))
	}

	leaf, err := readLeafNode(idx.pf, pid)
	if err != nil {
		return nil, err
	}
	eid := leaf.Locate(target)

	for eid == leaf.KeyCount() {
		next := leaf.NextLeafPid()
		if next == pagefile.InvalidPageId {
			return &Cursor{idx: idx, pid: pagefile.InvalidPageId}, nil
		}
		pid = next
		leaf, err = readLeafNode(idx.pf, pid)
		if err != nil {
			return nil, err
		}
		eid = 0
	}

	return &Cursor{idx: idx, pid: pid, eid: eid}, nil
}

// Next returns the entry the cursor is on and advances past it. ok is false
// once the cursor has walked past the last leaf.
func (c *Cursor) Next() (int32, recordfile.RecordId, bool, error) {
	if c.pid == pagefile.InvalidPageId {
		return 0, recordfile.RecordId{}, false, nil
	}

	leaf, err := readLeafNode(c.idx.pf, c.pid)
	if err != nil {
		return 0, recordfile.RecordId{}, false, err
	}

	key, rid := leaf.ReadEntry(c.eid)

	c.eid++
	for c.eid >= leaf.KeyCount() {
		next := leaf.NextLeafPid()
		if next == pagefile.InvalidPageId {
			c.pid = pagefile.InvalidPageId
			return key, rid, true, nil
		}
		c.pid = next
		leaf, err = readLeafNode(c.idx.pf, c.pid)
		if err != nil {
			return 0, recordfile.RecordId{}, false, err
		}
		c.eid = 0
		if leaf.KeyCount() > 0 {
			break
		}
	}

	return key, rid, true, nil
}
