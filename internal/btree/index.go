// Package btree implements the disk-resident B+ tree index: a fixed-width
// paged index over int32 keys, mapping each key to a recordfile.RecordId.
// Internal (non-leaf) pages route descents; leaf pages hold sorted
// (key, RecordId) entries chained left to right for forward range scans.
package btree

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"btreedb/internal/pagefile"
	"btreedb/internal/recordfile"
)

// headerPid is the fixed page that stores the tree's height and root
// pointer; leaf and non-leaf pages start at pid 1.
const headerPid = pagefile.PageId(0)

// BTreeIndex is a single disk-resident B+ tree, opened over its own
// pagefile.PageFile. Height 0 means the tree is empty (no root allocated
// yet); height 1 means the root is itself a leaf.
type BTreeIndex struct {
	pf      *pagefile.PageFile
	height  int32
	rootPid pagefile.PageId
}

// Open opens the index file at path, creating it (with an empty tree) if it
// does not exist and mode is pagefile.ReadWrite.
func Open(path string, mode pagefile.Mode) (*BTreeIndex, error) {
	pf, err := pagefile.Open(path, mode)
	if err != nil {
		return nil, errors.Wrapf(ErrFileOpenFailed, "%s: %v", path, err)
	}

	idx := &BTreeIndex{pf: pf}

	if pf.IsEmpty() {
		idx.height = 0
		idx.rootPid = pagefile.InvalidPageId
		if mode == pagefile.ReadWrite {
			if err := idx.writeHeader(); err != nil {
				pf.Close()
				return nil, err
			}
		}
		return idx, nil
	}

	if err := idx.readHeader(); err != nil {
		pf.Close()
		return nil, err
	}
	return idx, nil
}

// Close persists the tree header and closes the underlying page file.
func (idx *BTreeIndex) Close() error {
	if err := idx.writeHeader(); err != nil {
		idx.pf.Close()
		return err
	}
	if err := idx.pf.Close(); err != nil {
		return errors.Wrap(err, "btree: close")
	}
	return nil
}

// Height reports the current tree height (0 for an empty tree).
func (idx *BTreeIndex) Height() int32 { return idx.height }

// readHeader and writeHeader implement the on-disk format spec.md §6
// specifies exactly: page 0 is little-endian treeHeight followed by
// rootPid, with no magic number, checksum, or version field.
func (idx *BTreeIndex) readHeader() error {
	buf, err := idx.pf.ReadPage(headerPid)
	if err != nil {
		return errors.Wrapf(ErrFileReadFailed, "header: %v", err)
	}
	idx.height = int32(binary.LittleEndian.Uint32(buf[0:4]))
	idx.rootPid = pagefile.PageId(int32(binary.LittleEndian.Uint32(buf[4:8])))
	return nil
}

func (idx *BTreeIndex) writeHeader() error {
	buf := make([]byte, pagefile.PageSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(idx.height))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(idx.rootPid)))
	if err := idx.pf.WritePage(headerPid, buf); err != nil {
		return errors.Wrapf(ErrFileWriteFailed, "header: %v", err)
	}
	return nil
}

// Insert adds (key, rid) to the tree, allocating a root leaf on the first
// call and growing the tree upward whenever the root itself splits.
func (idx *BTreeIndex) Insert(key int32, rid recordfile.RecordId) error {
	if idx.height == 0 {
		leaf := newLeafNode()
		pid, err := idx.allocatePage()
		if err != nil {
			return err
		}
		if err := leaf.Insert(key, rid); err != nil {
			return errors.Wrap(err, "btree: insert into fresh root leaf")
		}
		if err := leaf.write(idx.pf, pid); err != nil {
			return err
		}
		idx.rootPid = pid
		idx.height = 1
		return nil
	}

	promotedKey, siblingPid, split, err := idx.insertRecursive(idx.rootPid, idx.height, key, rid)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}

	newRoot := newNonLeafNode(idx.rootPid)
	if err := newRoot.Insert(promotedKey, siblingPid); err != nil {
		return errors.Wrap(err, "btree: build new root")
	}
	newRootPid, err := idx.allocatePage()
	if err != nil {
		return err
	}
	if err := newRoot.write(idx.pf, newRootPid); err != nil {
		return err
	}
	idx.rootPid = newRootPid
	idx.height++
	return nil
}

// insertRecursive inserts (key, rid) into the subtree rooted at pid (which
// is at the given height, 1 meaning a leaf). If the node at pid had to
// split, split is true and (promotedKey, siblingPid) describe the entry the
// caller must insert into its own parent.
func (idx *BTreeIndex) insertRecursive(pid pagefile.PageId, height int32, key int32, rid recordfile.RecordId) (int32, pagefile.PageId, bool, error) {
	if height == 1 {
		leaf, err := readLeafNode(idx.pf, pid)
		if err != nil {
			return 0, 0, false, err
		}

		if err := leaf.Insert(key, rid); err == nil {
			if err := leaf.write(idx.pf, pid); err != nil {
				return 0, 0, false, err
			}
			return 0, 0, false, nil
		} else if !errors.Is(err, errNodeFull) {
			return 0, 0, false, err
		}

		sibling := newLeafNode()
		siblingPid, err := idx.allocatePage()
		if err != nil {
			return 0, 0, false, err
		}
		firstKeyOut, err := leaf.InsertAndSplit(key, rid, sibling)
		if err != nil {
			return 0, 0, false, err
		}
		// InsertAndSplit already gave sibling the source's old next-leaf
		// pointer; the source now points at the new sibling.
		leaf.SetNextLeafPid(siblingPid)

		if err := leaf.write(idx.pf, pid); err != nil {
			return 0, 0, false, err
		}
		if err := sibling.write(idx.pf, siblingPid); err != nil {
			return 0, 0, false, err
		}
		return firstKeyOut, siblingPid, true, nil
	}

	node, err := readNonLeafNode(idx.pf, pid)
	if err != nil {
		return 0, 0, false, err
	}
	childIdx := node.LocateChild(key)
	childPid := node.ChildAt(childIdx)

	promotedKey, siblingPid, childSplit, err := idx.insertRecursive(childPid, height-1, key, rid)
	if err != nil {
		return 0, 0, false, err
	}
	if !childSplit {
		return 0, 0, false, nil
	}

	if err := node.Insert(promotedKey, siblingPid); err == nil {
		if err := node.write(idx.pf, pid); err != nil {
			return 0, 0, false, err
		}
		return 0, 0, false, nil
	} else if !errors.Is(err, errNodeFull) {
		return 0, 0, false, err
	}

	sibling := newNonLeafNode(pagefile.InvalidPageId)
	siblingNodePid, err := idx.allocatePage()
	if err != nil {
		return 0, 0, false, err
	}
	outKey, err := node.InsertAndSplit(promotedKey, siblingPid, sibling)
	if err != nil {
		return 0, 0, false, err
	}
	if err := node.write(idx.pf, pid); err != nil {
		return 0, 0, false, err
	}
	if err := sibling.write(idx.pf, siblingNodePid); err != nil {
		return 0, 0, false, err
	}
	return outKey, siblingNodePid, true, nil
}

// allocatePage reserves the next page id. The page is not actually
// committed to disk until the caller writes it; WritePage/AppendPage treat
// the first write past the current end of file as the allocation.
func (idx *BTreeIndex) allocatePage() (pagefile.PageId, error) {
	return idx.pf.EndPID(), nil
}
