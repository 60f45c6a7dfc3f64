package btree

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"btreedb/internal/pagefile"
	"btreedb/internal/recordfile"
)

// leafEntrySize is the stride of a (RecordId, key) pair on a leaf page:
// PageID(4) + SlotID(4) + key(4).
const leafEntrySize = 12

// leafHeaderSize is the keyCount field at offset 0.
const leafHeaderSize = 4

// leafTrailerSize is the nextLeafPid field that follows the last entry.
const leafTrailerSize = 4

// MaxKeysLeaf is the largest number of entries a leaf page can hold.
const MaxKeysLeaf = (pagefile.PageSize - leafHeaderSize - leafTrailerSize) / leafEntrySize

// leafNode is the in-memory view of one leaf page: a sorted run of
// (key, RecordId) entries followed by a pointer to the next leaf in key
// order, enabling forward range scans without revisiting the tree.
type leafNode struct {
	buf []byte
}

func newLeafNode() *leafNode {
	buf := make([]byte, pagefile.PageSize)
	n := &leafNode{buf: buf}
	n.setKeyCount(0)
	n.SetNextLeafPid(pagefile.InvalidPageId)
	return n
}

func readLeafNode(pf *pagefile.PageFile, pid pagefile.PageId) (*leafNode, error) {
	buf, err := pf.ReadPage(pid)
	if err != nil {
		return nil, errors.Wrapf(ErrFileReadFailed, "leaf page %d: %v", pid, err)
	}
	return &leafNode{buf: buf}, nil
}

func (n *leafNode) write(pf *pagefile.PageFile, pid pagefile.PageId) error {
	if err := pf.WritePage(pid, n.buf); err != nil {
		return errors.Wrapf(ErrFileWriteFailed, "leaf page %d: %v", pid, err)
	}
	return nil
}

func (n *leafNode) KeyCount() int32 {
	return int32(binary.LittleEndian.Uint32(n.buf[0:4]))
}

func (n *leafNode) setKeyCount(c int32) {
	binary.LittleEndian.PutUint32(n.buf[0:4], uint32(c))
}

func entryOff(i int32) int {
	return leafHeaderSize + int(i)*leafEntrySize
}

func (n *leafNode) trailerOff() int {
	return entryOff(n.KeyCount())
}

func (n *leafNode) NextLeafPid() pagefile.PageId {
	off := n.trailerOff()
	return pagefile.PageId(int32(binary.LittleEndian.Uint32(n.buf[off : off+4])))
}

func (n *leafNode) SetNextLeafPid(pid pagefile.PageId) {
	off := n.trailerOff()
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(int32(pid)))
}

// ReadEntry returns the key and RecordId stored at entry index i.
func (n *leafNode) ReadEntry(i int32) (int32, recordfile.RecordId) {
	off := entryOff(i)
	rid := recordfile.RecordId{
		PageID: int32(binary.LittleEndian.Uint32(n.buf[off : off+4])),
		SlotID: int32(binary.LittleEndian.Uint32(n.buf[off+4 : off+8])),
	}
	key := int32(binary.LittleEndian.Uint32(n.buf[off+8 : off+12]))
	return key, rid
}

func (n *leafNode) writeEntry(i int32, key int32, rid recordfile.RecordId) {
	off := entryOff(i)
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(rid.PageID))
	binary.LittleEndian.PutUint32(n.buf[off+4:off+8], uint32(rid.SlotID))
	binary.LittleEndian.PutUint32(n.buf[off+8:off+12], uint32(key))
}

// Locate returns the index of the first entry with key >= target, which is
// either the position of an exact match or the insertion point that keeps
// entries sorted.
func (n *leafNode) Locate(target int32) int32 {
	count := n.KeyCount()
	lo, hi := int32(0), count
	for lo < hi {
		mid := (lo + hi) / 2
		k, _ := n.ReadEntry(mid)
		if k < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Insert places (key, rid) in sorted order. It returns errNodeFull if the
// page is already at MaxKeysLeaf and cannot accept another entry; callers
// must split in that case.
func (n *leafNode) Insert(key int32, rid recordfile.RecordId) error {
	count := n.KeyCount()
	if count >= MaxKeysLeaf {
		return errNodeFull
	}

	next := n.NextLeafPid()
	eid := n.Locate(key)

	shiftLen := int(count-eid) * leafEntrySize
	src := entryOff(eid)
	dst := entryOff(eid + 1)
	copy(n.buf[dst:dst+shiftLen], n.buf[src:src+shiftLen])

	n.writeEntry(eid, key, rid)
	n.setKeyCount(count + 1)
	n.SetNextLeafPid(next)
	return nil
}

// InsertAndSplit inserts (key, rid) into a full leaf, redistributing all
// MaxKeysLeaf+1 entries between n (kept as the lower half) and sibling (the
// upper half), per the ⌈(MAX+1)/2⌉-in-source rule. It returns the first key
// of sibling, which the caller promotes into the parent non-leaf.
func (n *leafNode) InsertAndSplit(key int32, rid recordfile.RecordId, sibling *leafNode) (int32, error) {
	count := n.KeyCount()
	if count != MaxKeysLeaf {
		return 0, errors.Errorf("btree: InsertAndSplit called on non-full leaf (%d entries)", count)
	}

	total := count + 1
	tmp := make([]byte, total*leafEntrySize)
	eid := n.Locate(key)

	copy(tmp[0:int(eid)*leafEntrySize], n.buf[leafHeaderSize:leafHeaderSize+int(eid)*leafEntrySize])
	binary.LittleEndian.PutUint32(tmp[int(eid)*leafEntrySize:], uint32(rid.PageID))
	binary.LittleEndian.PutUint32(tmp[int(eid)*leafEntrySize+4:], uint32(rid.SlotID))
	binary.LittleEndian.PutUint32(tmp[int(eid)*leafEntrySize+8:], uint32(key))
	copy(tmp[int(eid+1)*leafEntrySize:], n.buf[entryOff(eid):entryOff(count)])

	lessKey := (total + 1) / 2
	moreKey := total - lessKey

	oldNext := n.NextLeafPid()

	n.setKeyCount(int32(lessKey))
	copy(n.buf[leafHeaderSize:leafHeaderSize+lessKey*leafEntrySize], tmp[0:lessKey*leafEntrySize])

	sibling.setKeyCount(int32(moreKey))
	copy(sibling.buf[leafHeaderSize:leafHeaderSize+moreKey*leafEntrySize], tmp[lessKey*leafEntrySize:total*leafEntrySize])
	sibling.SetNextLeafPid(oldNext)

	firstKeyOut, _ := sibling.ReadEntry(0)
	return firstKeyOut, nil
}
