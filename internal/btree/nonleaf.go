package btree

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"btreedb/internal/pagefile"
)

// nonLeafEntrySize is the stride of a (key, childPid) pair.
const nonLeafEntrySize = 8

// nonLeafHeaderSize is keyCount(4) + leftmost child pointer(4).
const nonLeafHeaderSize = 8

// MaxKeysNonLeaf is the largest number of keys a non-leaf page can hold
// (it therefore has up to MaxKeysNonLeaf+1 children).
const MaxKeysNonLeaf = (pagefile.PageSize - nonLeafHeaderSize) / nonLeafEntrySize

// nonLeafNode is the in-memory view of an internal page: a leftmost child
// pointer followed by keyCount (key, rightChildPid) pairs. Child 0 (the
// leftmost pointer) is the subtree for keys < key[0], child i is the subtree
// for keys in [key[i-1], key[i]), and child keyCount is the subtree for
// keys >= key[keyCount-1].
type nonLeafNode struct {
	buf []byte
}

func newNonLeafNode(leftmost pagefile.PageId) *nonLeafNode {
	buf := make([]byte, pagefile.PageSize)
	n := &nonLeafNode{buf: buf}
	n.setKeyCount(0)
	n.setChildAt(0, leftmost)
	return n
}

func readNonLeafNode(pf *pagefile.PageFile, pid pagefile.PageId) (*nonLeafNode, error) {
	buf, err := pf.ReadPage(pid)
	if err != nil {
		return nil, errors.Wrapf(ErrFileReadFailed, "non-leaf page %d: %v", pid, err)
	}
	return &nonLeafNode{buf: buf}, nil
}

func (n *nonLeafNode) write(pf *pagefile.PageFile, pid pagefile.PageId) error {
	if err := pf.WritePage(pid, n.buf); err != nil {
		return errors.Wrapf(ErrFileWriteFailed, "non-leaf page %d: %v", pid, err)
	}
	return nil
}

func (n *nonLeafNode) KeyCount() int32 {
	return int32(binary.LittleEndian.Uint32(n.buf[0:4]))
}

func (n *nonLeafNode) setKeyCount(c int32) {
	binary.LittleEndian.PutUint32(n.buf[0:4], uint32(c))
}

func nlKeyOff(i int32) int {
	return nonLeafHeaderSize + int(i)*nonLeafEntrySize
}

// child(i) is the pointer to the left of key i (i in [0, keyCount]); i == 0
// is the leftmost pointer stored at offset 4.
func (n *nonLeafNode) ChildAt(i int32) pagefile.PageId {
	if i == 0 {
		return pagefile.PageId(int32(binary.LittleEndian.Uint32(n.buf[4:8])))
	}
	off := nlKeyOff(i - 1)
	return pagefile.PageId(int32(binary.LittleEndian.Uint32(n.buf[off+4 : off+8])))
}

func (n *nonLeafNode) setChildAt(i int32, pid pagefile.PageId) {
	if i == 0 {
		binary.LittleEndian.PutUint32(n.buf[4:8], uint32(int32(pid)))
		return
	}
	off := nlKeyOff(i - 1)
	binary.LittleEndian.PutUint32(n.buf[off+4:off+8], uint32(int32(pid)))
}

func (n *nonLeafNode) KeyAt(i int32) int32 {
	off := nlKeyOff(i)
	return int32(binary.LittleEndian.Uint32(n.buf[off : off+4]))
}

func (n *nonLeafNode) setKeyAt(i int32, key int32) {
	off := nlKeyOff(i)
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(key))
}

// LocateChild returns the index of the child subtree that must contain key:
// the largest i such that key >= KeyAt(i-1), i.e. the number of keys
// strictly less than or equal to... concretely, child c holds keys in
// [KeyAt(c-1), KeyAt(c)) with the leftmost and rightmost ends open.
func (n *nonLeafNode) LocateChild(key int32) int32 {
	count := n.KeyCount()
	lo, hi := int32(0), count
	for lo < hi {
		mid := (lo + hi) / 2
		if n.KeyAt(mid) <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Insert adds a (key, rightChildPid) pair in sorted position: rightChildPid
// becomes the child to the right of key, i.e. the subtree for keys >= key
// (until the next key). It returns errNodeFull when the page is full.
func (n *nonLeafNode) Insert(key int32, rightChildPid pagefile.PageId) error {
	count := n.KeyCount()
	if count >= MaxKeysNonLeaf {
		return errNodeFull
	}

	idx := int32(0)
	for idx < count && n.KeyAt(idx) <= key {
		idx++
	}

	shiftLen := int(count-idx) * nonLeafEntrySize
	src := nlKeyOff(idx)
	dst := nlKeyOff(idx + 1)
	copy(n.buf[dst:dst+shiftLen], n.buf[src:src+shiftLen])

	n.setKeyAt(idx, key)
	n.setChildAt(idx+1, rightChildPid)
	n.setKeyCount(count + 1)
	return nil
}

// InsertAndSplit inserts (key, rightChildPid) into a full non-leaf,
// redistributing the MaxKeysNonLeaf+1 keys between n (lower half), one
// promoted key returned to the caller, and sibling (upper half), per the
// ⌈(MAX+1)/2⌉-in-source rule.
func (n *nonLeafNode) InsertAndSplit(key int32, rightChildPid pagefile.PageId, sibling *nonLeafNode) (int32, error) {
	count := n.KeyCount()
	if count != MaxKeysNonLeaf {
		return 0, errors.Errorf("btree: InsertAndSplit called on non-full non-leaf (%d keys)", count)
	}

	total := count + 1 // keys after insertion
	// Build a temporary combined key list and a parallel child list
	// (children[0..total] where children[i] is left of keys[i]).
	keys := make([]int32, 0, total)
	children := make([]pagefile.PageId, 0, total+1)
	children = append(children, n.ChildAt(0))

	idx := int32(0)
	for idx < count && n.KeyAt(idx) <= key {
		keys = append(keys, n.KeyAt(idx))
		children = append(children, n.ChildAt(idx+1))
		idx++
	}
	keys = append(keys, key)
	children = append(children, rightChildPid)
	for ; idx < count; idx++ {
		keys = append(keys, n.KeyAt(idx))
		children = append(children, n.ChildAt(idx+1))
	}

	lessKey := (int(total) + 1) / 2
	promoted := keys[lessKey]
	moreKey := int(total) - lessKey - 1

	n.setKeyCount(int32(lessKey))
	n.setChildAt(0, children[0])
	for i := 0; i < lessKey; i++ {
		n.setKeyAt(int32(i), keys[i])
		n.setChildAt(int32(i+1), children[i+1])
	}

	sibling.setKeyCount(int32(moreKey))
	sibling.setChildAt(0, children[lessKey+1])
	for i := 0; i < moreKey; i++ {
		sibling.setKeyAt(int32(i), keys[lessKey+1+i])
		sibling.setChildAt(int32(i+1), children[lessKey+2+i])
	}

	return promoted, nil
}
