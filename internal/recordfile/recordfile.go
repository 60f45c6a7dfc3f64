// Package recordfile implements the heap table store the B+ tree index
// points into: an opaque, byte-addressable, append-only sequence of
// (key, value) records identified by a RecordId that increases
// monotonically with insertion order. This is the "RecordFile" contract
// spec.md §1 and §6 describe as external to the B+ tree CORE; the index
// itself never interprets a RecordId beyond its byte width and ordering.
package recordfile

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"btreedb/internal/pagefile"
)

// RecordId is an ordered pair (PageID, SlotID). Its zero value is the
// first possible record location; RecordIds compare lexicographically.
type RecordId struct {
	PageID int32
	SlotID int32
}

// Less reports whether r sorts strictly before o.
func (r RecordId) Less(o RecordId) bool {
	if r.PageID != o.PageID {
		return r.PageID < o.PageID
	}
	return r.SlotID < o.SlotID
}

// Equal reports whether r and o identify the same record.
func (r RecordId) Equal(o RecordId) bool {
	return r.PageID == o.PageID && r.SlotID == o.SlotID
}

const (
	pageMagic     = "RFH1"
	headerSize    = 16 // magic(4) + pageID(4) + numSlots(2) + freeStart(2) + reserved(4)
	slotDirEntry  = 4  // offset(uint16) + length(uint16)
	pageSize      = pagefile.PageSize
	maxSlotOffset = pageSize
)

// RecordFile is an append-only heap of (key, value) records backed by a
// PageFile. There is no delete and no record reuse: spec.md §1 lists
// deletion and compaction as explicit Non-goals of the CORE this store
// serves.
type RecordFile struct {
	pf      *pagefile.PageFile
	lastPID int32
	cur     []byte // in-memory copy of the page currently being appended to
}

// Open opens (or, in write mode, creates) the record file at path.
func Open(path string, mode pagefile.Mode) (*RecordFile, error) {
	pf, err := pagefile.Open(path, mode)
	if err != nil {
		return nil, errors.Wrap(err, "recordfile: open")
	}

	rf := &RecordFile{pf: pf}

	if pf.IsEmpty() {
		rf.lastPID = 0
		rf.cur = newPage(0)
		if mode == pagefile.ReadWrite {
			if err := rf.pf.WritePage(pagefile.PageId(0), rf.cur); err != nil {
				pf.Close()
				return nil, errors.Wrap(err, "recordfile: init first page")
			}
		}
		return rf, nil
	}

	rf.lastPID = int32(pf.EndPID()) - 1
	buf, err := pf.ReadPage(pagefile.PageId(rf.lastPID))
	if err != nil {
		pf.Close()
		return nil, errors.Wrap(err, "recordfile: read last page")
	}
	rf.cur = buf
	return rf, nil
}

// Close closes the underlying page file.
func (rf *RecordFile) Close() error {
	if err := rf.pf.Close(); err != nil {
		return errors.Wrap(err, "recordfile: close")
	}
	return nil
}

// EndRID returns the RecordId one past the last appended record; it is
// the iteration terminator for Scan, and the location the next Append will
// use unless the current page has no room for that record, in which case
// Append starts a new page at slot 0.
func (rf *RecordFile) EndRID() RecordId {
	return RecordId{PageID: rf.lastPID, SlotID: int32(numSlots(rf.cur))}
}

// Append writes (key, value) as a new record and returns its RecordId.
func (rf *RecordFile) Append(key int32, value string) (RecordId, error) {
	row := encodeRow(key, value)

	if !pageHasRoom(rf.cur, len(row)) {
		rf.lastPID++
		rf.cur = newPage(uint32(rf.lastPID))
	}

	slot := numSlots(rf.cur)
	freeStart := getFreeStart(rf.cur)

	copy(rf.cur[freeStart:int(freeStart)+len(row)], row)
	setSlot(rf.cur, slot, freeStart, uint16(len(row)))
	setNumSlots(rf.cur, slot+1)
	setFreeStart(rf.cur, freeStart+uint16(len(row)))

	if err := rf.pf.WritePage(pagefile.PageId(rf.lastPID), rf.cur); err != nil {
		return RecordId{}, errors.Wrap(err, "recordfile: append")
	}

	return RecordId{PageID: rf.lastPID, SlotID: int32(slot)}, nil
}

// Read returns the (key, value) stored at rid.
func (rf *RecordFile) Read(rid RecordId) (int32, string, error) {
	var page []byte
	if rid.PageID == rf.lastPID {
		page = rf.cur
	} else {
		buf, err := rf.pf.ReadPage(pagefile.PageId(rid.PageID))
		if err != nil {
			return 0, "", errors.Wrapf(err, "recordfile: read record %+v", rid)
		}
		page = buf
	}

	n := numSlots(page)
	if rid.SlotID < 0 || uint16(rid.SlotID) >= n {
		return 0, "", errors.Errorf("recordfile: slot %d out of range (page has %d)", rid.SlotID, n)
	}
	off, length := getSlot(page, uint16(rid.SlotID))
	key, value := decodeRow(page[off : int(off)+int(length)])
	return key, value, nil
}

// Cursor scans records in RecordId order from the start of the file.
type Cursor struct {
	rf  *RecordFile
	rid RecordId
	end RecordId
}

// Scan returns a cursor positioned at the first record.
func (rf *RecordFile) Scan() *Cursor {
	return &Cursor{rf: rf, rid: RecordId{}, end: rf.EndRID()}
}

// Next returns the next (RecordId, key, value) in the scan, or ok=false
// once the cursor has passed the last record.
func (c *Cursor) Next() (rid RecordId, key int32, value string, ok bool, err error) {
	if c.rid.PageID > c.end.PageID || (c.rid.PageID == c.end.PageID && c.rid.SlotID >= c.end.SlotID) {
		return RecordId{}, 0, "", false, nil
	}

	key, value, err = c.rf.Read(c.rid)
	if err != nil {
		return RecordId{}, 0, "", false, err
	}
	rid = c.rid

	page, perr := c.rf.pageFor(c.rid.PageID)
	if perr != nil {
		return RecordId{}, 0, "", false, perr
	}
	if uint16(c.rid.SlotID)+1 >= numSlots(page) {
		c.rid = RecordId{PageID: c.rid.PageID + 1, SlotID: 0}
	} else {
		c.rid.SlotID++
	}

	return rid, key, value, true, nil
}

func (rf *RecordFile) pageFor(pid int32) ([]byte, error) {
	if pid == rf.lastPID {
		return rf.cur, nil
	}
	buf, err := rf.pf.ReadPage(pagefile.PageId(pid))
	if err != nil {
		return nil, errors.Wrapf(err, "recordfile: read page %d", pid)
	}
	return buf, nil
}

// --- page layout helpers ---

func newPage(pageID uint32) []byte {
	buf := make([]byte, pageSize)
	copy(buf[0:4], pageMagic)
	binary.LittleEndian.PutUint32(buf[4:8], pageID)
	setNumSlots(buf, 0)
	setFreeStart(buf, headerSize)
	return buf
}

func numSlots(p []byte) uint16 {
	return binary.LittleEndian.Uint16(p[8:10])
}

func setNumSlots(p []byte, n uint16) {
	binary.LittleEndian.PutUint16(p[8:10], n)
}

func getFreeStart(p []byte) uint16 {
	return binary.LittleEndian.Uint16(p[10:12])
}

func setFreeStart(p []byte, off uint16) {
	binary.LittleEndian.PutUint16(p[10:12], off)
}

func slotPos(i uint16) int {
	return pageSize - int(i+1)*slotDirEntry
}

func getSlot(p []byte, i uint16) (uint16, uint16) {
	pos := slotPos(i)
	return binary.LittleEndian.Uint16(p[pos : pos+2]), binary.LittleEndian.Uint16(p[pos+2 : pos+4])
}

func setSlot(p []byte, i uint16, off, length uint16) {
	pos := slotPos(i)
	binary.LittleEndian.PutUint16(p[pos:pos+2], off)
	binary.LittleEndian.PutUint16(p[pos+2:pos+4], length)
}

func pageHasRoom(p []byte, rowLen int) bool {
	freeStart := getFreeStart(p)
	n := numSlots(p)
	freeEnd := pageSize - int(n+1)*slotDirEntry
	return int(freeStart)+rowLen <= freeEnd
}

// --- row codec: [key int32][valueLen uint16][value bytes] ---

func encodeRow(key int32, value string) []byte {
	buf := make([]byte, 4+2+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(key))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(value)))
	copy(buf[6:], value)
	return buf
}

func decodeRow(buf []byte) (int32, string) {
	key := int32(binary.LittleEndian.Uint32(buf[0:4]))
	vlen := binary.LittleEndian.Uint16(buf[4:6])
	value := string(buf[6 : 6+int(vlen)])
	return key, value
}
