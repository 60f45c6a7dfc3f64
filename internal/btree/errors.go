package btree

import "github.com/pkg/errors"

// Sentinel errors named in spec.md §7. NodeFull is an internal control-flow
// signal between a node's Insert and its caller's split logic; it never
// escapes the package. NoSuchRecord is returned by Get when a key is absent
// and is expected to be handled by callers, not logged as a failure. Locate
// does not return it: it positions its cursor at the first key >= target
// whether or not target itself is present.
var (
	errNodeFull = errors.New("btree: node full")

	ErrNoSuchRecord      = errors.New("btree: no such record")
	ErrFileOpenFailed    = errors.New("btree: file open failed")
	ErrFileReadFailed    = errors.New("btree: file read failed")
	ErrFileWriteFailed   = errors.New("btree: file write failed")
	ErrInvalidFileFormat = errors.New("btree: invalid file format")
)
