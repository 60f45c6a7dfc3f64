// Package load implements the LOAD operation: reading a CSV-ish file of
// (integer key, string value) lines into a RecordFile, optionally building
// a BTreeIndex over the keys as it goes.
package load

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"btreedb/internal/btree"
)

// ParseLine parses one LOAD source line: leading whitespace, an integer
// key, a comma, optional whitespace, then a value that is either absent
// (empty string), quoted (running to the matching quote or end of line),
// or bare (running to end of line). This mirrors the grammar in spec.md §6
// and the original engine's line parser edge cases exactly.
func ParseLine(line string) (int32, string, error) {
	s := line
	s = strings.TrimLeft(s, " \t")

	key, _ := leadingInt(s)

	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return 0, "", errors.Wrapf(btree.ErrInvalidFileFormat, "line %q: missing comma", line)
	}
	s = s[idx+1:]
	s = strings.TrimLeft(s, " \t")

	if s == "" {
		return key, "", nil
	}

	var delim byte = '\n'
	if s[0] == '\'' || s[0] == '"' {
		delim = s[0]
		s = s[1:]
	}

	if end := strings.IndexByte(s, delim); end >= 0 {
		return key, s[:end], nil
	}
	return key, s, nil
}

// leadingInt parses a leading (possibly signed) decimal integer the way
// atoi does: stop at the first non-digit, treating no digits as 0.
func leadingInt(s string) (int32, int) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, 0
	}
	n, err := strconv.ParseInt(s[:i], 10, 32)
	if err != nil {
		return 0, i
	}
	return int32(n), i
}
