package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCellRef splits an A1 cell reference ("F7") into a 0-based column
// index and a 1-based row number.
func ParseCellRef(ref string) (col, row int, err error) {
	ref = strings.TrimSpace(ref)
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A') + 1
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("bad cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("bad cell reference %q", ref)
	}
	return col - 1, row, nil
}

// ParseRangeStart returns the top-left corner of an A1 range ("H5:L5").
// A bare cell reference is accepted as a one-cell range.
func ParseRangeStart(rangeSpec string) (col, row int, err error) {
	start := rangeSpec
	if i := strings.Index(rangeSpec, ":"); i >= 0 {
		start = rangeSpec[:i]
	}
	return ParseCellRef(start)
}

// CellRef builds an A1 reference from a 0-based column and 1-based row.
func CellRef(col, row int) string {
	return ColumnName(col) + strconv.Itoa(row)
}

// ColumnName converts a 0-based column index to its letter name (0 -> "A").
func ColumnName(col int) string {
	name := ""
	n := col + 1
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
