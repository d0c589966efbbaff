package google

import (
	"fmt"
	"strconv"
	"strings"
)

// parseStartRow extracts the first row number from an updated range returned
// by an append, e.g. "Ledger!A5:L6" -> 5. The sheet name may itself contain
// '!' only when quoted, which the Sheets API never emits, so splitting on the
// last '!' is safe.
func parseStartRow(updatedRange string) (int, error) {
	s := updatedRange
	if i := strings.LastIndex(s, "!"); i >= 0 {
		s = s[i+1:]
	}
	// "A5:L6" or "A5"
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	digits := strings.TrimLeftFunc(s, func(r rune) bool {
		return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r == '$'
	})
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return 0, fmt.Errorf("unexpected updated range %q", updatedRange)
	}
	return row, nil
}
