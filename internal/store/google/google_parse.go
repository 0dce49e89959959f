package google

import (
	"fmt"
	"strings"
)

// findKeyRow scans a values matrix whose first column holds keys and returns
// the 1-based sheet row of key together with the second column's value.
// The first match wins; rows with a blank key are ignored.
func findKeyRow(values [][]interface{}, key string) (row int, value string, ok bool) {
	for i, r := range values {
		if len(r) == 0 {
			continue
		}
		if cellString(r, 0) != key {
			continue
		}
		return i + 1, cellString(r, 1), true
	}
	return 0, "", false
}

func cellString(row []interface{}, i int) string {
	if i < 0 || i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
