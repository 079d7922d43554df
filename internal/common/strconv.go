package common

import "strconv"

// AtoiDefault parses value as an integer, returning def for empty or
// unparseable input. Query parameters route through this.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
