package models

import (
	"fmt"
	"slices"
	"sort"
)

// FilterSpec maps a canonical column to its accepted values. A missing key or
// an empty value list leaves that column unrestricted.
type FilterSpec map[string][]string

// Validate rejects keys that are not among the given canonical columns.
func (s FilterSpec) Validate(columns []string) error {
	var unknown []string
	for col := range s {
		if !slices.Contains(columns, col) {
			unknown = append(unknown, col)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown filter columns %q", unknown)
	}
	return nil
}

// Active reports whether any column is actually restricted.
func (s FilterSpec) Active() bool {
	for _, values := range s {
		if len(values) > 0 {
			return true
		}
	}
	return false
}
