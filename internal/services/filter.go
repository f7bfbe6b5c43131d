package services

import (
	"slices"

	"smart-dashboard/internal/models"
)

// Filter keeps the rows whose value in every restricted column is one of the
// accepted values. Order is preserved and the input is never modified.
func Filter[R models.Row](rows []R, spec models.FilterSpec) []R {
	if !spec.Active() {
		return slices.Clone(rows)
	}

	out := make([]R, 0, len(rows))
	for _, row := range rows {
		if matches(row, spec) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row models.Row, spec models.FilterSpec) bool {
	for col, accepted := range spec {
		if len(accepted) == 0 {
			continue
		}
		if !slices.Contains(accepted, row.Value(col)) {
			return false
		}
	}
	return true
}

// DistinctValues lists the non-empty values of column in first-seen order.
func DistinctValues[R models.Row](rows []R, column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range rows {
		v := row.Value(column)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// FilterOptions returns the selectable values of each categorical column.
func FilterOptions[R models.Row](rows []R, columns ...string) map[string][]string {
	opts := make(map[string][]string, len(columns))
	for _, col := range columns {
		opts[col] = DistinctValues(rows, col)
	}
	return opts
}
