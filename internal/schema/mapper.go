// Package schema maps free-form spreadsheet headers onto the canonical column
// names used by the rest of the pipeline.
package schema

import (
	"fmt"
	"strings"
)

// AliasTable maps a normalized alias to its canonical column name.
type AliasTable map[string]string

// Normalize reduces a header to its comparison key: byte-order marks removed,
// lower-cased, surrounding whitespace trimmed and inner runs collapsed.
func Normalize(header string) string {
	header = strings.ReplaceAll(header, "\ufeff", "")
	return strings.Join(strings.Fields(strings.ToLower(header)), " ")
}

// NewAliasTable builds a table from canonical name to synonyms. Every
// canonical name is also an alias of itself.
func NewAliasTable(synonyms map[string][]string) (AliasTable, error) {
	t := make(AliasTable)
	for canonical, aliases := range synonyms {
		for _, alias := range append([]string{canonical}, aliases...) {
			if err := t.add(alias, canonical); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (t AliasTable) add(alias, canonical string) error {
	key := Normalize(alias)
	if key == "" {
		return fmt.Errorf("empty alias for column %q", canonical)
	}
	if existing, ok := t[key]; ok && existing != canonical {
		return fmt.Errorf("alias %q maps to both %q and %q", alias, existing, canonical)
	}
	t[key] = canonical
	return nil
}

// Merge returns a copy of t extended with extra synonyms.
func (t AliasTable) Merge(synonyms map[string][]string) (AliasTable, error) {
	out := make(AliasTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	for canonical, aliases := range synonyms {
		for _, alias := range append([]string{canonical}, aliases...) {
			if err := out.add(alias, canonical); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Canonical resolves one header.
func (t AliasTable) Canonical(header string) (string, bool) {
	canonical, ok := t[Normalize(header)]
	return canonical, ok
}

// MapHeaders renames every header that has an alias entry. Unknown headers
// are returned exactly as given.
func (t AliasTable) MapHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if canonical, ok := t.Canonical(h); ok {
			out[i] = canonical
		} else {
			out[i] = h
		}
	}
	return out
}
