// Package symptom holds the canonical form of symptom identifiers.
package symptom

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize maps a raw symptom label onto its canonical form: NFKC, lower
// case, underscores read as spaces, runs of whitespace collapsed.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if r == '_' {
			return ' '
		}
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeAll normalizes every entry, dropping the ones that end up empty.
// Order is preserved and duplicates are kept.
func NormalizeAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s := Normalize(r); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Set is an unordered collection of canonical symptoms.
type Set map[string]struct{}

// NewSet normalizes values and collects them into a Set.
func NewSet(values ...string) Set {
	set := make(Set, len(values))
	for _, v := range values {
		set.Add(v)
	}
	return set
}

// Add inserts the normalized form of value. Empty values are ignored.
func (s Set) Add(value string) {
	if n := Normalize(value); n != "" {
		s[n] = struct{}{}
	}
}

// Has reports whether the normalized form of value is present. A nil Set
// contains nothing.
func (s Set) Has(value string) bool {
	if s == nil {
		return false
	}
	_, ok := s[Normalize(value)]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Minus returns the members of s that are in none of the others.
func (s Set) Minus(others ...Set) Set {
	out := make(Set, len(s))
	for v := range s {
		excluded := false
		for _, o := range others {
			if _, ok := o[v]; ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out[v] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
