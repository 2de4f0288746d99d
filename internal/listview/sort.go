package listview

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Comparator orders two items the way cmp.Compare does.
type Comparator[T any] func(a, b T) int

// Sorters maps a sortBy name to its comparator.
type Sorters[T any] map[string]Comparator[T]

// Fields returns the sortable field names in lexical order.
func (s Sorters[T]) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// SortStable returns a sorted copy of items. Items that compare equal keep
// their input order for both directions.
func SortStable[T any](items []T, c Comparator[T], order SortOrder) []T {
	out := slices.Clone(items)
	if c == nil {
		return out
	}
	if order == SortDesc {
		slices.SortStableFunc(out, func(a, b T) int { return c(b, a) })
		return out
	}
	slices.SortStableFunc(out, c)
	return out
}

// By builds a comparator from an ordered key.
func By[T any, K cmp.Ordered](key func(T) K) Comparator[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

// ByFold compares a string key case-insensitively.
func ByFold[T any](key func(T) string) Comparator[T] {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	}
}

// ByTime compares a time key.
func ByTime[T any](key func(T) time.Time) Comparator[T] {
	return func(a, b T) int { return key(a).Compare(key(b)) }
}
