package listview

import (
	"strconv"
	"strings"
)

// Predicate reports whether item passes a filter set to value.
type Predicate[T any] func(item T, value any) bool

// Filter binds a filter key to its predicate.
type Filter[T any] struct {
	Key   string
	Match Predicate[T]
}

// ApplyFilters keeps the items matching every set filter. Filters run in
// the order they are declared in filters; unset keys are skipped.
func ApplyFilters[T any](items []T, filters []Filter[T], values Filters) []T {
	out := items
	for _, f := range filters {
		v, ok := values.Value(f.Key)
		if !ok {
			continue
		}
		kept := make([]T, 0, len(out))
		for _, it := range out {
			if f.Match(it, v) {
				kept = append(kept, it)
			}
		}
		out = kept
	}
	return out
}

// ContainsFold matches when any of the fields contains the filter value,
// ignoring case.
func ContainsFold[T any](fields ...func(T) string) Predicate[T] {
	return func(item T, value any) bool {
		needle := strings.ToLower(strings.TrimSpace(AsString(value)))
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(item)), needle) {
				return true
			}
		}
		return false
	}
}

// EqualFold matches when the field equals the filter value, ignoring case.
func EqualFold[T any](field func(T) string) Predicate[T] {
	return func(item T, value any) bool {
		return strings.EqualFold(field(item), strings.TrimSpace(AsString(value)))
	}
}

// AsString renders a filter value as text.
func AsString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return FormatValue(v)
}

// AsFloat converts numeric and numeric-string filter values.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsBool converts bool and bool-string filter values.
func AsBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	default:
		return false, false
	}
}
