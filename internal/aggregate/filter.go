package aggregate

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/boddenberg/banksim-client-go/internal/domain"
)

// Filter returns the records that match term, in order. An empty term keeps
// everything. The input slice is never modified.
func Filter(records []domain.Record, term string) []domain.Record {
	if term == "" {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for r := range FilterSeq(records, term) {
		out = append(out, r)
	}
	return out
}

// FilterSeq is the lazy form of Filter. The sequence can be ranged over any
// number of times.
func FilterSeq(records []domain.Record, term string) iter.Seq[domain.Record] {
	needle := strings.ToLower(term)
	return func(yield func(domain.Record) bool) {
		for _, r := range records {
			if needle != "" && !matches(r, needle) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Matches reports whether any non-nil field of r contains term,
// case-insensitively.
func Matches(r domain.Record, term string) bool {
	if term == "" {
		return true
	}
	return matches(r, strings.ToLower(term))
}

func matches(r domain.Record, needle string) bool {
	for _, v := range r {
		if v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(stringify(v)), needle) {
			return true
		}
	}
	return false
}

// stringify renders a decoded JSON value as the user sees it. Numbers are
// never printed in exponent form.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
