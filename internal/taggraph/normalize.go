package taggraph

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Free text longer than this many runes is collapsed into a
	// normalized tag name. Short names are kept verbatim so explicit
	// dimension names ("publish-date", "title") survive untouched.
	normalizeThreshold = 24

	// Words shorter than this are dropped during normalization.
	minWordLen = 3
)

// Normalize collapses free text into a stable tag name. Text at or below
// the threshold is returned as-is. Longer text is lower-cased, split on
// non-letter/digit runs, stripped of short words and rejoined with '-'.
// This bounds tag-name cardinality and folds near-duplicate free text
// into a single node.
func Normalize(name string) string {
	if utf8.RuneCountInString(name) <= normalizeThreshold {
		return name
	}

	lower := strings.ToLower(name)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	kept := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minWordLen {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return lower
	}
	return strings.Join(kept, "-")
}
