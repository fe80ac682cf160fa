package query

import (
	"sort"
	"strings"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

type pair struct {
	book *library.Book
	path Path
}

// sorted materializes the sequence and orders it deterministically:
// connection weights position-by-position, then target names
// lexicographically, then path length (shorter first), then the book's
// own name. Descending negates the final comparison.
func (e *Engine) sorted(seq Result, order SortOrder) Result {
	return func(yield func(*library.Book, Path) bool) {
		var pairs []pair
		seq(func(b *library.Book, p Path) bool {
			pairs = append(pairs, pair{book: b, path: p})
			return true
		})

		sign := 1
		if order == SortDesc {
			sign = -1
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return sign*comparePairs(pairs[i], pairs[j]) < 0
		})

		for _, p := range pairs {
			if !yield(p.book, p.path) {
				return
			}
		}
	}
}

func comparePairs(a, b pair) int {
	n := len(a.path)
	if len(b.path) < n {
		n = len(b.path)
	}
	for i := 0; i < n; i++ {
		if c := compareWeights(a.path[i].Weight, b.path[i].Weight); c != 0 {
			return c
		}
		if c := strings.Compare(a.path[i].Target.NodeName(), b.path[i].Target.NodeName()); c != 0 {
			return c
		}
	}
	if len(a.path) != len(b.path) {
		if len(a.path) < len(b.path) {
			return -1
		}
		return 1
	}
	return strings.Compare(a.book.NodeName(), b.book.NodeName())
}

// compareWeights treats a missing weight as zero.
func compareWeights(a, b *float64) int {
	av, bv := 0.0, 0.0
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}
