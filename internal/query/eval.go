package query

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/parser"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// retrieval is one (startTag, pattern) unit assembled from a condition or
// a '^' composite, ready to hand to GetBooks.
type retrieval struct {
	startTag        string
	pattern         string
	excludeStartTag bool
	excludeQuery    bool
	hasTag          bool
	hasQuery        bool
}

func (e *Engine) eval(node any) (Result, error) {
	arr, ok := node.([]any)
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("%w: expression node is not an [op, a, b] triple", parser.ErrMalformedExpression)
	}
	op, ok := arr[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: operator is not a string", parser.ErrMalformedExpression)
	}

	switch op {
	case "==", "!=":
		r, err := evalCondition(arr)
		if err != nil {
			return nil, err
		}
		return e.retrieve(r)

	case "^":
		a, err := conditionNode(arr[1])
		if err != nil {
			return nil, err
		}
		b, err := conditionNode(arr[2])
		if err != nil {
			return nil, err
		}
		merged, err := mergeConditions(a, b)
		if err != nil {
			return nil, err
		}
		return e.retrieve(merged)

	case "&&":
		left, err := e.eval(arr[1])
		if err != nil {
			return nil, err
		}
		right, err := e.eval(arr[2])
		if err != nil {
			return nil, err
		}
		return e.intersect(left, right), nil

	case "||":
		left, err := e.eval(arr[1])
		if err != nil {
			return nil, err
		}
		right, err := e.eval(arr[2])
		if err != nil {
			return nil, err
		}
		return e.union(left, right), nil

	case "-":
		left, err := e.eval(arr[1])
		if err != nil {
			return nil, err
		}
		right, err := e.eval(arr[2])
		if err != nil {
			return nil, err
		}
		return e.difference(left, right), nil

	case "!":
		inner, err := e.eval(arr[1])
		if err != nil {
			return nil, err
		}
		return e.complement(inner), nil

	default:
		return nil, fmt.Errorf("%w: unknown operator %q", parser.ErrMalformedExpression, op)
	}
}

// conditionNode validates that a '^' operand is a plain condition.
func conditionNode(node any) (retrieval, error) {
	arr, ok := node.([]any)
	if !ok || len(arr) != 3 {
		return retrieval{}, fmt.Errorf("%w: composite operand is not a condition", parser.ErrMalformedExpression)
	}
	op, _ := arr[0].(string)
	if op != "==" && op != "!=" {
		return retrieval{}, fmt.Errorf("%w: composite operand %q is not a condition", parser.ErrMalformedExpression, op)
	}
	return evalCondition(arr)
}

func evalCondition(arr []any) (retrieval, error) {
	op, _ := arr[0].(string)
	variable, okVar := arr[1].(string)
	literal, okLit := arr[2].(string)
	if !okVar || !okLit {
		return retrieval{}, fmt.Errorf("%w: condition operands must be strings", parser.ErrMalformedExpression)
	}

	switch variable {
	case "t":
		return retrieval{
			startTag:        literal,
			excludeStartTag: op == "!=",
			hasTag:          true,
		}, nil
	case "q":
		return retrieval{
			pattern:      literal,
			excludeQuery: op == "!=",
			hasQuery:     true,
		}, nil
	default:
		return retrieval{}, fmt.Errorf("%w: unknown condition variable %q", parser.ErrMalformedExpression, variable)
	}
}

// mergeConditions combines exactly one tag condition and one query
// condition; two of a kind is a structural error.
func mergeConditions(a, b retrieval) (retrieval, error) {
	if a.hasTag == b.hasTag || a.hasQuery == b.hasQuery {
		return retrieval{}, fmt.Errorf(
			"%w: '^' needs one tag condition and one query condition", parser.ErrMalformedExpression)
	}
	tagSide, querySide := a, b
	if b.hasTag {
		tagSide, querySide = b, a
	}
	return retrieval{
		startTag:        tagSide.startTag,
		excludeStartTag: tagSide.excludeStartTag,
		pattern:         querySide.pattern,
		excludeQuery:    querySide.excludeQuery,
		hasTag:          true,
		hasQuery:        true,
	}, nil
}

// retrieve resolves a retrieval unit into a GetBooks invocation. A start
// tag that does not exist yields an empty sequence, not an error.
func (e *Engine) retrieve(r retrieval) (Result, error) {
	var start *taggraph.Tag
	if r.hasTag {
		t, err := e.graph.Get(r.startTag, false)
		if err != nil {
			if errors.Is(err, taggraph.ErrNotFound) {
				return emptyResult, nil
			}
			return nil, err
		}
		start = t
	}

	var pattern *taggraph.Pattern
	if r.hasQuery {
		p, err := taggraph.CompilePattern(r.pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", parser.ErrMalformedExpression, err)
		}
		pattern = p
	}

	return e.GetBooks(start, pattern, r.excludeStartTag, r.excludeQuery), nil
}

func emptyResult(_ func(*library.Book, Path) bool) {}

// intersect streams the left operand, filtering against the materialized
// right operand.
func (e *Engine) intersect(left, right Result) Result {
	return func(yield func(*library.Book, Path) bool) {
		members := make(map[*library.Book]bool)
		right(func(b *library.Book, _ Path) bool {
			members[b] = true
			return true
		})
		left(func(b *library.Book, p Path) bool {
			if !members[b] {
				return true
			}
			return yield(b, p)
		})
	}
}

// union streams left then right, de-duplicating already-seen books.
func (e *Engine) union(left, right Result) Result {
	return func(yield func(*library.Book, Path) bool) {
		seen := make(map[*library.Book]bool)
		emit := func(b *library.Book, p Path) bool {
			if seen[b] {
				return true
			}
			seen[b] = true
			return yield(b, p)
		}
		stopped := false
		left(func(b *library.Book, p Path) bool {
			if !emit(b, p) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
		right(emit)
	}
}

// difference subtracts the materialized right operand from the left.
func (e *Engine) difference(left, right Result) Result {
	return func(yield func(*library.Book, Path) bool) {
		subtracted := make(map[*library.Book]bool)
		right(func(b *library.Book, _ Path) bool {
			subtracted[b] = true
			return true
		})
		left(func(b *library.Book, p Path) bool {
			if subtracted[b] {
				return true
			}
			return yield(b, p)
		})
	}
}

// complement yields every library book not produced by the operand.
// Complement results carry no explain-path.
func (e *Engine) complement(inner Result) Result {
	return func(yield func(*library.Book, Path) bool) {
		excluded := make(map[*library.Book]bool)
		inner(func(b *library.Book, _ Path) bool {
			excluded[b] = true
			return true
		})
		for _, b := range e.lib.Books() {
			if excluded[b] {
				continue
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}
