// Package tagging executes custom-tag mutation statements: user-defined
// tags live under the reserved custom root, separate from the
// system-derived dimensions, so the whole annotation subgraph can be
// exported and reloaded in one piece.
package tagging

import (
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/parser"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// Engine applies parsed tagging scripts to the library's graph.
type Engine struct {
	lib    *library.Library
	graph  *taggraph.Graph
	logger *slog.Logger
}

func New(lib *library.Library, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{lib: lib, graph: lib.Graph(), logger: logger}
}

// Exec runs a parsed tagging script. Statements execute left to right;
// the first failing statement aborts the rest.
func (e *Engine) Exec(ast any) error {
	arr, ok := ast.([]any)
	if !ok || len(arr) != 3 {
		return fmt.Errorf("%w: statement node is not an [op, a, b] triple", parser.ErrMalformedExpression)
	}
	op, _ := arr[0].(string)

	switch op {
	case ";":
		if err := e.Exec(arr[1]); err != nil {
			return err
		}
		return e.Exec(arr[2])

	case "+":
		name, err := tagRefName(arr[1])
		if err != nil {
			return err
		}
		tag := e.graph.MustGet(name)
		if err := e.graph.Connect(e.graph.Custom(), tag, taggraph.Child, nil); err != nil {
			return err
		}
		e.logger.Debug("custom tag added", "tag", tag.NodeName())
		return nil

	case "-":
		name, err := tagRefName(arr[1])
		if err != nil {
			return err
		}
		tag, err := e.graph.Get(name, false)
		if err != nil {
			return err
		}
		if !e.isCustom(tag) {
			return fmt.Errorf("%w: %q is not a custom tag", parser.ErrMalformedExpression, name)
		}
		e.graph.Delete(tag)
		e.logger.Debug("custom tag deleted", "tag", name)
		return nil

	case "->":
		tag, err := e.customTag(arr[1])
		if err != nil {
			return err
		}
		target, err := e.resolveTarget(arr[2])
		if err != nil {
			return err
		}
		return e.graph.Connect(tag, target, taggraph.Child, nil)

	case "-/>":
		tag, err := e.customTag(arr[1])
		if err != nil {
			return err
		}
		target, err := e.resolveTarget(arr[2])
		if err != nil {
			return err
		}
		e.graph.Disconnect(tag, target)
		return nil

	default:
		return fmt.Errorf("%w: unknown statement %q", parser.ErrMalformedExpression, op)
	}
}

// customTag resolves a t() reference, creating the tag under the custom
// root on first use.
func (e *Engine) customTag(node any) (*taggraph.Tag, error) {
	name, err := tagRefName(node)
	if err != nil {
		return nil, err
	}
	tag := e.graph.MustGet(name)
	if err := e.graph.Connect(e.graph.Custom(), tag, taggraph.Child, nil); err != nil {
		return nil, err
	}
	return tag, nil
}

// resolveTarget resolves the right-hand side of a connect/disconnect:
// either another tag or a book aggregate addressed by index alias and
// story id.
func (e *Engine) resolveTarget(node any) (taggraph.Node, error) {
	arr, ok := node.([]any)
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("%w: malformed reference", parser.ErrMalformedExpression)
	}
	op, _ := arr[0].(string)

	switch op {
	case "t":
		name, err := tagRefName(node)
		if err != nil {
			return nil, err
		}
		return e.graph.Get(name, false)

	case "s":
		alias, okA := arr[1].(string)
		storyID, okB := arr[2].(string)
		if !okA || !okB {
			return nil, fmt.Errorf("%w: book reference operands must be strings", parser.ErrMalformedExpression)
		}
		idx, err := e.lib.Index(alias)
		if err != nil {
			return nil, err
		}
		// Custom tags attach to the Book aggregate itself, a coarser
		// grain than the per-descriptor system tagging.
		return e.lib.GetBook(idx.Name, storyID)

	default:
		return nil, fmt.Errorf("%w: unknown reference %q", parser.ErrMalformedExpression, op)
	}
}

func tagRefName(node any) (string, error) {
	arr, ok := node.([]any)
	if !ok || len(arr) != 3 {
		return "", fmt.Errorf("%w: malformed tag reference", parser.ErrMalformedExpression)
	}
	if op, _ := arr[0].(string); op != "t" {
		return "", fmt.Errorf("%w: expected tag reference, got %q", parser.ErrMalformedExpression, arr[0])
	}
	name, ok := arr[1].(string)
	if !ok {
		return "", fmt.Errorf("%w: tag name must be a string", parser.ErrMalformedExpression)
	}
	return name, nil
}

// isCustom reports whether a tag sits under the custom root.
func (e *Engine) isCustom(tag *taggraph.Tag) bool {
	if tag == e.graph.Custom() {
		return false // the reserved root itself is not deletable
	}
	for _, m := range e.graph.SearchDescendants(tag, taggraph.SearchOptions{
		Direction: taggraph.Parent,
		Tags:      true,
	}) {
		if m.Node == e.graph.Custom() {
			return true
		}
	}
	return false
}
