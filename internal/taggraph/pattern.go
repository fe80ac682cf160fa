package taggraph

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternKind selects how a pattern compares against node names.
type PatternKind uint8

const (
	Exact PatternKind = iota
	Substring
	Regex
)

// Pattern matches node names either exactly, by substring, or by a
// case-insensitive regular expression. A nil *Pattern matches everything.
type Pattern struct {
	kind PatternKind
	text string
	re   *regexp.Regexp
}

// CompilePattern builds a pattern from query text. Text delimited by
// slashes ("/.../" ) compiles to a case-insensitive regular expression;
// anything else matches as a literal substring.
func CompilePattern(text string) (*Pattern, error) {
	if len(text) >= 2 && strings.HasPrefix(text, "/") && strings.HasSuffix(text, "/") {
		re, err := regexp.Compile("(?i)" + text[1:len(text)-1])
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", text, err)
		}
		return &Pattern{kind: Regex, text: text, re: re}, nil
	}
	return &Pattern{kind: Substring, text: text}, nil
}

// ExactPattern matches only the given name.
func ExactPattern(name string) *Pattern {
	return &Pattern{kind: Exact, text: name}
}

// Match reports whether the pattern accepts the given node name.
// A nil pattern accepts every name.
func (p *Pattern) Match(name string) bool {
	if p == nil {
		return true
	}
	switch p.kind {
	case Exact:
		return name == p.text
	case Substring:
		return strings.Contains(name, p.text)
	default:
		return p.re.MatchString(name)
	}
}

func (p *Pattern) String() string {
	if p == nil {
		return "<any>"
	}
	return p.text
}
