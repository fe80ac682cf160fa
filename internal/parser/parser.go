// Package parser turns query and tagging source text into the nested
// ternary AST consumed by the query and tagging engines: every node is a
// []any{operator, operandA, operandB} triple, leaves are strings.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrMalformedExpression indicates source text that does not parse, or a
// parse tree with wrong operand arity.
var ErrMalformedExpression = errors.New("malformed expression")

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// operators longest-first so the scanner is greedy.
var operators = []string{"-/>", "->", "==", "!=", "&&", "||", "^", "!", "-", "+", "(", ")", ";", "."}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		r := rune(l.src[l.pos])
		switch {
		case unicode.IsSpace(r):
			l.pos++
		case r == '\'':
			if err := l.scanString(); err != nil {
				return nil, err
			}
		case unicode.IsLetter(r):
			l.scanIdent()
		default:
			if !l.scanOperator() {
				return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrMalformedExpression, r, l.pos)
			}
		}
	}
	l.tokens = append(l.tokens, token{kind: tokEOF, pos: l.pos})
	return l.tokens, nil
}

func (l *lexer) scanString() error {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\'' {
			l.pos++
			l.tokens = append(l.tokens, token{kind: tokString, text: sb.String(), pos: start})
			return nil
		}
		sb.WriteByte(c)
		l.pos++
	}
	return fmt.Errorf("%w: unterminated string at %d", ErrMalformedExpression, start)
}

func (l *lexer) scanIdent() {
	start := l.pos
	for l.pos < len(l.src) && (unicode.IsLetter(rune(l.src[l.pos])) || unicode.IsDigit(rune(l.src[l.pos]))) {
		l.pos++
	}
	l.tokens = append(l.tokens, token{kind: tokIdent, text: l.src[start:l.pos], pos: start})
}

func (l *lexer) scanOperator() bool {
	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.tokens = append(l.tokens, token{kind: tokOp, text: op, pos: l.pos})
			l.pos += len(op)
			return true
		}
	}
	return false
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token  { return p.tokens[p.pos] }
func (p *parser) next() token  { t := p.tokens[p.pos]; p.pos++; return t }
func (p *parser) atOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) expectOp(op string) error {
	if !p.atOp(op) {
		return fmt.Errorf("%w: expected %q at %d", ErrMalformedExpression, op, p.peek().pos)
	}
	p.next()
	return nil
}

// ParseQuery parses a search expression.
//
// Grammar, loosest binding first:
//
//	expr    := and (('||' | '-') and)*
//	and     := unary ('&&' unary)*
//	unary   := '!' unary | caret
//	caret   := atom ('^' atom)*
//	atom    := cond | '(' expr ')'
//	cond    := ('t' | 'q') ('==' | '!=') '<string>'
func ParseQuery(src string) ([]any, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: trailing input at %d", ErrMalformedExpression, p.peek().pos)
	}
	node, ok := expr.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expression is not a condition", ErrMalformedExpression)
	}
	return node, nil
}

func (p *parser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("||"):
			p.next()
			right, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			left = []any{"||", left, right}
		case p.atOp("-"):
			p.next()
			right, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			left = []any{"-", left, right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAnd() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atOp("&&") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = []any{"&&", left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (any, error) {
	if p.atOp("!") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return []any{"!", inner, nil}, nil
	}
	return p.parseCaret()
}

func (p *parser) parseCaret() (any, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.atOp("^") {
		p.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = []any{"^", left, right}
	}
	return left, nil
}

func (p *parser) parseAtom() (any, error) {
	if p.atOp("(") {
		p.next()
		// Redundant nesting collapses transparently: the group returns
		// its inner node unchanged.
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseCond()
}

func (p *parser) parseCond() (any, error) {
	t := p.peek()
	if t.kind != tokIdent || (t.text != "t" && t.text != "q") {
		return nil, fmt.Errorf("%w: expected 't' or 'q' at %d", ErrMalformedExpression, t.pos)
	}
	variable := p.next().text

	opTok := p.peek()
	if opTok.kind != tokOp || (opTok.text != "==" && opTok.text != "!=") {
		return nil, fmt.Errorf("%w: expected '==' or '!=' at %d", ErrMalformedExpression, opTok.pos)
	}
	op := p.next().text

	lit := p.peek()
	if lit.kind != tokString {
		return nil, fmt.Errorf("%w: expected string literal at %d", ErrMalformedExpression, lit.pos)
	}
	p.next()

	return []any{op, variable, lit.text}, nil
}
