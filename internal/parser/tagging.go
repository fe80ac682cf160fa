package parser

import "fmt"

// ParseTagging parses a custom-tag mutation script.
//
// Grammar:
//
//	script  := stmt (';' stmt)*
//	stmt    := '+' ref | '-' ref | ref '->' ref | ref '-/>' ref
//	ref     := 't' '(' '<string>' ')'
//	         | 's' '(' '<string>' ')' '.' 'id' '(' '<string>' ')'
//
// Statements become []any{";", a, b} chains; adds and deletes are
// []any{"+", ref, nil} / []any{"-", ref, nil}; references are
// []any{"t", name, nil} for tags and []any{"s", indexAlias, storyID}
// for books.
func ParseTagging(src string) ([]any, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}

	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	node := stmt
	for p.atOp(";") {
		p.next()
		if p.peek().kind == tokEOF {
			break // trailing separator
		}
		right, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		node = []any{";", node, right}
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: trailing input at %d", ErrMalformedExpression, p.peek().pos)
	}
	return node, nil
}

func (p *parser) parseStmt() ([]any, error) {
	if p.atOp("+") {
		p.next()
		ref, err := p.parseRef()
		if err != nil {
			return nil, err
		}
		return []any{"+", ref, nil}, nil
	}
	if p.atOp("-") {
		p.next()
		ref, err := p.parseRef()
		if err != nil {
			return nil, err
		}
		return []any{"-", ref, nil}, nil
	}

	left, err := p.parseRef()
	if err != nil {
		return nil, err
	}
	switch {
	case p.atOp("->"):
		p.next()
		right, err := p.parseRef()
		if err != nil {
			return nil, err
		}
		return []any{"->", left, right}, nil
	case p.atOp("-/>"):
		p.next()
		right, err := p.parseRef()
		if err != nil {
			return nil, err
		}
		return []any{"-/>", left, right}, nil
	default:
		return nil, fmt.Errorf("%w: expected '->' or '-/>' at %d", ErrMalformedExpression, p.peek().pos)
	}
}

func (p *parser) parseRef() ([]any, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return nil, fmt.Errorf("%w: expected 't' or 's' at %d", ErrMalformedExpression, t.pos)
	}
	switch t.text {
	case "t":
		p.next()
		name, err := p.parseCallArg()
		if err != nil {
			return nil, err
		}
		return []any{"t", name, nil}, nil
	case "s":
		p.next()
		alias, err := p.parseCallArg()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("."); err != nil {
			return nil, err
		}
		id := p.peek()
		if id.kind != tokIdent || id.text != "id" {
			return nil, fmt.Errorf("%w: expected 'id' at %d", ErrMalformedExpression, id.pos)
		}
		p.next()
		storyID, err := p.parseCallArg()
		if err != nil {
			return nil, err
		}
		return []any{"s", alias, storyID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown reference %q at %d", ErrMalformedExpression, t.text, t.pos)
	}
}

func (p *parser) parseCallArg() (string, error) {
	if err := p.expectOp("("); err != nil {
		return "", err
	}
	lit := p.peek()
	if lit.kind != tokString {
		return "", fmt.Errorf("%w: expected string literal at %d", ErrMalformedExpression, lit.pos)
	}
	p.next()
	if err := p.expectOp(")"); err != nil {
		return "", err
	}
	return lit.text, nil
}
