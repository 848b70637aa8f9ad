package projectfile

import (
	"fmt"
	"io"
	"strconv"
)

// node is a parsed s-expression: an atom or a list.
type node struct {
	atom   string
	quoted bool
	list   []*node
	isList bool
	line   int
}

// head returns the leading symbol of a list, or "". A quoted string never
// counts as a head.
func (n *node) head() string {
	if !n.isList || len(n.list) == 0 || n.list[0].isList || n.list[0].quoted {
		return ""
	}
	return n.list[0].atom
}

// args returns the list elements after the head.
func (n *node) args() []*node {
	if !n.isList || len(n.list) == 0 {
		return nil
	}
	return n.list[1:]
}

// find returns the first child list whose head is key.
func (n *node) find(key string) (*node, bool) {
	for _, c := range n.args() {
		if c.head() == key {
			return c, true
		}
	}
	return nil, false
}

// findAll returns every child list whose head is key.
func (n *node) findAll(key string) []*node {
	var out []*node
	for _, c := range n.args() {
		if c.head() == key {
			out = append(out, c)
		}
	}
	return out
}

// text returns the i-th argument as text.
func (n *node) text(i int) (string, error) {
	args := n.args()
	if i >= len(args) {
		return "", fmt.Errorf("line %d: (%s) needs at least %d argument(s)", n.line, n.head(), i+1)
	}
	if args[i].isList {
		return "", fmt.Errorf("line %d: (%s) argument %d is a list", n.line, n.head(), i+1)
	}
	return args[i].atom, nil
}

// symbol returns the i-th argument, which must be a bare atom. Keywords and
// numbers are never quoted.
func (n *node) symbol(i int) (string, error) {
	s, err := n.text(i)
	if err != nil {
		return "", err
	}
	if n.args()[i].quoted {
		return "", fmt.Errorf("line %d: (%s) argument %d must not be quoted", n.line, n.head(), i+1)
	}
	return s, nil
}

// number returns the i-th argument as an integer.
func (n *node) number(i int) (int, error) {
	s, err := n.symbol(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: (%s) argument %d: %w", n.line, n.head(), i+1, err)
	}
	return v, nil
}

// texts returns every atom argument.
func (n *node) texts() ([]string, error) {
	out := make([]string, 0, len(n.args()))
	for i := range n.args() {
		s, err := n.text(i)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// parser builds nodes from the token stream.
type parser struct {
	lex *lexer
	cur token
}

func newParser(r io.Reader) *parser {
	return &parser{lex: newLexer(r)}
}

// parseAll parses every top-level expression until EOF.
func (p *parser) parseAll() ([]*node, error) {
	var out []*node
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.cur.typ != tokenEOF {
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) parseExpr() (*node, error) {
	switch p.cur.typ {
	case tokenLeftParen:
		return p.parseList()
	case tokenSymbol, tokenString:
		return &node{atom: p.cur.value, quoted: p.cur.typ == tokenString, line: p.cur.line}, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected %v", p.cur.line, p.cur.typ)
	}
}

func (p *parser) parseList() (*node, error) {
	n := &node{isList: true, line: p.cur.line}
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.cur.typ {
		case tokenRightParen:
			return n, nil
		case tokenEOF:
			return nil, fmt.Errorf("line %d: unexpected EOF in list opened on line %d", p.cur.line, n.line)
		}
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.list = append(n.list, elem)
	}
}
