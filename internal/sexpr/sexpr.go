// Package sexpr reads and prints the parenthesized prefix notation spoken by
// the solver.
//
// The grammar is deliberately small:
//
//	node   := atom | string | '(' node* ')'
//	atom   := any run of characters other than whitespace, parens and '"'
//	string := '"' ( '\\' any | not '"' )* '"'
package sexpr

import (
	"fmt"
	"strings"
)

// Node is either an atom or a list.
type Node struct {
	// Atom holds the token text for atoms and strings. Strings keep their
	// surrounding quotes so that printing round-trips.
	Atom string
	List []Node
	// IsList distinguishes the empty list from the empty atom.
	IsList bool
}

// A constructs an atom.
func A(text string) Node { return Node{Atom: text} }

// L constructs a list.
func L(items ...Node) Node {
	if items == nil {
		items = []Node{}
	}
	return Node{List: items, IsList: true}
}

// IsString reports whether the atom is a quoted string literal.
func (n Node) IsString() bool {
	return !n.IsList && len(n.Atom) >= 2 && n.Atom[0] == '"'
}

// Head returns the first element's atom text for a non-empty list.
func (n Node) Head() (string, bool) {
	if !n.IsList || len(n.List) == 0 || n.List[0].IsList {
		return "", false
	}
	return n.List[0].Atom, true
}

// String prints n with single spaces between list items.
func (n Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n Node) write(b *strings.Builder) {
	if !n.IsList {
		b.WriteString(n.Atom)
		return
	}
	b.WriteByte('(')
	for i, item := range n.List {
		if i > 0 {
			b.WriteByte(' ')
		}
		item.write(b)
	}
	b.WriteByte(')')
}

// Lists returns every list in n, n included, in pre-order.
func (n Node) Lists() []Node {
	var out []Node
	var visit func(Node)
	visit = func(x Node) {
		if !x.IsList {
			return
		}
		out = append(out, x)
		for _, item := range x.List {
			visit(item)
		}
	}
	visit(n)
	return out
}

// SyntaxError reports malformed input with the byte offset it was found at.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sexpr: %s at offset %d", e.Msg, e.Pos)
}

// Parse reads exactly one node from input. Trailing non-space input is an
// error.
func Parse(input string) (Node, error) {
	r := &reader{input: input}
	n, err := r.node()
	if err != nil {
		return Node{}, err
	}
	r.skipSpace()
	if r.pos < len(r.input) {
		return Node{}, r.errorf("unexpected %q after expression", r.input[r.pos])
	}
	return n, nil
}

// ParseAll reads every top-level node in input.
func ParseAll(input string) ([]Node, error) {
	r := &reader{input: input}
	var out []Node
	for {
		r.skipSpace()
		if r.pos >= len(r.input) {
			return out, nil
		}
		n, err := r.node()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
}

type reader struct {
	input string
	pos   int
}

func (r *reader) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Input: r.input, Pos: r.pos, Msg: fmt.Sprintf(format, args...)}
}

func (r *reader) skipSpace() {
	for r.pos < len(r.input) {
		switch r.input[r.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) node() (Node, error) {
	r.skipSpace()
	if r.pos >= len(r.input) {
		return Node{}, r.errorf("unexpected end of input")
	}
	switch r.input[r.pos] {
	case '(':
		return r.list()
	case ')':
		return Node{}, r.errorf("unbalanced ')'")
	case '"':
		return r.str()
	}
	return r.atom(), nil
}

func (r *reader) list() (Node, error) {
	open := r.pos
	r.pos++ // (
	items := []Node{}
	for {
		r.skipSpace()
		if r.pos >= len(r.input) {
			r.pos = open
			return Node{}, r.errorf("unclosed '('")
		}
		if r.input[r.pos] == ')' {
			r.pos++
			return Node{List: items, IsList: true}, nil
		}
		item, err := r.node()
		if err != nil {
			return Node{}, err
		}
		items = append(items, item)
	}
}

func (r *reader) str() (Node, error) {
	start := r.pos
	r.pos++ // opening quote
	for r.pos < len(r.input) {
		switch r.input[r.pos] {
		case '\\':
			r.pos += 2
		case '"':
			r.pos++
			return Node{Atom: r.input[start:r.pos]}, nil
		default:
			r.pos++
		}
	}
	r.pos = start
	return Node{}, r.errorf("unterminated string")
}

func (r *reader) atom() Node {
	start := r.pos
	for r.pos < len(r.input) {
		switch r.input[r.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v', '(', ')', '"':
			return Node{Atom: r.input[start:r.pos]}
		}
		r.pos++
	}
	return Node{Atom: r.input[start:r.pos]}
}
