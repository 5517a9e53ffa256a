package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Value is a literal expression value.
type Value struct {
	Kind LiteralKind
	Raw  string // source text, quotes included for strings
	Str  string // unquoted string value
}

// LiteralValue reads a string, number or boolean literal expression.
// Any other shape (identifiers, template strings, calls) returns false.
func (f *File) LiteralValue(n *sitter.Node) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	switch n.Type() {
	case "string":
		return Value{Kind: LiteralString, Raw: f.Text(n), Str: f.Unquote(n)}, true
	case "number":
		return Value{Kind: LiteralNumber, Raw: f.Text(n), Str: f.Text(n)}, true
	case "true", "false":
		return Value{Kind: LiteralBoolean, Raw: f.Text(n), Str: f.Text(n)}, true
	case "unary_expression":
		arg := n.ChildByFieldName("argument")
		if arg != nil && arg.Type() == "number" {
			return Value{Kind: LiteralNumber, Raw: f.Text(n), Str: f.Text(n)}, true
		}
	case "parenthesized_expression":
		return f.LiteralValue(n.NamedChild(0))
	}
	return Value{}, false
}

// Pair is a key/value member of an object literal.
type Pair struct {
	Key   string
	Node  *sitter.Node // the pair (or shorthand identifier) node
	Value *sitter.Node
}

// Pairs returns the keyed members of an object literal, skipping spreads,
// methods and computed keys.
func (f *File) Pairs(obj *sitter.Node) []Pair {
	if obj == nil || obj.Type() != "object" {
		return nil
	}
	var out []Pair
	for _, m := range NamedChildren(obj) {
		switch m.Type() {
		case "pair":
			key, ok := f.propertyKey(m.ChildByFieldName("key"))
			if !ok {
				continue
			}
			out = append(out, Pair{Key: key, Node: m, Value: m.ChildByFieldName("value")})
		case "shorthand_property_identifier":
			out = append(out, Pair{Key: f.Text(m), Node: m, Value: m})
		}
	}
	return out
}

// Keys returns an object literal's keys in source order.
func (f *File) Keys(obj *sitter.Node) []string {
	pairs := f.Pairs(obj)
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

// Lookup returns the value node stored under key in an object literal.
func (f *File) Lookup(obj *sitter.Node, key string) *sitter.Node {
	for _, p := range f.Pairs(obj) {
		if p.Key == key {
			return p.Value
		}
	}
	return nil
}

func (f *File) propertyKey(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "property_identifier", "identifier", "number", "private_property_identifier":
		return f.Text(n), true
	case "string":
		return f.Unquote(n), true
	}
	return "", false
}

// PairKeyOf returns the key when n is the value of an object literal pair.
func (f *File) PairKeyOf(n *sitter.Node) (string, *sitter.Node, bool) {
	parent := n.Parent()
	if parent == nil || parent.Type() != "pair" {
		return "", nil, false
	}
	value := parent.ChildByFieldName("value")
	if value == nil || value.StartByte() != n.StartByte() || value.EndByte() != n.EndByte() {
		return "", nil, false
	}
	key, ok := f.propertyKey(parent.ChildByFieldName("key"))
	return key, parent, ok
}

// Arguments returns the argument expressions of a call_expression.
func Arguments(call *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, arg := range NamedChildren(call.ChildByFieldName("arguments")) {
		if arg.Type() != "comment" {
			out = append(out, arg)
		}
	}
	return out
}

// CalleeName returns the callee text of a call_expression
// (`generateFragmentFromProps`, `Relay.createContainer`).
func (f *File) CalleeName(call *sitter.Node) string {
	return f.Text(call.ChildByFieldName("function"))
}

// Identifiers collects identifier names inside n in source order, n included.
func (f *File) Identifiers(n *sitter.Node) []string {
	var out []string
	Walk(n, func(c *sitter.Node) bool {
		if c.Type() == "identifier" {
			out = append(out, f.Text(c))
		}
		return true
	})
	return out
}

// JSXTagNames returns the distinct element names used in JSX, in first
// appearance order. Intrinsic lowercase elements are skipped.
func (f *File) JSXTagNames() []string {
	seen := make(map[string]bool)
	var out []string
	Walk(f.Root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "jsx_opening_element", "jsx_self_closing_element":
			name := f.Text(n.ChildByFieldName("name"))
			if name != "" && !seen[name] && isComponentName(name) {
				seen[name] = true
				out = append(out, name)
			}
		}
		return true
	})
	return out
}

func isComponentName(name string) bool {
	c := name[0]
	return c >= 'A' && c <= 'Z'
}
