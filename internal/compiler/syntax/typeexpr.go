package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TypeExpr is a parser-independent view of a type annotation.
// It is a closed set: Ref, ObjectLit, ArrayOf, Nullable, Primitive, Literal
// and Unknown.
type TypeExpr interface {
	typeExpr()
}

// Ref is a reference to a named type, with optional type arguments.
type Ref struct {
	Name string
	Args []TypeExpr
}

// Prop is one member of an object literal type.
type Prop struct {
	Name     string
	Optional bool
	Type     TypeExpr
}

// ObjectLit is an inline object type `{ a: T; b?: U }`.
type ObjectLit struct {
	Props []Prop
}

// Get returns the member named name.
func (o *ObjectLit) Get(name string) (Prop, bool) {
	for _, p := range o.Props {
		if p.Name == name {
			return p, true
		}
	}
	return Prop{}, false
}

// Names returns member names in declaration order.
func (o *ObjectLit) Names() []string {
	names := make([]string, len(o.Props))
	for i, p := range o.Props {
		names[i] = p.Name
	}
	return names
}

// ArrayOf is `T[]`, `Array<T>` or `ReadonlyArray<T>`.
type ArrayOf struct {
	Elem TypeExpr
}

// Nullable is `T | null`, `T | undefined` or `?T`.
type Nullable struct {
	Inner TypeExpr
}

// Primitive is a predefined type keyword such as string, number or boolean.
type Primitive struct {
	Name string
}

// LiteralKind classifies literal types and literal values.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
)

// Literal is a literal type such as `'author'`, `42` or `true`.
type Literal struct {
	Kind  LiteralKind
	Value string
}

// Unknown is any annotation the normalizer treats as `any`.
type Unknown struct {
	Text string
}

func (*Ref) typeExpr()       {}
func (*ObjectLit) typeExpr() {}
func (*ArrayOf) typeExpr()   {}
func (*Nullable) typeExpr()  {}
func (*Primitive) typeExpr() {}
func (*Literal) typeExpr()   {}
func (*Unknown) typeExpr()   {}

// ConvertType converts a tree-sitter type node (or a type_annotation wrapper)
// into a TypeExpr. A nil node yields Unknown.
func (f *File) ConvertType(n *sitter.Node) TypeExpr {
	if n == nil {
		return &Unknown{}
	}

	switch n.Type() {
	case "type_annotation", "parenthesized_type", "readonly_type":
		if inner := lastNamed(n); inner != nil {
			return f.ConvertType(inner)
		}
		return &Unknown{Text: f.Text(n)}

	case "predefined_type":
		return &Primitive{Name: f.Text(n)}

	case "type_identifier", "nested_type_identifier", "identifier":
		name := f.Text(n)
		if name == "undefined" {
			return &Nullable{Inner: &Unknown{Text: name}}
		}
		return &Ref{Name: name}

	case "generic_type":
		return f.convertGeneric(n)

	case "object_type", "interface_body":
		return f.ConvertObject(n)

	case "array_type":
		return &ArrayOf{Elem: f.ConvertType(n.NamedChild(0))}

	case "union_type":
		return f.convertUnion(n)

	case "literal_type":
		return f.convertLiteral(n)

	case "string", "template_literal_type":
		return &Literal{Kind: LiteralString, Value: f.Unquote(n)}

	case "null", "undefined":
		return &Nullable{Inner: &Unknown{Text: f.Text(n)}}
	}

	return &Unknown{Text: f.Text(n)}
}

// ConvertObject converts an object_type (or interface body) node.
func (f *File) ConvertObject(n *sitter.Node) *ObjectLit {
	obj := &ObjectLit{}
	for _, member := range NamedChildren(n) {
		if member.Type() != "property_signature" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := f.Text(nameNode)
		if nameNode.Type() == "string" {
			name = f.Unquote(nameNode)
		}
		obj.Props = append(obj.Props, Prop{
			Name:     name,
			Optional: HasAnonChild(member, "?"),
			Type:     f.ConvertType(member.ChildByFieldName("type")),
		})
	}
	return obj
}

func (f *File) convertGeneric(n *sitter.Node) TypeExpr {
	name := f.Text(n.ChildByFieldName("name"))
	var args []TypeExpr
	for _, a := range NamedChildren(n.ChildByFieldName("type_arguments")) {
		args = append(args, f.ConvertType(a))
	}

	switch name {
	case "Array", "ReadonlyArray":
		if len(args) == 1 {
			return &ArrayOf{Elem: args[0]}
		}
	case "Maybe", "Nullable", "Optional":
		if len(args) == 1 {
			return &Nullable{Inner: args[0]}
		}
	}
	return &Ref{Name: name, Args: args}
}

// convertUnion folds `A | null | undefined` into Nullable(A). Unions of
// several non-null members collapse to a scalar when every member is a literal
// of the same kind and to Unknown otherwise.
func (f *File) convertUnion(n *sitter.Node) TypeExpr {
	var members []TypeExpr
	f.flattenUnion(n, &members)

	nullable := false
	var rest []TypeExpr
	for _, m := range members {
		if nb, ok := m.(*Nullable); ok {
			if u, ok := nb.Inner.(*Unknown); ok && (u.Text == "null" || u.Text == "undefined") {
				nullable = true
				continue
			}
		}
		rest = append(rest, m)
	}

	var core TypeExpr
	switch len(rest) {
	case 0:
		core = &Unknown{Text: f.Text(n)}
	case 1:
		core = rest[0]
	default:
		core = literalUnion(rest, f.Text(n))
	}

	if nullable {
		if nb, ok := core.(*Nullable); ok {
			return nb
		}
		return &Nullable{Inner: core}
	}
	return core
}

func (f *File) flattenUnion(n *sitter.Node, out *[]TypeExpr) {
	for _, c := range NamedChildren(n) {
		if c.Type() == "union_type" {
			f.flattenUnion(c, out)
			continue
		}
		*out = append(*out, f.ConvertType(c))
	}
}

func literalUnion(members []TypeExpr, text string) TypeExpr {
	first, ok := members[0].(*Literal)
	if !ok {
		return &Unknown{Text: text}
	}
	for _, m := range members[1:] {
		l, ok := m.(*Literal)
		if !ok || l.Kind != first.Kind {
			return &Unknown{Text: text}
		}
	}
	switch first.Kind {
	case LiteralString:
		return &Primitive{Name: "string"}
	case LiteralNumber:
		return &Primitive{Name: "number"}
	default:
		return &Primitive{Name: "boolean"}
	}
}

func (f *File) convertLiteral(n *sitter.Node) TypeExpr {
	inner := n.NamedChild(0)
	if inner == nil {
		return &Unknown{Text: f.Text(n)}
	}
	switch inner.Type() {
	case "string":
		return &Literal{Kind: LiteralString, Value: f.Unquote(inner)}
	case "number", "unary_expression":
		return &Literal{Kind: LiteralNumber, Value: f.Text(inner)}
	case "true", "false":
		return &Literal{Kind: LiteralBoolean, Value: f.Text(inner)}
	case "null", "undefined":
		return &Nullable{Inner: &Unknown{Text: f.Text(inner)}}
	}
	return &Unknown{Text: f.Text(n)}
}

func lastNamed(n *sitter.Node) *sitter.Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}
	return n.NamedChild(count - 1)
}

// RefName returns the referenced name when e is a plain named type reference.
func RefName(e TypeExpr) (string, bool) {
	r, ok := e.(*Ref)
	if !ok || strings.TrimSpace(r.Name) == "" {
		return "", false
	}
	return r.Name, true
}
