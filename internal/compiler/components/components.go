// Package components associates UI component names with the name of their
// properties type.
package components

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/propfrag/propfrag/internal/compiler/syntax"
)

// DefaultBases are the base classes that qualify a class with a typed
// `props` field as a component.
var DefaultBases = []string{"React.Component", "React.PureComponent", "Component", "PureComponent"}

// Shape identifies which declaration form produced an association.
type Shape int

const (
	ShapeClassGeneric Shape = iota + 1
	ShapeClassPropsField
	ShapeFunction
)

func (s Shape) String() string {
	switch s {
	case ShapeClassGeneric:
		return "class type argument"
	case ShapeClassPropsField:
		return "class props field"
	case ShapeFunction:
		return "function parameter"
	}
	return "unknown"
}

// Association links a component to its properties type.
type Association struct {
	Component string
	PropsType string
	Shape     Shape
	Node      *sitter.Node
}

// Resolver matches declarations against the supported component shapes.
type Resolver struct {
	bases map[string]bool
}

// NewResolver creates a resolver accepting the given base classes for the
// props-field shape. An empty list uses DefaultBases.
func NewResolver(bases []string) *Resolver {
	if len(bases) == 0 {
		bases = DefaultBases
	}
	set := make(map[string]bool, len(bases))
	for _, b := range bases {
		set[b] = true
	}
	return &Resolver{bases: set}
}

// Resolve returns the association for decl, if decl is a component.
func (r *Resolver) Resolve(file *syntax.File, decl *sitter.Node) (Association, bool) {
	if decl == nil {
		return Association{}, false
	}
	switch decl.Type() {
	case "class_declaration", "abstract_class_declaration":
		return r.resolveClass(file, decl)
	case "function_declaration":
		name := file.Text(decl.ChildByFieldName("name"))
		return resolveFunction(file, name, decl, decl)
	case "lexical_declaration", "variable_declaration":
		for _, d := range syntax.NamedChildren(decl) {
			if d.Type() != "variable_declarator" {
				continue
			}
			name := d.ChildByFieldName("name")
			value := d.ChildByFieldName("value")
			if name == nil || name.Type() != "identifier" || value == nil {
				continue
			}
			switch value.Type() {
			case "arrow_function", "function", "function_expression":
				if assoc, ok := resolveFunction(file, file.Text(name), value, decl); ok {
					return assoc, true
				}
			}
		}
	}
	return Association{}, false
}

func (r *Resolver) resolveClass(file *syntax.File, decl *sitter.Node) (Association, bool) {
	name := file.Text(decl.ChildByFieldName("name"))
	if name == "" {
		return Association{}, false
	}
	base, args := heritage(file, decl)
	if base == "" {
		return Association{}, false
	}

	if props, ok := propsFromTypeArgs(file, args); ok {
		return Association{Component: name, PropsType: props, Shape: ShapeClassGeneric, Node: decl}, true
	}

	if !r.bases[base] {
		return Association{}, false
	}
	for _, member := range syntax.NamedChildren(decl.ChildByFieldName("body")) {
		if member.Type() != "public_field_definition" {
			continue
		}
		if file.Text(member.ChildByFieldName("name")) != "props" {
			continue
		}
		if props, ok := syntax.RefName(file.ConvertType(member.ChildByFieldName("type"))); ok {
			return Association{Component: name, PropsType: props, Shape: ShapeClassPropsField, Node: decl}, true
		}
	}
	return Association{}, false
}

// heritage returns the extended class expression and its type arguments.
func heritage(file *syntax.File, decl *sitter.Node) (string, *sitter.Node) {
	for _, c := range syntax.NamedChildren(decl) {
		if c.Type() != "class_heritage" {
			continue
		}
		for _, clause := range syntax.NamedChildren(c) {
			if clause.Type() != "extends_clause" {
				continue
			}
			return file.Text(clause.ChildByFieldName("value")), clause.ChildByFieldName("type_arguments")
		}
	}
	return "", nil
}

// propsFromTypeArgs prefers the second type argument, which carries the
// props in the three-argument legacy form `Component<Default, Props, State>`.
func propsFromTypeArgs(file *syntax.File, args *sitter.Node) (string, bool) {
	if args == nil {
		return "", false
	}
	types := syntax.NamedChildren(args)
	if len(types) > 1 {
		if name, ok := syntax.RefName(file.ConvertType(types[1])); ok {
			return name, true
		}
	}
	if len(types) > 0 {
		return syntax.RefName(file.ConvertType(types[0]))
	}
	return "", false
}

func resolveFunction(file *syntax.File, name string, fn, decl *sitter.Node) (Association, bool) {
	if name == "" {
		return Association{}, false
	}
	params := syntax.NamedChildren(fn.ChildByFieldName("parameters"))
	if len(params) != 1 {
		return Association{}, false
	}
	switch params[0].Type() {
	case "required_parameter", "optional_parameter":
	default:
		return Association{}, false
	}
	props, ok := syntax.RefName(file.ConvertType(params[0].ChildByFieldName("type")))
	if !ok {
		return Association{}, false
	}
	return Association{Component: name, PropsType: props, Shape: ShapeFunction, Node: decl}, true
}

// Associations is the first-match-wins component map of one file.
type Associations struct {
	byName map[string]Association
	order  []string
}

// Lookup returns the properties type name of a component.
func (a *Associations) Lookup(component string) (Association, bool) {
	assoc, ok := a.byName[component]
	return assoc, ok
}

// Names returns component names in declaration order.
func (a *Associations) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Len returns the number of components found.
func (a *Associations) Len() int {
	return len(a.order)
}

// Scan resolves every top-level declaration of file.
func (r *Resolver) Scan(file *syntax.File) *Associations {
	out := &Associations{byName: make(map[string]Association)}
	for _, decl := range file.TopLevel() {
		assoc, ok := r.Resolve(file, decl)
		if !ok {
			continue
		}
		if _, exists := out.byName[assoc.Component]; exists {
			continue
		}
		out.byName[assoc.Component] = assoc
		out.order = append(out.order, assoc.Component)
	}
	return out
}

// Scan resolves a file with the default base classes.
func Scan(file *syntax.File) *Associations {
	return NewResolver(nil).Scan(file)
}
