// Package normalize reduces raw type expressions to canonical types: aliases
// are expanded through the registry, nullability is pushed onto the node it
// applies to and AliasFor wrappers become wire names.
package normalize

import (
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/registry"
	"github.com/propfrag/propfrag/internal/compiler/syntax"
	"github.com/propfrag/propfrag/internal/compiler/types"
)

// DefaultAliasWrapper is the generic that renames a field on the wire:
// `AliasFor<'wireName', T>`.
const DefaultAliasWrapper = "AliasFor"

// Normalizer expands type expressions against one registry.
type Normalizer struct {
	reg          *registry.Registry
	aliasWrapper string
}

// New creates a normalizer. An empty wrapper name uses DefaultAliasWrapper.
func New(reg *registry.Registry, aliasWrapper string) *Normalizer {
	if aliasWrapper == "" {
		aliasWrapper = DefaultAliasWrapper
	}
	return &Normalizer{reg: reg, aliasWrapper: aliasWrapper}
}

// Normalize converts expr using the default alias wrapper.
func Normalize(expr syntax.TypeExpr, nullable bool, reg *registry.Registry, fieldName string) (types.Type, error) {
	return New(reg, "").Normalize(expr, nullable, fieldName)
}

// Normalize converts expr into a canonical type. The only failure is a
// circular alias chain.
func (n *Normalizer) Normalize(expr syntax.TypeExpr, nullable bool, fieldName string) (types.Type, error) {
	return n.normalize(expr, nullable, fieldName, nil)
}

// Resolve expands a registered name.
func (n *Normalizer) Resolve(name string, nullable bool) (types.Type, error) {
	return n.normalize(&syntax.Ref{Name: name}, nullable, "", nil)
}

func (n *Normalizer) normalize(expr syntax.TypeExpr, nullable bool, fieldName string, expanding []string) (types.Type, error) {
	switch e := expr.(type) {
	case *syntax.Nullable:
		return n.normalize(e.Inner, true, fieldName, expanding)

	case *syntax.Ref:
		if wire, inner, ok := n.aliasOf(e); ok {
			return n.normalize(inner, nullable, wire, expanding)
		}
		def, ok := n.lookup(e.Name)
		if !ok {
			return rename(types.NewScalar(types.KindAny, nullable), fieldName), nil
		}
		for _, name := range expanding {
			if name == e.Name {
				chain := append(append([]string(nil), expanding...), e.Name)
				return nil, errors.NewCircularAlias(errors.SourceLocation{}, chain)
			}
		}
		return n.normalize(def, nullable, fieldName, append(expanding, e.Name))

	case *syntax.ObjectLit:
		fields := make([]*types.Field, 0, len(e.Props))
		for _, p := range e.Props {
			t, err := n.normalize(p.Type, false, "", expanding)
			if err != nil {
				return nil, err
			}
			fields = append(fields, types.NewField(p.Name, t))
		}
		return rename(types.NewObject(nullable, fields...), fieldName), nil

	case *syntax.ArrayOf:
		elem, err := n.normalize(e.Elem, false, "", expanding)
		if err != nil {
			return nil, err
		}
		return rename(types.NewArray(elem, nullable), fieldName), nil

	case *syntax.Primitive:
		return rename(types.NewScalar(primitiveKind(e.Name), nullable), fieldName), nil

	case *syntax.Literal:
		return rename(types.NewScalar(literalKind(e.Kind), nullable), fieldName), nil
	}

	return rename(types.NewScalar(types.KindAny, nullable), fieldName), nil
}

// aliasOf matches `AliasFor<'wire', T>`.
func (n *Normalizer) aliasOf(ref *syntax.Ref) (string, syntax.TypeExpr, bool) {
	if ref.Name != n.aliasWrapper || len(ref.Args) != 2 {
		return "", nil, false
	}
	lit, ok := ref.Args[0].(*syntax.Literal)
	if !ok || lit.Kind != syntax.LiteralString {
		return "", nil, false
	}
	return lit.Value, ref.Args[1], true
}

func (n *Normalizer) lookup(name string) (syntax.TypeExpr, bool) {
	if n.reg == nil {
		return nil, false
	}
	return n.reg.Lookup(name)
}

func rename(t types.Type, fieldName string) types.Type {
	if fieldName == "" {
		return t
	}
	return t.WithFieldName(fieldName)
}

func primitiveKind(name string) types.Kind {
	switch name {
	case "boolean":
		return types.KindBoolean
	case "number":
		return types.KindNumber
	case "string":
		return types.KindString
	}
	return types.KindAny
}

func literalKind(k syntax.LiteralKind) types.Kind {
	switch k {
	case syntax.LiteralBoolean:
		return types.KindBoolean
	case syntax.LiteralNumber:
		return types.KindNumber
	}
	return types.KindString
}
