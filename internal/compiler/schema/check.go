package schema

import (
	"fmt"
	"sort"

	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/types"
)

// Mismatch is one disagreement between a component type and the schema.
type Mismatch struct {
	Path     string
	Expected string // schema signature
	Actual   string // component signature
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, actual %s", m.Path, m.Expected, m.Actual)
}

// Check compares a component's canonical object type with the schema type
// typeName. An unknown or non-object schema type is a fatal error; shape
// disagreements are returned as mismatches ordered by path.
func Check(c *Catalog, typeName string, component types.Type) ([]Mismatch, error) {
	def, ok := c.Lookup(typeName)
	if !ok {
		return nil, errors.NewUnknownSchemaType(errors.SourceLocation{}, typeName)
	}
	if !IsObjectLike(def) {
		return nil, errors.NewSchemaTypeNotObject(errors.SourceLocation{}, typeName, string(def.Kind))
	}
	schemaType := c.newConverter().object(def, false)

	obj, ok := component.(*types.ObjectType)
	if !ok {
		return []Mismatch{{Path: ".", Expected: schemaType.Signature(), Actual: component.Signature()}}, nil
	}

	var out []Mismatch
	compareObject("", obj, schemaType, &out)
	return out, nil
}

// MismatchError wraps mismatches as a SCH203 error.
func MismatchError(typeName string, mismatches []Mismatch) *errors.CompilerError {
	lines := make([]string, len(mismatches))
	for i, m := range mismatches {
		lines[i] = m.String()
	}
	return errors.NewSchemaMismatch(errors.SourceLocation{}, typeName, lines)
}

func compareObject(prefix string, component, schema *types.ObjectType, out *[]Mismatch) {
	byWire := make(map[string]*types.Field, len(component.Fields))
	keys := make([]string, 0, len(component.Fields))
	for _, f := range component.Fields {
		wire := types.WireName(f)
		if _, dup := byWire[wire]; dup {
			continue
		}
		byWire[wire] = f
		keys = append(keys, wire)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		// Keys only the component has are not compared.
		st, ok := schema.GetField(key)
		if !ok {
			continue
		}
		compare(path, byWire[key].Type, st, out)
	}
}

func compare(path string, component, schema types.Type, out *[]Mismatch) {
	if component.Signature() != schema.Signature() {
		*out = append(*out, Mismatch{Path: path, Expected: schema.Signature(), Actual: component.Signature()})
		return
	}
	switch ct := component.(type) {
	case *types.ObjectType:
		compareObject(path, ct, schema.(*types.ObjectType), out)
	case *types.ArrayType:
		compare(path, ct.Elem, schema.(*types.ArrayType).Elem, out)
	}
}
