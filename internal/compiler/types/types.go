// Package types implements the canonical type tree shared by the props
// normalizer, the schema conformance checker and the fragment renderer.
// A canonical tree never contains alias or reference nodes.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the shape of a canonical type.
type Kind string

const (
	KindBoolean Kind = "boolean"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindAny     Kind = "any"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// IsScalar reports whether k is one of the four scalar kinds.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBoolean, KindNumber, KindString, KindAny:
		return true
	}
	return false
}

// Type is a node of the canonical type tree.
// Every node carries explicit nullability (! vs ?) and an optional
// field name that replaces the local key on the wire.
type Type interface {
	// String returns the human-readable representation of the type
	String() string

	// Kind returns the scalar kind, or object/array for composite nodes
	Kind() Kind

	// IsNullable returns true if the value can be null
	IsNullable() bool

	// FieldName returns the wire name override, or "" when the key is used as is
	FieldName() string

	// Signature returns the (kind, nullability) pair compared during conformance checks
	Signature() string

	// Equals checks if two types are structurally identical, including field order
	Equals(other Type) bool

	// MakeNullable returns a copy of the type marked nullable
	MakeNullable() Type

	// MakeRequired returns a copy of the type marked non-null
	MakeRequired() Type

	// WithFieldName returns a copy of the type carrying the given wire name
	WithFieldName(name string) Type
}

func nullSuffix(nullable bool) string {
	if nullable {
		return "?"
	}
	return "!"
}

func signature(k Kind, nullable bool) string {
	return string(k) + nullSuffix(nullable)
}

// ScalarType is a leaf value: boolean, number, string or any.
type ScalarType struct {
	Scalar   Kind
	Nullable bool
	Rename   string
}

// NewScalar creates a scalar of the given kind. Non-scalar kinds collapse to any.
func NewScalar(kind Kind, nullable bool) *ScalarType {
	if !kind.IsScalar() {
		kind = KindAny
	}
	return &ScalarType{Scalar: kind, Nullable: nullable}
}

func (s *ScalarType) String() string {
	return renamed(s.Rename, signature(s.Scalar, s.Nullable))
}

// Kind returns the scalar kind.
func (s *ScalarType) Kind() Kind { return s.Scalar }

// IsNullable returns whether the scalar can be null.
func (s *ScalarType) IsNullable() bool { return s.Nullable }

// FieldName returns the wire name override.
func (s *ScalarType) FieldName() string { return s.Rename }

// Signature returns e.g. "string!".
func (s *ScalarType) Signature() string { return signature(s.Scalar, s.Nullable) }

// Equals checks if two scalars are identical.
func (s *ScalarType) Equals(other Type) bool {
	o, ok := other.(*ScalarType)
	if !ok {
		return false
	}
	return s.Scalar == o.Scalar && s.Nullable == o.Nullable && s.Rename == o.Rename
}

// MakeNullable returns a nullable copy.
func (s *ScalarType) MakeNullable() Type {
	return &ScalarType{Scalar: s.Scalar, Nullable: true, Rename: s.Rename}
}

// MakeRequired returns a non-null copy.
func (s *ScalarType) MakeRequired() Type {
	return &ScalarType{Scalar: s.Scalar, Nullable: false, Rename: s.Rename}
}

// WithFieldName returns a copy with the wire name set.
func (s *ScalarType) WithFieldName(name string) Type {
	return &ScalarType{Scalar: s.Scalar, Nullable: s.Nullable, Rename: name}
}

// Field is a named member of an object type.
type Field struct {
	Name string
	Type Type
}

// ObjectType is an ordered set of fields.
type ObjectType struct {
	Fields   []*Field
	Nullable bool
	Rename   string
}

// NewObject creates an object type; field order is preserved.
func NewObject(nullable bool, fields ...*Field) *ObjectType {
	return &ObjectType{Fields: fields, Nullable: nullable}
}

// NewField is a convenience constructor for object members.
func NewField(name string, t Type) *Field {
	return &Field{Name: name, Type: t}
}

func (o *ObjectType) String() string {
	parts := make([]string, 0, len(o.Fields))
	for _, f := range o.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Type.String()))
	}
	return renamed(o.Rename, fmt.Sprintf("{%s}%s", strings.Join(parts, ", "), nullSuffix(o.Nullable)))
}

// Kind returns KindObject.
func (o *ObjectType) Kind() Kind { return KindObject }

// IsNullable returns whether the object can be null.
func (o *ObjectType) IsNullable() bool { return o.Nullable }

// FieldName returns the wire name override.
func (o *ObjectType) FieldName() string { return o.Rename }

// Signature returns "object!" or "object?".
func (o *ObjectType) Signature() string { return signature(KindObject, o.Nullable) }

// Equals checks field-by-field, in order.
func (o *ObjectType) Equals(other Type) bool {
	oo, ok := other.(*ObjectType)
	if !ok {
		return false
	}
	if o.Nullable != oo.Nullable || o.Rename != oo.Rename || len(o.Fields) != len(oo.Fields) {
		return false
	}
	for i, f := range o.Fields {
		g := oo.Fields[i]
		if f.Name != g.Name || !f.Type.Equals(g.Type) {
			return false
		}
	}
	return true
}

// MakeNullable returns a nullable copy sharing the field list.
func (o *ObjectType) MakeNullable() Type {
	return &ObjectType{Fields: o.Fields, Nullable: true, Rename: o.Rename}
}

// MakeRequired returns a non-null copy sharing the field list.
func (o *ObjectType) MakeRequired() Type {
	return &ObjectType{Fields: o.Fields, Nullable: false, Rename: o.Rename}
}

// WithFieldName returns a copy with the wire name set.
func (o *ObjectType) WithFieldName(name string) Type {
	return &ObjectType{Fields: o.Fields, Nullable: o.Nullable, Rename: name}
}

// GetField looks up a field by its local name.
func (o *ObjectType) GetField(name string) (Type, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// FieldNames returns the local field names sorted ascending.
func (o *ObjectType) FieldNames() []string {
	names := make([]string, 0, len(o.Fields))
	for _, f := range o.Fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// ArrayType is a list of Elem values.
type ArrayType struct {
	Elem     Type
	Nullable bool
	Rename   string
}

// NewArray creates an array type.
func NewArray(elem Type, nullable bool) *ArrayType {
	return &ArrayType{Elem: elem, Nullable: nullable}
}

func (a *ArrayType) String() string {
	return renamed(a.Rename, fmt.Sprintf("[%s]%s", a.Elem.String(), nullSuffix(a.Nullable)))
}

// Kind returns KindArray.
func (a *ArrayType) Kind() Kind { return KindArray }

// IsNullable returns whether the list can be null.
func (a *ArrayType) IsNullable() bool { return a.Nullable }

// FieldName returns the wire name override.
func (a *ArrayType) FieldName() string { return a.Rename }

// Signature returns "array!" or "array?".
func (a *ArrayType) Signature() string { return signature(KindArray, a.Nullable) }

// Equals compares nullability, rename and element type.
func (a *ArrayType) Equals(other Type) bool {
	o, ok := other.(*ArrayType)
	if !ok {
		return false
	}
	return a.Nullable == o.Nullable && a.Rename == o.Rename && a.Elem.Equals(o.Elem)
}

// MakeNullable returns a nullable copy.
func (a *ArrayType) MakeNullable() Type {
	return &ArrayType{Elem: a.Elem, Nullable: true, Rename: a.Rename}
}

// MakeRequired returns a non-null copy.
func (a *ArrayType) MakeRequired() Type {
	return &ArrayType{Elem: a.Elem, Nullable: false, Rename: a.Rename}
}

// WithFieldName returns a copy with the wire name set.
func (a *ArrayType) WithFieldName(name string) Type {
	return &ArrayType{Elem: a.Elem, Nullable: a.Nullable, Rename: name}
}

// Unwrap strips array layers and returns the innermost element type.
func Unwrap(t Type) Type {
	for {
		a, ok := t.(*ArrayType)
		if !ok {
			return t
		}
		t = a.Elem
	}
}

// WireName returns the name a field is emitted under.
func WireName(f *Field) string {
	if n := f.Type.FieldName(); n != "" {
		return n
	}
	return f.Name
}

func renamed(rename, s string) string {
	if rename == "" {
		return s
	}
	return fmt.Sprintf("%s as %s", s, rename)
}
