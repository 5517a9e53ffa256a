package errors

import (
	"fmt"
)

// Schema error codes (SCH200-299)
const (
	// ErrUnknownSchemaType indicates the fragment type does not exist in the schema
	ErrUnknownSchemaType ErrorCode = "SCH201"
	// ErrSchemaTypeNotObject indicates the fragment type is not an object or interface
	ErrSchemaTypeNotObject ErrorCode = "SCH202"
	// ErrSchemaMismatch indicates the props shape disagrees with the schema
	ErrSchemaMismatch ErrorCode = "SCH203"
)

// NewUnknownSchemaType creates a SCH201 error
func NewUnknownSchemaType(loc SourceLocation, name string) *CompilerError {
	return newError(
		ErrUnknownSchemaType,
		"unknown_schema_type",
		CategorySchema,
		SeverityError,
		fmt.Sprintf("Schema has no type named %s", name),
		loc,
	).WithSuggestion("Pass the fragment type explicitly with the `type` option")
}

// NewSchemaTypeNotObject creates a SCH202 error
func NewSchemaTypeNotObject(loc SourceLocation, name, kind string) *CompilerError {
	return newError(
		ErrSchemaTypeNotObject,
		"schema_type_not_object",
		CategorySchema,
		SeverityError,
		fmt.Sprintf("Schema type %s is a %s, not an object type", name, kind),
		loc,
	).WithExpected("OBJECT").
		WithActual(kind)
}

// NewSchemaMismatch creates a SCH203 error. Each detail line names one
// mismatching path.
func NewSchemaMismatch(loc SourceLocation, typeName string, details []string) *CompilerError {
	err := newError(
		ErrSchemaMismatch,
		"schema_mismatch",
		CategorySchema,
		SeverityError,
		fmt.Sprintf("Props type does not match schema type %s", typeName),
		loc,
	)
	err.Details = details
	return err
}
