package errors

import (
	"fmt"
)

// Configuration error codes (CFG400-499)
const (
	// ErrSchemaLoad indicates the schema file could not be read or parsed
	ErrSchemaLoad ErrorCode = "CFG401"
)

// NewSchemaLoad creates a CFG401 error
func NewSchemaLoad(path string, cause error) *CompilerError {
	return newError(
		ErrSchemaLoad,
		"schema_load",
		CategoryConfig,
		SeverityError,
		cause.Error(),
		SourceLocation{},
	).WithFile(path).
		WithSuggestion(fmt.Sprintf("Point `schema` in propfrag.yaml at a readable SDL or introspection file (got %s)", path))
}
