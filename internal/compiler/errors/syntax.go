package errors

import (
	"fmt"
)

// Syntax error codes (SYN001-099)
const (
	// ErrSyntax indicates the parser had to recover from malformed source
	ErrSyntax ErrorCode = "SYN001"
)

// NewSyntaxError creates a SYN001 error
func NewSyntaxError(loc SourceLocation, file string) *CompilerError {
	return newError(
		ErrSyntax,
		"syntax_error",
		CategorySyntax,
		SeverityError,
		fmt.Sprintf("Syntax error in %s", file),
		loc,
	).WithFile(file).
		WithSuggestion("Fix the source so it parses as TypeScript or TSX")
}
