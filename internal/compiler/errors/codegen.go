package errors

// Code generation error codes (GEN300-399)
const (
	// ErrInvalidFragment indicates the generated text does not parse as GraphQL
	ErrInvalidFragment ErrorCode = "GEN301"
)

// NewInvalidFragment creates a GEN301 error carrying the GraphQL parser's message
func NewInvalidFragment(loc SourceLocation, parserMessage, fragment string) *CompilerError {
	return newError(
		ErrInvalidFragment,
		"invalid_fragment",
		CategoryCodeGen,
		SeverityError,
		parserMessage,
		loc,
	).WithActual(fragment).
		WithSuggestion("Check the name, type and directives options of the marker call")
}
