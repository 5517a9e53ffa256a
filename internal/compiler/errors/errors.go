// Package errors provides structured error handling for the propfrag
// pipeline. It defines error codes, categories, and formatting for both
// human-readable terminal output and machine-parseable JSON.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode string

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategorySyntax represents source parsing errors (SYN001-099)
	CategorySyntax ErrorCategory = "syntax"
	// CategoryResolve represents type and component resolution errors (RES100-199)
	CategoryResolve ErrorCategory = "resolve"
	// CategorySchema represents schema conformance errors (SCH200-299)
	CategorySchema ErrorCategory = "schema"
	// CategoryCodeGen represents fragment generation errors (GEN300-399)
	CategoryCodeGen ErrorCategory = "codegen"
	// CategoryConfig represents configuration and schema loading errors (CFG400-499)
	CategoryConfig ErrorCategory = "config"
)

// ErrorSeverity indicates the severity level of an error
type ErrorSeverity string

const (
	// SeverityError aborts the transform of a file
	SeverityError ErrorSeverity = "error"
	// SeverityWarning is reported but does not stop generation
	SeverityWarning ErrorSeverity = "warning"
	// SeverityInfo indicates informational messages
	SeverityInfo ErrorSeverity = "info"
)

// SourceLocation is a 1-indexed position in a source file
type SourceLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ErrorContext provides source code context for an error
type ErrorContext struct {
	// Current is the line of code where the error occurred
	Current string `json:"current"`
	// SourceLines is a snippet of source code (before, error line, after)
	SourceLines []string `json:"source_lines"`
}

// CompilerError is a structured pipeline error
type CompilerError struct {
	// Code is the unique error code (e.g., "RES103", "SYN001")
	Code ErrorCode `json:"code"`
	// Type is a machine-readable error type identifier
	Type string `json:"type"`
	// Category is the error category
	Category ErrorCategory `json:"category"`
	// Severity is the error severity level
	Severity ErrorSeverity `json:"severity"`
	// Message is the primary error message
	Message string `json:"message"`
	// Details holds one line per sub-problem (schema mismatches)
	Details []string `json:"details,omitempty"`
	// Location is the source location of the error
	Location SourceLocation `json:"location"`
	// File is the source file name (optional)
	File string `json:"file,omitempty"`
	// Context provides source code context
	Context *ErrorContext `json:"context,omitempty"`
	// Expected describes what was expected (optional)
	Expected string `json:"expected,omitempty"`
	// Actual describes what was actually found (optional)
	Actual string `json:"actual,omitempty"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty"`
	// Examples provides example fixes (optional)
	Examples []string `json:"examples,omitempty"`
	// Documentation points at the error reference
	Documentation string `json:"documentation,omitempty"`
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	return e.Format()
}

// Format returns a human-readable error message for terminal output
func (e *CompilerError) Format() string {
	return FormatError(e)
}

// Summary returns the message followed by its detail lines.
func (e *CompilerError) Summary() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + "\n" + strings.Join(e.Details, "\n")
}

// ToJSON returns the error as a JSON string
func (e *CompilerError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithFile sets the source file name for the error
func (e *CompilerError) WithFile(file string) *CompilerError {
	e.File = file
	return e
}

// WithLocation sets the source position
func (e *CompilerError) WithLocation(line, column int) *CompilerError {
	e.Location = SourceLocation{Line: line, Column: column}
	return e
}

// WithContext sets the source code context for the error
func (e *CompilerError) WithContext(current string, sourceLines []string) *CompilerError {
	e.Context = &ErrorContext{
		Current:     current,
		SourceLines: sourceLines,
	}
	return e
}

// WithSource fills Context from the file text around Location.
func (e *CompilerError) WithSource(src []byte) *CompilerError {
	if e.Location.Line <= 0 {
		return e
	}
	lines := strings.Split(string(src), "\n")
	idx := e.Location.Line - 1
	if idx >= len(lines) {
		return e
	}
	var snippet []string
	if idx > 0 {
		snippet = append(snippet, lines[idx-1])
	} else {
		snippet = append(snippet, "")
	}
	snippet = append(snippet, lines[idx])
	if idx+1 < len(lines) {
		snippet = append(snippet, lines[idx+1])
	}
	return e.WithContext(lines[idx], snippet)
}

// WithExpected sets the expected value for the error
func (e *CompilerError) WithExpected(expected string) *CompilerError {
	e.Expected = expected
	return e
}

// WithActual sets the actual value for the error
func (e *CompilerError) WithActual(actual string) *CompilerError {
	e.Actual = actual
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *CompilerError) WithSuggestion(suggestion string) *CompilerError {
	e.Suggestion = suggestion
	return e
}

// WithExamples sets example fixes for the error
func (e *CompilerError) WithExamples(examples ...string) *CompilerError {
	e.Examples = examples
	return e
}

// As extracts a *CompilerError from err's chain.
func As(err error) (*CompilerError, bool) {
	var ce *CompilerError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ErrorList is a collection of compiler errors
type ErrorList []*CompilerError

// Error implements the error interface
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	return FormatErrorList(el)
}

// HasErrors returns true if the list contains any errors (excludes warnings/info)
func (el ErrorList) HasErrors() bool {
	for _, err := range el {
		if err.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if the list contains any warnings
func (el ErrorList) HasWarnings() bool {
	for _, err := range el {
		if err.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ToJSON returns all errors as a JSON array
func (el ErrorList) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(el, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ErrorCount returns the number of errors by severity
func (el ErrorList) ErrorCount() (errors, warnings, info int) {
	for _, err := range el {
		switch err.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			info++
		}
	}
	return
}

// documentationURL returns the reference anchor for an error code
func documentationURL(code ErrorCode) string {
	return fmt.Sprintf("docs/errors.md#%s", strings.ToLower(string(code)))
}

// newError creates a new CompilerError with the given parameters
func newError(
	code ErrorCode,
	typ string,
	category ErrorCategory,
	severity ErrorSeverity,
	message string,
	loc SourceLocation,
) *CompilerError {
	return &CompilerError{
		Code:          code,
		Type:          typ,
		Category:      category,
		Severity:      severity,
		Message:       message,
		Location:      loc,
		Documentation: documentationURL(code),
	}
}
