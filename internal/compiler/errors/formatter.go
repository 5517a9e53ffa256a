package errors

import (
	"fmt"
	"strings"
)

// FormatError renders e as a code frame:
//
//	❌ Schema Error [SCH203] Article.tsx:2:14
//	   Props type does not match schema type Article
//	     author.email: expected string!, actual number!
//
//	    2 |   fragments: { article: generateFragmentFromProps() },
//	      |              ^
func FormatError(e *CompilerError) string {
	var b strings.Builder

	file := e.File
	if file == "" {
		file = "<source>"
	}
	fmt.Fprintf(&b, "%s %s [%s] %s:%d:%d\n",
		severityIcon(e.Severity), categoryDisplayName(e.Category), e.Code,
		file, e.Location.Line, e.Location.Column)

	fmt.Fprintf(&b, "   %s\n", e.Message)
	for _, detail := range e.Details {
		fmt.Fprintf(&b, "     %s\n", detail)
	}

	if e.Context != nil && len(e.Context.SourceLines) > 0 {
		b.WriteString("\n")
		writeFrame(&b, e)
	}

	if e.Expected != "" || e.Actual != "" {
		b.WriteString("\n")
		if e.Expected != "" {
			fmt.Fprintf(&b, "   Expected: %s\n", e.Expected)
		}
		if e.Actual != "" {
			fmt.Fprintf(&b, "   Actual:   %s\n", e.Actual)
		}
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", e.Suggestion)
	}
	if len(e.Examples) > 0 {
		b.WriteString("\nPossible fixes:\n")
		for _, example := range e.Examples {
			fmt.Fprintf(&b, "   - %s\n", example)
		}
	}
	if e.Documentation != "" {
		fmt.Fprintf(&b, "\nSee %s\n", e.Documentation)
	}
	return b.String()
}

// writeFrame prints the context lines with a caret under the error column.
// SourceLines holds the line before (empty on line 1), the error line and
// the line after.
func writeFrame(b *strings.Builder, e *CompilerError) {
	first := e.Location.Line - 1
	for i, line := range e.Context.SourceLines {
		num := first + i
		if num < 1 {
			continue
		}
		fmt.Fprintf(b, "%5d | %s\n", num, line)
		if num == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "      | %s^\n", caretPadding(line, e.Location.Column))
		}
	}
}

// caretPadding keeps tabs from the source line so the caret lines up.
func caretPadding(line string, column int) string {
	var pad strings.Builder
	for i, r := range []rune(line) {
		if i >= column-1 {
			break
		}
		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteRune(' ')
		}
	}
	return pad.String()
}

// FormatErrorList renders every error after a count summary.
func FormatErrorList(errors ErrorList) string {
	if len(errors) == 0 {
		return "no errors"
	}

	var b strings.Builder
	errCount, warnCount, infoCount := errors.ErrorCount()
	fmt.Fprintf(&b, "Generation failed with %d error(s), %d warning(s), %d info\n",
		errCount, warnCount, infoCount)
	for _, err := range errors {
		b.WriteString("\n")
		b.WriteString(err.Format())
	}
	return b.String()
}

// FormatCompact returns the one-line form used by editors and CI logs.
func FormatCompact(e *CompilerError) string {
	file := e.File
	if file == "" {
		file = "<source>"
	}
	msg := e.Message
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]",
		file, e.Location.Line, e.Location.Column,
		e.Severity, msg, e.Code)
}

func severityIcon(severity ErrorSeverity) string {
	switch severity {
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️ "
	default:
		return "ℹ️ "
	}
}

func categoryDisplayName(category ErrorCategory) string {
	switch category {
	case CategorySyntax:
		return "Syntax Error"
	case CategoryResolve:
		return "Resolution Error"
	case CategorySchema:
		return "Schema Error"
	case CategoryCodeGen:
		return "Code Generation Error"
	case CategoryConfig:
		return "Configuration Error"
	}
	return "Error"
}
