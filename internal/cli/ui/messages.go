package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/propfrag/propfrag/internal/compiler/errors"
)

// Level is the severity of a CLI message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message describes a CLI message with optional suggestions and hints
type Message struct {
	Level       Level
	Context     string
	Problem     string
	Detail      string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

// Format renders a message.
//
// Example output:
//
//	❌ COMPONENT NOT FOUND: Cannot find component 'Artcle'.
//
//	   Did you mean: Article?
//
//	   → List components: propfrag inspect src/Article.tsx
func Format(m Message) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch m.Level {
	case LevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case LevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	default:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	}
	if m.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if m.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if m.Detail != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", m.Detail)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if m.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Hints) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if m.NoColor {
			cyan.DisableColor()
		}
		for _, hint := range m.Hints {
			cyan.Fprintf(&b, "   → %s\n", hint)
		}
	}

	return b.String()
}

// Write writes a formatted message to w
func Write(w io.Writer, m Message) {
	fmt.Fprint(w, Format(m))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// NotFound reports a missing named thing with close matches from candidates.
func NotFound(what, name string, candidates []string, hints []string, noColor bool) string {
	return Format(Message{
		Level:       LevelError,
		Context:     what + " not found",
		Problem:     fmt.Sprintf("Cannot find %s '%s'.", strings.ToLower(what), name),
		Suggestions: FindSimilar(name, candidates, nil),
		Hints:       hints,
		NoColor:     noColor,
	})
}

// ConfigError creates a configuration error message
func ConfigError(message string, noColor bool) string {
	return Format(Message{
		Level:   LevelError,
		Context: "configuration error",
		Problem: message,
		Hints: []string{
			"View config: cat propfrag.yaml",
			"Create one: propfrag init",
		},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return Format(Message{Level: LevelWarning, Problem: message, NoColor: noColor})
}

// Info creates an info message
func Info(message string, noColor bool) string {
	return Format(Message{Level: LevelInfo, Problem: message, NoColor: noColor})
}

// WriteCompilerErrors prints every compiler error with its source context.
func WriteCompilerErrors(w io.Writer, list errors.ErrorList, noColor bool) {
	if len(list) == 0 {
		return
	}
	red := color.New(color.FgRed)
	if noColor {
		red.DisableColor()
	}
	red.Fprint(w, errors.FormatErrorList(list))
	fmt.Fprintln(w)
}
