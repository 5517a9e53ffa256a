package codegen

import (
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/propfrag/propfrag/internal/compiler/errors"
)

var anonymousFragment = regexp.MustCompile(`^(\s*fragment)\s+on\b`)

// Validate parses generated fragment text as a GraphQL document.
// Interpolations are replaced first: those inside a selection set become
// fragment spreads, those at the top level are dropped. Anonymous fragments
// get a placeholder name and empty directive argument lists are removed.
func Validate(text string) error {
	doc := anonymousFragment.ReplaceAllString(stripInterpolations(text), "$1 Anonymous on")
	doc = strings.ReplaceAll(doc, "()", "")

	_, err := parser.ParseQuery(&ast.Source{Name: "fragment", Input: doc})
	if err == nil {
		return nil
	}
	msg := err.Error()
	var gqlErr *gqlerror.Error
	if stderrors.As(err, &gqlErr) {
		msg = gqlErr.Message
	}
	return errors.NewInvalidFragment(errors.SourceLocation{}, msg, text)
}

func stripInterpolations(text string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '$' && i+1 < len(text) && text[i+1] == '{' {
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				b.WriteString(text[i:])
				break
			}
			if depth > 0 {
				b.WriteString("...Interpolated")
			}
			i += end
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		}
		b.WriteByte(c)
	}
	return b.String()
}
