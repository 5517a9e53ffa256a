package lsp

import (
	"fmt"
	"strings"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/transform"
)

// document is an open editor buffer and its last transform result
type document struct {
	version int32
	text    string
	result  *transform.Result
}

type documents struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*document
}

func newDocuments() *documents {
	return &documents{docs: make(map[protocol.DocumentURI]*document)}
}

func (d *documents) get(u protocol.DocumentURI) (*document, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.docs[u]
	return doc, ok
}

func (d *documents) put(u protocol.DocumentURI, doc *document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[u] = doc
}

func (d *documents) remove(u protocol.DocumentURI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.docs, u)
}

// toDiagnostic converts a compiler error. Other errors are not reportable
// at a source position.
func toDiagnostic(err error) (protocol.Diagnostic, bool) {
	ce, ok := errors.As(err)
	if !ok {
		return protocol.Diagnostic{}, false
	}

	line := max(ce.Location.Line-1, 0)
	col := max(ce.Location.Column-1, 0)
	end := col + 1
	if ce.Context != nil && len(ce.Context.Current) > col {
		end = len(ce.Context.Current)
	}

	message := ce.Message
	if len(ce.Details) > 0 {
		message += "\n" + strings.Join(ce.Details, "\n")
	}
	if ce.Suggestion != "" {
		message += "\n" + ce.Suggestion
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
			End:   protocol.Position{Line: uint32(line), Character: uint32(end)},
		},
		Severity: convertSeverity(ce.Severity),
		Code:     string(ce.Code),
		Source:   "propfrag",
		Message:  message,
	}, true
}

// convertSeverity converts compiler severity to LSP severity
func convertSeverity(severity errors.ErrorSeverity) protocol.DiagnosticSeverity {
	switch severity {
	case errors.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case errors.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

// hover returns the fragment generated for the marker call on the hovered
// line, if any.
func (s *Server) hover(u protocol.DocumentURI, pos protocol.Position) *protocol.Hover {
	doc, ok := s.docs.get(u)
	if !ok || doc.result == nil {
		return nil
	}
	for _, f := range doc.result.Fragments {
		if uint32(f.Line-1) != pos.Line {
			continue
		}
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: fmt.Sprintf("**%s.%s** on `%s`\n\n```graphql\n%s\n```", f.Component, f.Key, f.TypeName, f.Text),
			},
		}
	}
	return nil
}
