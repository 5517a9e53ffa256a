// Package lsp implements a Language Server Protocol server for propfrag.
// It reports generation errors as diagnostics while a file is edited and
// shows the generated fragment when hovering a marker call.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/transform"
)

// publisher is the part of protocol.Client the server uses
type publisher interface {
	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error
}

// Server implements the LSP server
type Server struct {
	transformer *transform.Transformer
	docs        *documents

	// conn is the JSON-RPC connection
	conn jsonrpc2.Conn

	// client receives published diagnostics
	client publisher

	logger *zap.Logger

	// workspaceRoot is the root directory of the workspace
	workspaceRoot string

	capabilities protocol.ServerCapabilities

	// cancel is used to signal server shutdown
	cancel context.CancelFunc
}

// NewServer creates a new LSP server instance
func NewServer(opts transform.Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		transformer: transform.New(opts),
		docs:        newDocuments(),
		logger:      logger.Named("lsp"),
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save: &protocol.SaveOptions{
					IncludeText: true,
				},
			},
			HoverProvider: true,
		},
	}
}

// Run serves LSP over stdin and stdout until the client exits or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, stdrwc{})
}

// Serve serves LSP over rwc.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	s.logger.Info("starting language server")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.conn = conn
	s.client = protocol.ClientDispatcher(conn, s.logger)

	conn.Go(ctx, s.handler())

	select {
	case <-ctx.Done():
	case <-conn.Done():
	}

	s.logger.Info("shutting down language server")
	return conn.Close()
}

// route handles one method. A nil result with a nil error replies null.
type route func(ctx context.Context, raw json.RawMessage) (interface{}, error)

// withParams decodes the request params into P before calling fn.
func withParams[P any](fn func(context.Context, *P) (interface{}, error)) route {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var params P
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
		}
		return fn(ctx, &params)
	}
}

func acknowledge(context.Context, json.RawMessage) (interface{}, error) { return nil, nil }

func (s *Server) routes() map[string]route {
	return map[string]route{
		protocol.MethodInitialize:            withParams(s.initialize),
		protocol.MethodInitialized:           acknowledge,
		protocol.MethodShutdown:              acknowledge,
		protocol.MethodExit:                  acknowledge,
		protocol.MethodTextDocumentDidOpen:   withParams(s.didOpen),
		protocol.MethodTextDocumentDidChange: withParams(s.didChange),
		protocol.MethodTextDocumentDidClose:  withParams(s.didClose),
		protocol.MethodTextDocumentDidSave:   withParams(s.didSave),
		protocol.MethodTextDocumentHover:     withParams(s.hoverAt),
	}
}

// handler dispatches requests through routes.
func (s *Server) handler() jsonrpc2.Handler {
	routes := s.routes()
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("received", zap.String("method", req.Method()))

		r, ok := routes[req.Method()]
		if !ok {
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
		result, err := r(ctx, req.Params())
		if replyErr := reply(ctx, result, err); replyErr != nil {
			s.logger.Warn("reply failed", zap.String("method", req.Method()), zap.Error(replyErr))
		}

		if req.Method() == protocol.MethodExit && s.cancel != nil {
			s.cancel()
		}
		return nil
	}
}

func (s *Server) initialize(_ context.Context, params *protocol.InitializeParams) (interface{}, error) {
	switch {
	case len(params.WorkspaceFolders) > 0:
		s.workspaceRoot = uri.URI(params.WorkspaceFolders[0].URI).Filename()
	case params.RootURI != "":
		s.workspaceRoot = params.RootURI.Filename()
	case params.RootPath != "":
		s.workspaceRoot = params.RootPath
	}
	s.logger.Info("initialized", zap.String("workspace", s.workspaceRoot))

	return protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo:   &protocol.ServerInfo{Name: "propfrag-lsp", Version: "0.1.0"},
	}, nil
}

func (s *Server) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) (interface{}, error) {
	s.update(ctx, params.TextDocument.URI, params.TextDocument.Version, params.TextDocument.Text)
	return nil, nil
}

func (s *Server) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) (interface{}, error) {
	if n := len(params.ContentChanges); n > 0 {
		// full sync: the last change is the whole document
		s.update(ctx, params.TextDocument.URI, params.TextDocument.Version, params.ContentChanges[n-1].Text)
	}
	return nil, nil
}

func (s *Server) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) (interface{}, error) {
	s.docs.remove(params.TextDocument.URI)
	s.publish(ctx, params.TextDocument.URI, 0, []protocol.Diagnostic{})
	return nil, nil
}

// didSave re-runs the transform since imported type files may have changed
// on disk.
func (s *Server) didSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) (interface{}, error) {
	text := params.Text
	var version int32
	if doc, ok := s.docs.get(params.TextDocument.URI); ok {
		version = doc.version
		if text == "" {
			text = doc.text
		}
	}
	s.update(ctx, params.TextDocument.URI, version, text)
	return nil, nil
}

func (s *Server) hoverAt(_ context.Context, params *protocol.HoverParams) (interface{}, error) {
	if h := s.hover(params.TextDocument.URI, params.Position); h != nil {
		return h, nil
	}
	return nil, nil
}

// update transforms the document text and publishes its diagnostics.
func (s *Server) update(ctx context.Context, docURI protocol.DocumentURI, version int32, text string) {
	path := docURI.Filename()
	res, err := s.transformer.TransformFile(ctx, path, []byte(text))

	doc := &document{version: version, text: text, result: res}
	s.docs.put(docURI, doc)

	diagnostics := []protocol.Diagnostic{}
	if err != nil {
		d, ok := toDiagnostic(err)
		if !ok {
			s.logger.Warn("transform failed", zap.String("file", path), zap.Error(err))
			return
		}
		diagnostics = append(diagnostics, d)
	}
	s.logger.Debug("diagnostics", zap.String("file", path), zap.Int("count", len(diagnostics)))
	s.publish(ctx, docURI, version, diagnostics)
}

func (s *Server) publish(ctx context.Context, docURI protocol.DocumentURI, version int32, diagnostics []protocol.Diagnostic) {
	if s.client == nil {
		return
	}
	params := protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Version:     uint32(version),
		Diagnostics: diagnostics,
	}
	if err := s.client.PublishDiagnostics(ctx, &params); err != nil {
		s.logger.Warn("error publishing diagnostics", zap.Error(err))
	}
}

// stdrwc implements io.ReadWriteCloser for stdin/stdout
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
