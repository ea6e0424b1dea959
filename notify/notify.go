// Package notify publishes validation results and document-change events to
// the external live-analysis collaborator over a JSON-RPC connection, using
// LSP notification shapes. It is a client of the side channel only; no
// server features live here.
package notify

import (
	"context"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/omlkit/oml/check"
	"github.com/omlkit/oml/playbook"
)

// Publisher sends notifications over a jsonrpc2 connection. Notifications
// are awaited sequentially; the caller relies on ordering.
type Publisher struct {
	conn   jsonrpc2.Conn
	logger *zap.Logger
}

// NewPublisher creates a publisher over conn. A nil logger defaults to a
// no-op logger.
func NewPublisher(conn jsonrpc2.Conn, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Publisher{conn: conn, logger: logger}
}

// PublishViolations sends the violations for one document as a
// textDocument/publishDiagnostics notification.
func (p *Publisher) PublishViolations(ctx context.Context, path string, violations []check.Violation) error {
	diagnostics := make([]protocol.Diagnostic, 0, len(violations))

	for _, v := range violations {
		diagnostics = append(diagnostics, convertViolation(v))
	}

	p.logger.Debug("publishing diagnostics",
		zap.String("path", path),
		zap.Int("count", len(diagnostics)))

	return p.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri.File(path),
		Diagnostics: diagnostics,
	})
}

// DocumentChanged sends a workspace/didChangeWatchedFiles notification. It
// implements workspace.ChangeNotifier.
func (p *Publisher) DocumentChanged(ctx context.Context, path string) error {
	p.logger.Debug("publishing document change", zap.String("path", path))

	return p.conn.Notify(ctx, protocol.MethodWorkspaceDidChangeWatchedFiles, &protocol.DidChangeWatchedFilesParams{
		Changes: []*protocol.FileEvent{{
			URI:  uri.File(path),
			Type: protocol.FileChangeTypeChanged,
		}},
	})
}

// convertViolation converts a check.Violation to an LSP diagnostic.
// Violations carry no source span; the diagnostic anchors at the top of the
// file and names the instance in its message.
func convertViolation(v check.Violation) protocol.Diagnostic {
	message := v.Message
	if v.Instance != "" {
		message = v.Instance + ": " + message
	}

	return protocol.Diagnostic{
		Severity: convertSeverity(v.Severity),
		Code:     v.RuleID,
		Source:   "oml",
		Message:  message,
	}
}

// convertSeverity converts playbook severity to LSP severity.
func convertSeverity(sev playbook.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case playbook.SeverityError:
		return protocol.DiagnosticSeverityError
	case playbook.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case playbook.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}
