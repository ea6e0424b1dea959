package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/omlkit/oml"
)

// Loader errors.
var (
	// ErrDocumentNotFound is returned when a document path does not exist.
	ErrDocumentNotFound = errors.New("workspace: document not found")

	// ErrParse is returned when a document fails to parse.
	ErrParse = errors.New("workspace: parse error")
)

// LoadError reports a failure to load a document, including the document
// that imported it when loading was triggered by an import.
type LoadError struct {
	Path         string
	ImportedFrom string
	Cause        error
}

func (e *LoadError) Error() string {
	if e.ImportedFrom != "" {
		return fmt.Sprintf("loading %s (imported from %s): %v", e.Path, e.ImportedFrom, e.Cause)
	}

	return fmt.Sprintf("loading %s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Loader reads, parses, and caches ontology documents into a workspace.
// The parser is injectable: the default decodes the document-model
// interchange format, and callers with a text parser supply their own.
type Loader struct {
	ws    *Workspace
	cache map[string]*oml.Ontology

	// Parser converts document bytes into the model. Defaults to
	// oml.DecodeOntology.
	Parser func(data []byte, path string) (*oml.Ontology, error)

	// Notifier, when set, is told about reloaded documents.
	Notifier ChangeNotifier

	logger *zap.Logger
}

// NewLoader creates a loader that populates ws.
func NewLoader(ws *Workspace, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loader{
		ws:     ws,
		cache:  make(map[string]*oml.Ontology),
		Parser: oml.DecodeOntology,
		logger: logger,
	}
}

// Load loads a document from the given path. Relative paths are resolved
// from the current working directory. Returns a cached document if already
// loaded.
func (l *Loader) Load(path string) (*oml.Ontology, error) {
	absPath, err := l.resolvePath(path, "")
	if err != nil {
		return nil, err
	}

	return l.loadAbsolute(absPath, "")
}

// LoadFrom loads a document, resolving the path relative to the importing
// document. This is used when following import declarations.
func (l *Loader) LoadFrom(path, fromPath string) (*oml.Ontology, error) {
	absPath, err := l.resolvePath(path, fromPath)
	if err != nil {
		return nil, &LoadError{Path: path, ImportedFrom: fromPath, Cause: err}
	}

	return l.loadAbsolute(absPath, fromPath)
}

// Reload re-reads a document after an external write, replacing the cached
// copy and notifying the change notifier. The notification is awaited before
// returning so that a subsequent resolution observes the written state.
func (l *Loader) Reload(ctx context.Context, path string) (*oml.Ontology, error) {
	absPath, err := l.resolvePath(path, "")
	if err != nil {
		return nil, err
	}

	delete(l.cache, absPath)
	l.ws.Remove(absPath)

	doc, err := l.loadAbsolute(absPath, "")
	if err != nil {
		return nil, err
	}

	if l.Notifier != nil {
		if err := l.Notifier.DocumentChanged(ctx, absPath); err != nil {
			return nil, fmt.Errorf("notifying change for %s: %w", absPath, err)
		}
	}

	return doc, nil
}

// resolvePath resolves a path to an absolute path. If basePath is provided,
// relative paths are resolved from its directory.
func (l *Loader) resolvePath(path, basePath string) (string, error) {
	if filepath.IsAbs(path) {
		return l.normalizePath(path)
	}

	var baseDir string
	if basePath != "" {
		baseDir = filepath.Dir(basePath)
	} else {
		var err error

		baseDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	return l.normalizePath(filepath.Join(baseDir, path))
}

// normalizePath ensures the path has the .oml extension and exists.
func (l *Loader) normalizePath(path string) (string, error) {
	path = filepath.Clean(path)

	if _, err := os.Stat(path); err == nil {
		return filepath.Abs(path)
	}

	if filepath.Ext(path) == "" {
		withExt := path + ".oml"
		if _, err := os.Stat(withExt); err == nil {
			return filepath.Abs(withExt)
		}
	}

	return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
}

// loadAbsolute loads a document from an absolute path.
func (l *Loader) loadAbsolute(absPath, importedFrom string) (*oml.Ontology, error) {
	if doc, ok := l.cache[absPath]; ok {
		return doc, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &LoadError{Path: absPath, ImportedFrom: importedFrom, Cause: err}
	}

	doc, err := l.Parser(data, absPath)
	if err != nil {
		return nil, &LoadError{
			Path:         absPath,
			ImportedFrom: importedFrom,
			Cause:        fmt.Errorf("%w: %w", ErrParse, err),
		}
	}

	l.cache[absPath] = doc
	l.ws.Add(doc)

	l.logger.Debug("document loaded", zap.String("path", absPath))

	return doc, nil
}

// Clear empties the document cache.
func (l *Loader) Clear() {
	l.cache = make(map[string]*oml.Ontology)
}
