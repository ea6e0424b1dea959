// Package workspace maintains the set of loaded ontology documents a
// resolution or validation request runs against.
package workspace

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/omlkit/oml"
)

// Workspace is a snapshot of loaded ontology documents, indexed by namespace
// IRI, canonical prefix, and source path. It is constructed explicitly and
// passed by reference; there is no ambient global registry.
//
// A workspace is not safe for concurrent mutation. Callers serialize
// operations per the request-per-operation execution model.
type Workspace struct {
	byNamespace map[string]*oml.Ontology
	byPrefix    map[string][]*oml.Ontology
	byPath      map[string]*oml.Ontology

	logger *zap.Logger
}

// New creates an empty workspace. A nil logger defaults to a no-op logger.
func New(logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Workspace{
		byNamespace: make(map[string]*oml.Ontology),
		byPrefix:    make(map[string][]*oml.Ontology),
		byPath:      make(map[string]*oml.Ontology),
		logger:      logger,
	}
}

// Add registers a document, replacing any previous document with the same
// path or namespace.
func (w *Workspace) Add(doc *oml.Ontology) {
	if doc == nil {
		return
	}

	if doc.Path != "" {
		if prev, ok := w.byPath[doc.Path]; ok {
			w.remove(prev)
		}
	}

	if prev, ok := w.byNamespace[doc.Namespace]; ok {
		w.remove(prev)
	}

	w.byNamespace[doc.Namespace] = doc
	w.byPrefix[doc.Prefix] = append(w.byPrefix[doc.Prefix], doc)

	if doc.Path != "" {
		w.byPath[doc.Path] = doc
	}

	w.logger.Debug("document added",
		zap.String("namespace", doc.Namespace),
		zap.String("prefix", doc.Prefix),
		zap.String("path", doc.Path))
}

// remove unindexes a document.
func (w *Workspace) remove(doc *oml.Ontology) {
	delete(w.byNamespace, doc.Namespace)

	if doc.Path != "" {
		delete(w.byPath, doc.Path)
	}

	docs := w.byPrefix[doc.Prefix]
	for i, d := range docs {
		if d == doc {
			w.byPrefix[doc.Prefix] = append(docs[:i:i], docs[i+1:]...)
			break
		}
	}

	if len(w.byPrefix[doc.Prefix]) == 0 {
		delete(w.byPrefix, doc.Prefix)
	}
}

// Remove unindexes the document at the given path, if loaded.
func (w *Workspace) Remove(path string) {
	if doc, ok := w.byPath[path]; ok {
		w.remove(doc)
	}
}

// ByNamespace returns the document with the given namespace IRI, or nil.
func (w *Workspace) ByNamespace(iri string) *oml.Ontology {
	return w.byNamespace[iri]
}

// ByPrefix returns the documents whose canonical prefix is prefix, sorted by
// namespace for deterministic iteration.
func (w *Workspace) ByPrefix(prefix string) []*oml.Ontology {
	docs := append([]*oml.Ontology(nil), w.byPrefix[prefix]...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].Namespace < docs[j].Namespace })

	return docs
}

// ByPath returns the document loaded from path, or nil.
func (w *Workspace) ByPath(path string) *oml.Ontology {
	return w.byPath[path]
}

// Documents returns all loaded documents sorted by namespace.
func (w *Workspace) Documents() []*oml.Ontology {
	docs := make([]*oml.Ontology, 0, len(w.byNamespace))
	for _, doc := range w.byNamespace {
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Namespace < docs[j].Namespace })

	return docs
}

// ResolveImport returns the loaded target of an import declaration, or nil
// when the target namespace is not in the workspace.
func (w *Workspace) ResolveImport(imp *oml.Import) *oml.Ontology {
	return w.byNamespace[imp.Namespace]
}

// ChangeNotifier informs a live-analysis collaborator that a document
// changed on disk. Notifications are awaited sequentially: a subsequent
// resolution in the same logical operation must observe the written state.
type ChangeNotifier interface {
	DocumentChanged(ctx context.Context, path string) error
}
