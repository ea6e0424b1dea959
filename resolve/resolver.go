package resolve

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/workspace"
)

// Outcome discriminates the result of a resolution.
type Outcome int

// Resolution outcomes.
const (
	// Resolved means the name mapped to exactly one canonical qualified name.
	Resolved Outcome = iota

	// Ambiguous means several visible declarations share the name; the
	// caller must pick a candidate.
	Ambiguous

	// NotFound means no declaration matched.
	NotFound
)

// Candidate is one possible resolution of an ambiguous name.
type Candidate struct {
	// QName is the canonical qualified name.
	QName string

	// Namespace is the declaring ontology's namespace IRI.
	Namespace string

	// File is the declaring document's source path.
	File string
}

// InsertPolicy says where the external write-back collaborator should place
// an inserted import statement.
type InsertPolicy string

// InsertAfterImports places the new import after the document's existing
// imports and before its first statement.
const InsertAfterImports InsertPolicy = "after-imports"

// PendingImport is the structured "insert import" instruction emitted when a
// name resolves to a document the current one does not import. The resolver
// never edits files; it returns enough for the write-back collaborator to.
type PendingImport struct {
	// Namespace is the target namespace IRI.
	Namespace string

	// Prefix is the target's canonical prefix.
	Prefix string

	// Kind is the import keyword required by the ontology kinds involved.
	Kind oml.ImportKind

	// InsertText is the import statement text to insert.
	InsertText string

	// Policy says where to insert it.
	Policy InsertPolicy
}

// Result is the discriminated outcome of a resolution request.
type Result struct {
	Outcome Outcome

	// QName is the canonical qualified name; set when Outcome is Resolved.
	QName string

	// Pending is non-nil when the resolved declaration lives in a document
	// the current one does not yet import.
	Pending *PendingImport

	// Candidates holds one entry per match when Outcome is Ambiguous,
	// sorted by qualified name.
	Candidates []Candidate

	// Hint is a diagnostic message when Outcome is NotFound.
	Hint string
}

// Resolver resolves user-given names against a workspace snapshot.
type Resolver struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

// New creates a resolver over ws. A nil logger defaults to a no-op logger.
func New(ws *workspace.Workspace, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{ws: ws, logger: logger}
}

// Resolve resolves name in the context of doc. If kinds are given, only
// declarations of those kinds are considered.
//
// Qualified names resolve their prefix through the document's prefix map; an
// unknown prefix is NotFound with a missing-import hint, never an invented
// binding. Unqualified names search local declarations first, then documents
// reachable via declared imports, then the rest of the workspace; a match
// outside the import graph is Resolved with a PendingImport side channel.
//
// The returned error covers malformed input (duplicate aliases, an import
// the ontology kinds forbid), not failed resolution: failure is expressed in
// the Result.
func (r *Resolver) Resolve(doc *oml.Ontology, name string, kinds ...oml.StatementKind) (Result, error) {
	pm, err := BuildPrefixMap(r.ws, doc)
	if err != nil {
		return Result{}, err
	}

	if oml.IsQualified(name) {
		return r.resolveQualified(pm, doc, name, kinds)
	}

	return r.resolveUnqualified(doc, name, kinds)
}

func (r *Resolver) resolveQualified(pm *PrefixMap, doc *oml.Ontology, name string, kinds []oml.StatementKind) (Result, error) {
	prefix, local := oml.SplitName(name)

	canonical, ok := pm.Lookup(prefix)
	if !ok {
		return Result{
			Outcome: NotFound,
			Hint:    fmt.Sprintf("unknown prefix %q: missing import?", prefix),
		}, nil
	}

	if canonical == doc.Prefix {
		if doc.Statement(local, kinds...) != nil {
			return Result{Outcome: Resolved, QName: oml.JoinName(canonical, local)}, nil
		}
	}

	var matches []Candidate

	for _, target := range r.ws.ByPrefix(canonical) {
		if target == doc {
			continue
		}

		if target.Statement(local, kinds...) != nil {
			matches = append(matches, Candidate{
				QName:     oml.JoinName(canonical, local),
				Namespace: target.Namespace,
				File:      target.Path,
			})
		}
	}

	switch len(matches) {
	case 0:
		return Result{
			Outcome: NotFound,
			Hint:    fmt.Sprintf("no declaration named %q under prefix %q", local, canonical),
		}, nil
	case 1:
		return Result{Outcome: Resolved, QName: matches[0].QName}, nil
	default:
		return Result{Outcome: Ambiguous, Candidates: matches}, nil
	}
}

func (r *Resolver) resolveUnqualified(doc *oml.Ontology, name string, kinds []oml.StatementKind) (Result, error) {
	// Local declarations shadow everything.
	if doc.Statement(name, kinds...) != nil {
		return Result{Outcome: Resolved, QName: oml.JoinName(doc.Prefix, name)}, nil
	}

	imported := make(map[string]bool, len(doc.Imports))

	var matches []Candidate

	for _, imp := range doc.Imports {
		imported[imp.Namespace] = true

		target := r.ws.ResolveImport(imp)
		if target == nil {
			continue
		}

		if target.Statement(name, kinds...) != nil {
			matches = append(matches, Candidate{
				QName:     oml.JoinName(target.Prefix, name),
				Namespace: target.Namespace,
				File:      target.Path,
			})
		}
	}

	sortCandidates(matches)

	if len(matches) == 1 {
		return Result{Outcome: Resolved, QName: matches[0].QName}, nil
	}

	if len(matches) > 1 {
		return Result{Outcome: Ambiguous, Candidates: matches}, nil
	}

	// Nothing visible through imports; search the rest of the workspace.
	var outside []*oml.Ontology

	for _, target := range r.ws.Documents() {
		if target == doc || imported[target.Namespace] {
			continue
		}

		if target.Statement(name, kinds...) != nil {
			outside = append(outside, target)
			matches = append(matches, Candidate{
				QName:     oml.JoinName(target.Prefix, name),
				Namespace: target.Namespace,
				File:      target.Path,
			})
		}
	}

	sortCandidates(matches)

	switch len(matches) {
	case 0:
		return Result{
			Outcome: NotFound,
			Hint:    fmt.Sprintf("no declaration named %q in scope", name),
		}, nil
	case 1:
		pending, err := r.pendingImport(doc, outside[0])
		if err != nil {
			return Result{}, err
		}

		r.logger.Debug("resolved outside import graph",
			zap.String("name", name),
			zap.String("namespace", outside[0].Namespace))

		return Result{Outcome: Resolved, QName: matches[0].QName, Pending: pending}, nil
	default:
		return Result{Outcome: Ambiguous, Candidates: matches}, nil
	}
}

// pendingImport builds the insert-import instruction for pulling target into
// doc's import graph.
func (r *Resolver) pendingImport(doc, target *oml.Ontology) (*PendingImport, error) {
	kind, err := oml.ImportKeywordFor(doc.Kind, target.Kind)
	if err != nil {
		return nil, err
	}

	return &PendingImport{
		Namespace:  target.Namespace,
		Prefix:     target.Prefix,
		Kind:       kind,
		InsertText: fmt.Sprintf("%s <%s> as %s", kind, target.Namespace, target.Prefix),
		Policy:     InsertAfterImports,
	}, nil
}

func sortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].QName != cands[j].QName {
			return cands[i].QName < cands[j].QName
		}

		return cands[i].Namespace < cands[j].Namespace
	})
}
