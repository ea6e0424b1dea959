// Package resolve maps user-supplied short or aliased names to canonical,
// namespace-qualified identifiers across a workspace of interdependent
// ontology documents.
package resolve

import (
	"fmt"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/workspace"
)

// DuplicateAliasError reports an import list that binds the same alias to
// two different canonical prefixes.
type DuplicateAliasError struct {
	Alias  string
	First  string
	Second string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("alias %q bound to both %q and %q", e.Alias, e.First, e.Second)
}

// PrefixMap is the alias-to-canonical-prefix mapping for one document's
// imports. It is built per resolution request and never mutates documents.
type PrefixMap struct {
	doc     *oml.Ontology
	aliases map[string]string
}

// BuildPrefixMap builds the prefix map for doc against the given workspace.
//
// For each import, the canonical prefix is the resolved target ontology's
// own prefix; when the target is not loaded, a candidate is extracted from
// the namespace IRI. The effective alias is the explicit alias when given,
// else the canonical prefix. Binding one alias to two different canonical
// prefixes is a caller error, surfaced as *DuplicateAliasError.
func BuildPrefixMap(ws *workspace.Workspace, doc *oml.Ontology) (*PrefixMap, error) {
	pm := &PrefixMap{
		doc:     doc,
		aliases: make(map[string]string, len(doc.Imports)),
	}

	for _, imp := range doc.Imports {
		canonical := oml.PrefixFromNamespace(imp.Namespace)
		if target := ws.ResolveImport(imp); target != nil {
			canonical = target.Prefix
		}

		if canonical == "" {
			continue
		}

		alias := canonical
		if imp.Alias != nil {
			alias = *imp.Alias
		}

		if existing, ok := pm.aliases[alias]; ok && existing != canonical {
			return nil, &DuplicateAliasError{Alias: alias, First: existing, Second: canonical}
		}

		pm.aliases[alias] = canonical
	}

	return pm, nil
}

// Lookup returns the canonical prefix bound to alias. The document's own
// prefix is always resolvable to itself.
func (pm *PrefixMap) Lookup(alias string) (string, bool) {
	if alias == pm.doc.Prefix {
		return pm.doc.Prefix, true
	}

	canonical, ok := pm.aliases[alias]

	return canonical, ok
}

// UnknownPrefixError reports a qualified name whose prefix is not bound by
// any import of the document. The usual fix is adding an import.
type UnknownPrefixError struct {
	Prefix string
	Doc    string
}

func (e *UnknownPrefixError) Error() string {
	return fmt.Sprintf("unknown prefix %q in %s: missing import?", e.Prefix, e.Doc)
}

// Canonicalize rewrites a possibly-aliased qualified name to its canonical
// form. Unqualified names are qualified with the document's own prefix.
func (pm *PrefixMap) Canonicalize(name string) (string, error) {
	if !oml.IsQualified(name) {
		return oml.JoinName(pm.doc.Prefix, name), nil
	}

	prefix, local := oml.SplitName(name)

	canonical, ok := pm.Lookup(prefix)
	if !ok {
		return "", &UnknownPrefixError{Prefix: prefix, Doc: pm.doc.Namespace}
	}

	return oml.JoinName(canonical, local), nil
}
