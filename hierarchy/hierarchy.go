// Package hierarchy derives the type specialization graph from the loaded
// vocabularies and answers transitive supertype queries.
package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/resolve"
	"github.com/omlkit/oml/workspace"
)

// CycleError reports a cyclic specialization. Cycles are input errors: any
// query touching one fails rather than looping.
type CycleError struct {
	// Members are the canonical qualified names on the cycle.
	Members []string
}

func (e *CycleError) Error() string {
	return "cyclic specialization: " + strings.Join(e.Members, " < ")
}

// Hierarchy is a lazily built index over the workspace's term
// specializations. Supertype references are canonicalized through each
// owning document's prefix map, so queries operate on canonical qualified
// names only.
//
// A document whose supertype references cannot be canonicalized taints only
// its own terms: queries whose closure reaches a tainted term fail with the
// canonicalization error, queries over unrelated types still succeed.
//
// The index is a snapshot: rebuild it after the workspace changes.
type Hierarchy struct {
	ws *workspace.Workspace

	built   bool
	direct  map[string][]string
	tainted map[string]error

	// closed memoizes transitive closures per type.
	closed map[string][]string
}

// New creates an index over ws. Nothing is computed until the first query.
func New(ws *workspace.Workspace) *Hierarchy {
	return &Hierarchy{
		ws:     ws,
		closed: make(map[string][]string),
	}
}

// ensure builds the direct-edge map once. Canonicalization failures are
// recorded per term in h.tainted instead of aborting the build.
func (h *Hierarchy) ensure() {
	if h.built {
		return
	}

	h.built = true
	h.direct = make(map[string][]string)
	h.tainted = make(map[string]error)

	for _, doc := range h.ws.Documents() {
		if doc.Kind != oml.Vocabulary && doc.Kind != oml.VocabularyBundle {
			continue
		}

		pm, err := resolve.BuildPrefixMap(h.ws, doc)
		if err != nil {
			err = fmt.Errorf("building prefix map for %s: %w", doc.Namespace, err)

			for _, term := range doc.Terms() {
				h.tainted[oml.JoinName(doc.Prefix, term.StatementName())] = err
			}

			continue
		}

		for _, term := range doc.Terms() {
			name := oml.JoinName(doc.Prefix, term.StatementName())

			for _, super := range term.SuperTypes() {
				canonical, err := pm.Canonicalize(super)
				if err != nil {
					h.tainted[name] = fmt.Errorf("supertype of %s: %w", name, err)
					continue
				}

				h.direct[name] = append(h.direct[name], canonical)
			}
		}
	}

	for _, supers := range h.direct {
		sort.Strings(supers)
	}
}

// SupertypesOf returns the transitively closed set of supertypes of the
// given canonical qualified type name, sorted. The result excludes the type
// itself. A cyclic specialization yields a *CycleError listing the members;
// a closure reaching a term whose supertypes could not be canonicalized
// yields that term's canonicalization error.
func (h *Hierarchy) SupertypesOf(qname string) ([]string, error) {
	h.ensure()

	if closed, ok := h.closed[qname]; ok {
		return closed, nil
	}

	seen := make(map[string]bool)
	onPath := make(map[string]bool)

	var path []string

	var visit func(t string) error

	visit = func(t string) error {
		if err := h.tainted[t]; err != nil {
			return err
		}

		if onPath[t] {
			return cycleFrom(path, t)
		}

		onPath[t] = true
		path = append(path, t)

		for _, super := range h.direct[t] {
			if !seen[super] {
				seen[super] = true

				if err := visit(super); err != nil {
					return err
				}
			} else if onPath[super] {
				return cycleFrom(path, super)
			}
		}

		onPath[t] = false
		path = path[:len(path)-1]

		return nil
	}

	if err := visit(qname); err != nil {
		return nil, err
	}

	delete(seen, qname)

	closed := make([]string, 0, len(seen))
	for t := range seen {
		closed = append(closed, t)
	}

	sort.Strings(closed)
	h.closed[qname] = closed

	return closed, nil
}

// IsSubtypeOf reports whether a is a reflexive or proper subtype of b. Both
// names must be canonical qualified names.
func (h *Hierarchy) IsSubtypeOf(a, b string) (bool, error) {
	if a == b {
		return true, nil
	}

	supers, err := h.SupertypesOf(a)
	if err != nil {
		return false, err
	}

	for _, s := range supers {
		if s == b {
			return true, nil
		}
	}

	return false, nil
}

// cycleFrom extracts the cycle members from the DFS path starting at the
// repeated element.
func cycleFrom(path []string, repeated string) error {
	start := 0

	for i, t := range path {
		if t == repeated {
			start = i
			break
		}
	}

	members := append([]string(nil), path[start:]...)
	members = append(members, repeated)

	return &CycleError{Members: members}
}
