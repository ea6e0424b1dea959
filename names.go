package oml

import "strings"

// Separator qualifies a local name with a prefix, as in "base:Component".
const Separator = ":"

// IsQualified reports whether name carries a qualifying prefix.
func IsQualified(name string) bool {
	return strings.Contains(name, Separator)
}

// SplitName splits a possibly-qualified name into prefix and local name.
// The prefix is empty for unqualified names.
func SplitName(name string) (prefix, local string) {
	idx := strings.Index(name, Separator)
	if idx < 0 {
		return "", name
	}

	return name[:idx], name[idx+1:]
}

// JoinName joins a prefix and a local name. An empty prefix yields the local
// name unchanged.
func JoinName(prefix, local string) string {
	if prefix == "" {
		return local
	}

	return prefix + Separator + local
}

// LocalName returns the local part of a possibly-qualified name.
func LocalName(name string) string {
	_, local := SplitName(name)
	return local
}

// PrefixFromNamespace extracts a prefix candidate from a namespace IRI using
// the convention that the last path segment before a trailing '#' or '/'
// names the ontology (e.g. "http://example.org/vocab/base#" -> "base").
// Returns "" when the IRI has no usable segment.
func PrefixFromNamespace(iri string) string {
	s := strings.TrimSuffix(iri, "#")
	s = strings.TrimSuffix(s, "/")

	if idx := strings.LastIndexAny(s, "/#"); idx >= 0 {
		s = s[idx+1:]
	}

	return s
}
