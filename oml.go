// Package oml defines the document model for OML-style ontology files:
// vocabularies declaring reusable terms, descriptions declaring concrete
// instances, and the bundles that aggregate them.
package oml

import "fmt"

// OntologyKind identifies the kind of an ontology document.
type OntologyKind string

// Ontology kinds.
const (
	Vocabulary        OntologyKind = "vocabulary"
	Description       OntologyKind = "description"
	VocabularyBundle  OntologyKind = "vocabulary-bundle"
	DescriptionBundle OntologyKind = "description-bundle"
)

// Valid reports whether k is a known ontology kind.
func (k OntologyKind) Valid() bool {
	switch k {
	case Vocabulary, Description, VocabularyBundle, DescriptionBundle:
		return true
	}

	return false
}

// ImportKind identifies the keyword of an import declaration.
type ImportKind string

// Import kinds.
const (
	Extends  ImportKind = "extends"
	Uses     ImportKind = "uses"
	Includes ImportKind = "includes"
)

// importCompat maps (importing kind, imported kind) pairs to the required
// import keyword. Pairs not listed are type-compatibility errors.
var importCompat = map[[2]OntologyKind]ImportKind{
	{Vocabulary, Vocabulary}:               Extends,
	{Description, Description}:             Extends,
	{VocabularyBundle, VocabularyBundle}:   Extends,
	{DescriptionBundle, DescriptionBundle}: Extends,
	{Description, Vocabulary}:              Uses,
	{DescriptionBundle, Vocabulary}:        Uses,
	{VocabularyBundle, Vocabulary}:         Includes,
	{DescriptionBundle, Description}:       Includes,
}

// ImportKeywordFor returns the import keyword a document of kind from must
// use to import a document of kind to. The choice is deterministic: same
// kind on both sides extends, a vocabulary imported by a description (or
// description bundle) is used, and bundles include their members.
func ImportKeywordFor(from, to OntologyKind) (ImportKind, error) {
	kw, ok := importCompat[[2]OntologyKind{from, to}]
	if !ok {
		return "", fmt.Errorf("%w: %s cannot import %s", ErrIncompatibleImport, from, to)
	}

	return kw, nil
}
