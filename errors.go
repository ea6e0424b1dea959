package oml

import "errors"

// Sentinel errors.
var (
	// ErrIncompatibleImport is returned when two ontology kinds cannot be
	// related by any import keyword.
	ErrIncompatibleImport = errors.New("oml: incompatible import")

	// ErrUnknownKind is returned when a model file declares an unknown
	// ontology or statement kind.
	ErrUnknownKind = errors.New("oml: unknown kind")
)
