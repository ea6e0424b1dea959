// Package playbook loads and models the methodology rule set: which
// instance types are allowed in which description files, where new instances
// should be routed, and what property constraints apply.
package playbook

import (
	"github.com/expr-lang/expr/vm"
)

// Severity of a constraint finding.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}

	return false
}

// MatcherKind identifies the appliesTo variant of a constraint. The order of
// the constants is the specificity precedence: smaller is more specific.
type MatcherKind int

// Matcher kinds, most specific first.
const (
	// MatchExactType matches one exact concept type.
	MatchExactType MatcherKind = iota

	// MatchTypeList matches against an explicit list of types.
	MatchTypeList

	// MatchSubtype matches any reflexive or proper subtype of a base type.
	MatchSubtype

	// MatchPattern matches a glob-style pattern with '*' as the only
	// wildcard.
	MatchPattern
)

// MoreSpecificThan reports whether k takes precedence over o.
func (k MatcherKind) MoreSpecificThan(o MatcherKind) bool { return k < o }

func (k MatcherKind) String() string {
	switch k {
	case MatchExactType:
		return "conceptType"
	case MatchTypeList:
		return "conceptTypes"
	case MatchSubtype:
		return "anySubtypeOf"
	case MatchPattern:
		return "conceptPattern"
	default:
		return "unknown"
	}
}

// AppliesTo selects the instances a constraint applies to. Exactly one field
// is set; Load rejects anything else.
type AppliesTo struct {
	ConceptType    string
	ConceptTypes   []string
	AnySubtypeOf   string
	ConceptPattern string
}

// Kind returns the matcher kind of the populated variant. Valid only after
// Load has validated the rule.
func (a AppliesTo) Kind() MatcherKind {
	switch {
	case a.ConceptType != "":
		return MatchExactType
	case len(a.ConceptTypes) > 0:
		return MatchTypeList
	case a.AnySubtypeOf != "":
		return MatchSubtype
	default:
		return MatchPattern
	}
}

// variantCount returns how many variants are populated.
func (a AppliesTo) variantCount() int {
	n := 0

	if a.ConceptType != "" {
		n++
	}

	if len(a.ConceptTypes) > 0 {
		n++
	}

	if a.AnySubtypeOf != "" {
		n++
	}

	if a.ConceptPattern != "" {
		n++
	}

	return n
}

// PropertyConstraint restricts one property's assertions on a matched
// instance.
type PropertyConstraint struct {
	// Property is the property's qualified name.
	Property string

	// Required demands at least one assertion.
	Required bool

	// MinOccurrences and MaxOccurrences bound the assertion count when the
	// property is present. A nil bound is unbounded on that side.
	MinOccurrences *int
	MaxOccurrences *int

	// TargetMustBe / TargetMustBeOneOf restrict the resolved type of
	// referenced values. TargetMatchSubtypes widens equality to
	// subtype-of.
	TargetMustBe        string
	TargetMustBeOneOf   []string
	TargetMatchSubtypes bool
}

// AllowedTargets returns the allowed target types, merging the single and
// list forms.
func (p *PropertyConstraint) AllowedTargets() []string {
	if p.TargetMustBe != "" {
		return []string{p.TargetMustBe}
	}

	return p.TargetMustBeOneOf
}

// DescriptionConstraint is one rule in a description schema.
type DescriptionConstraint struct {
	// ID identifies the rule in violations.
	ID string

	// Message is the human explanation attached to violations.
	Message string

	AppliesTo  AppliesTo
	Properties []*PropertyConstraint
	Severity   Severity

	// When is an optional boolean guard expression over the instance
	// environment (name, types, props). A rule whose guard evaluates false
	// is skipped.
	When string

	// program is the compiled guard, set at load time.
	program *vm.Program
}

// RoutingEntry gives a type an explicit placement priority in one
// description file. Lower priority numbers are preferred.
type RoutingEntry struct {
	Type     string
	Priority int
}

// DescriptionSchema is the per-description-file rule set.
type DescriptionSchema struct {
	// File is the description file name, e.g. "system_components.oml".
	File string

	// AllowedTypes lists the instance types this file accepts. Entries may
	// use '*' wildcards.
	AllowedTypes []string

	Routing     []RoutingEntry
	Constraints []*DescriptionConstraint
}

// RoutingFor returns the explicit routing entry for a type, if any.
func (s *DescriptionSchema) RoutingFor(typeName string) (RoutingEntry, bool) {
	for _, entry := range s.Routing {
		if entry.Type == typeName {
			return entry, true
		}
	}

	return RoutingEntry{}, false
}

// Playbook is a versioned methodology rule set.
type Playbook struct {
	Version int

	// Schemas maps description file names to their schemas.
	Schemas map[string]*DescriptionSchema
}

// SchemaFor returns the schema for a description file name, or nil.
func (p *Playbook) SchemaFor(file string) *DescriptionSchema {
	if p == nil {
		return nil
	}

	return p.Schemas[file]
}
