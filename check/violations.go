// Package check evaluates playbook constraints against the canonicalized
// instance graph, producing violations. This is a linting pass: findings are
// values, not errors, and evaluation never stops at the first failure.
package check

import (
	"github.com/omlkit/oml/playbook"
)

// ViolationType classifies a finding.
type ViolationType string

// Violation types.
const (
	// WrongDirection flags a relation instance whose sources and targets
	// are swapped relative to the relation entity's declared ends.
	WrongDirection ViolationType = "wrong_direction"

	// MissingProperty flags a required property with no assertion.
	MissingProperty ViolationType = "missing_property"

	// WrongContainer flags an instance placed in a description file whose
	// schema does not allow its type, while another file's schema does.
	WrongContainer ViolationType = "wrong_container"

	// InvalidCardinality flags an assertion count outside the declared
	// occurrence bounds.
	InvalidCardinality ViolationType = "invalid_cardinality"

	// InvalidTargetType flags a referenced value whose resolved type is
	// not among the allowed target types.
	InvalidTargetType ViolationType = "invalid_target_type"

	// TypeNotAllowed flags an instance whose type no schema allows
	// anywhere.
	TypeNotAllowed ViolationType = "type_not_allowed"
)

// Violation is one constraint finding.
type Violation struct {
	Type ViolationType

	// RuleID is the offending rule's id, empty for structural findings
	// (wrong_container, type_not_allowed, wrong_direction).
	RuleID string

	// File is the description file containing the instance.
	File string

	// Instance is the instance's canonical qualified name.
	Instance string

	// Property is the constrained property, when applicable.
	Property string

	Message  string
	Severity playbook.Severity
}

// Report is the outcome of checking one or more descriptions.
type Report struct {
	Violations []Violation
}

// Valid reports whether the checked model is valid: true iff no violation
// has error severity.
func (r *Report) Valid() bool {
	for _, v := range r.Violations {
		if v.Severity == playbook.SeverityError {
			return false
		}
	}

	return true
}

// Count returns the number of violations with the given severity.
func (r *Report) Count(sev playbook.Severity) int {
	n := 0

	for _, v := range r.Violations {
		if v.Severity == sev {
			n++
		}
	}

	return n
}
