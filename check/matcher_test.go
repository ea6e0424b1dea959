package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/check"
	"github.com/omlkit/oml/hierarchy"
	"github.com/omlkit/oml/playbook"
	"github.com/omlkit/oml/workspace"
)

func testHierarchy(t *testing.T) *hierarchy.Hierarchy {
	t.Helper()

	ws := workspace.New(nil)

	ws.Add(&oml.Ontology{
		Kind:      oml.Vocabulary,
		Namespace: "http://example.org/vocab/base#",
		Prefix:    "base",
		Path:      "/ws/base.oml",
		Statements: []oml.Statement{
			oml.NewConcept("Component"),
			oml.NewConcept("Subsystem", "Component"),
			oml.NewConcept("Interface"),
		},
	})

	return hierarchy.New(ws)
}

func schemaWith(constraints ...*playbook.DescriptionConstraint) *playbook.DescriptionSchema {
	return &playbook.DescriptionSchema{
		File:        "system_components.oml",
		Constraints: constraints,
	}
}

func TestMatchRulesSpecificityOrder(t *testing.T) {
	t.Parallel()

	// Declared general-first; matching must still put the exact rule first.
	pattern := &playbook.DescriptionConstraint{
		ID:        "pattern-rule",
		AppliesTo: playbook.AppliesTo{ConceptPattern: "base:*"},
	}
	subtype := &playbook.DescriptionConstraint{
		ID:        "subtype-rule",
		AppliesTo: playbook.AppliesTo{AnySubtypeOf: "base:Component"},
	}
	exact := &playbook.DescriptionConstraint{
		ID:        "exact-rule",
		AppliesTo: playbook.AppliesTo{ConceptType: "base:Subsystem"},
	}

	matches, err := check.MatchRules(testHierarchy(t),
		[]string{"base:Subsystem"}, schemaWith(pattern, subtype, exact))
	require.NoError(t, err)

	// All tiers fire; specificity orders them, it does not exclude.
	require.Len(t, matches, 3)
	assert.Equal(t, "exact-rule", matches[0].Constraint.ID)
	assert.Equal(t, "subtype-rule", matches[1].Constraint.ID)
	assert.Equal(t, "pattern-rule", matches[2].Constraint.ID)
}

func TestMatchRulesDeclarationOrderWithinTier(t *testing.T) {
	t.Parallel()

	first := &playbook.DescriptionConstraint{
		ID:        "first",
		AppliesTo: playbook.AppliesTo{ConceptType: "base:Component"},
	}
	second := &playbook.DescriptionConstraint{
		ID:        "second",
		AppliesTo: playbook.AppliesTo{ConceptType: "base:Component"},
	}

	matches, err := check.MatchRules(testHierarchy(t),
		[]string{"base:Component"}, schemaWith(first, second))
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].Constraint.ID)
	assert.Equal(t, "second", matches[1].Constraint.ID)
}

func TestMatchRulesTypeList(t *testing.T) {
	t.Parallel()

	listed := &playbook.DescriptionConstraint{
		ID:        "listed",
		AppliesTo: playbook.AppliesTo{ConceptTypes: []string{"base:Interface", "base:Component"}},
	}

	matches, err := check.MatchRules(testHierarchy(t),
		[]string{"base:Component"}, schemaWith(listed))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, playbook.MatchTypeList, matches[0].Kind)

	matches, err = check.MatchRules(testHierarchy(t),
		[]string{"base:Subsystem"}, schemaWith(listed))
	require.NoError(t, err)

	// Type lists match exactly; subtypes do not qualify.
	assert.Empty(t, matches)
}

func TestMatchRulesSubtypeReflexive(t *testing.T) {
	t.Parallel()

	rule := &playbook.DescriptionConstraint{
		ID:        "any-component",
		AppliesTo: playbook.AppliesTo{AnySubtypeOf: "base:Component"},
	}

	matches, err := check.MatchRules(testHierarchy(t),
		[]string{"base:Component"}, schemaWith(rule))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestMatchRulesPatternCrossesPrefix(t *testing.T) {
	t.Parallel()

	rule := &playbook.DescriptionConstraint{
		ID:        "any-interface",
		AppliesTo: playbook.AppliesTo{ConceptPattern: "*Interface"},
	}

	matches, err := check.MatchRules(testHierarchy(t),
		[]string{"base:Interface"}, schemaWith(rule))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = check.MatchRules(testHierarchy(t),
		[]string{"base:Component"}, schemaWith(rule))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchRulesNoSchema(t *testing.T) {
	t.Parallel()

	matches, err := check.MatchRules(testHierarchy(t), []string{"base:Component"}, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
