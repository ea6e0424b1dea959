package check

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/omlkit/oml/hierarchy"
	"github.com/omlkit/oml/playbook"
)

// RuleMatch pairs an applicable constraint with the matcher kind that fired
// and the rule's declaration index.
type RuleMatch struct {
	Constraint *playbook.DescriptionConstraint

	// Kind is the specificity tier the rule matched at.
	Kind playbook.MatcherKind

	index int
}

// MatchRules computes the applicable subset of a schema's constraints for an
// instance with the given canonical asserted types, ordered by decreasing
// specificity, declaration order within a tier.
//
// All applicable tiers are collected: a general pattern rule and an exact
// type rule may both fire on the same instance. Specificity determines
// order, not exclusivity. Matching is case-sensitive over canonical
// qualified names; callers canonicalize before invoking.
func MatchRules(h *hierarchy.Hierarchy, types []string, schema *playbook.DescriptionSchema) ([]RuleMatch, error) {
	if schema == nil {
		return nil, nil
	}

	var matches []RuleMatch

	for i, c := range schema.Constraints {
		applies, err := ruleApplies(h, types, c)
		if err != nil {
			return nil, err
		}

		if applies {
			matches = append(matches, RuleMatch{
				Constraint: c,
				Kind:       c.AppliesTo.Kind(),
				index:      i,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Kind != matches[j].Kind {
			return matches[i].Kind.MoreSpecificThan(matches[j].Kind)
		}

		return matches[i].index < matches[j].index
	})

	return matches, nil
}

func ruleApplies(h *hierarchy.Hierarchy, types []string, c *playbook.DescriptionConstraint) (bool, error) {
	a := c.AppliesTo

	for _, t := range types {
		switch a.Kind() {
		case playbook.MatchExactType:
			if t == a.ConceptType {
				return true, nil
			}

		case playbook.MatchTypeList:
			for _, allowed := range a.ConceptTypes {
				if t == allowed {
					return true, nil
				}
			}

		case playbook.MatchSubtype:
			ok, err := h.IsSubtypeOf(t, a.AnySubtypeOf)
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}

		case playbook.MatchPattern:
			if matchPattern(a.ConceptPattern, t) {
				return true, nil
			}
		}
	}

	return false, nil
}

// matchPattern matches glob-style patterns with '*' as the only wildcard.
// Qualified names contain no path separators, so '*' crosses the prefix
// boundary freely ("*Requirement" matches "req:Requirement").
func matchPattern(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)

	return err == nil && ok
}
