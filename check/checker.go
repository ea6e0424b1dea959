package check

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/hierarchy"
	"github.com/omlkit/oml/playbook"
	"github.com/omlkit/oml/resolve"
	"github.com/omlkit/oml/workspace"
)

// Checker evaluates playbook constraints over a workspace snapshot. All
// inputs are explicit; a checker holds no mutable global state and never
// mutates documents.
type Checker struct {
	ws   *workspace.Workspace
	hier *hierarchy.Hierarchy
	pb   *playbook.Playbook
}

// New creates a checker over the given workspace, hierarchy snapshot, and
// playbook.
func New(ws *workspace.Workspace, hier *hierarchy.Hierarchy, pb *playbook.Playbook) *Checker {
	return &Checker{ws: ws, hier: hier, pb: pb}
}

// CheckDescription checks every instance of a description document,
// accumulating all violations in declaration order.
func (c *Checker) CheckDescription(doc *oml.Ontology) (*Report, error) {
	pm, err := resolve.BuildPrefixMap(c.ws, doc)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	for _, inst := range doc.Instances() {
		violations, err := c.checkInstance(pm, doc, inst)
		if err != nil {
			return nil, err
		}

		report.Violations = append(report.Violations, violations...)
	}

	return report, nil
}

// CheckInstance checks a single instance of a description document.
func (c *Checker) CheckInstance(doc *oml.Ontology, inst oml.Instance) ([]Violation, error) {
	pm, err := resolve.BuildPrefixMap(c.ws, doc)
	if err != nil {
		return nil, err
	}

	return c.checkInstance(pm, doc, inst)
}

func (c *Checker) checkInstance(pm *resolve.PrefixMap, doc *oml.Ontology, inst oml.Instance) ([]Violation, error) {
	file := filepath.Base(doc.Path)
	qname := oml.JoinName(doc.Prefix, inst.StatementName())

	types := make([]string, 0, len(inst.AssertedTypes()))

	for _, t := range inst.AssertedTypes() {
		canonical, err := pm.Canonicalize(t)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", qname, err)
		}

		types = append(types, canonical)
	}

	var violations []Violation

	schema := c.pb.SchemaFor(file)

	violations = append(violations, c.checkContainer(file, qname, types, schema)...)

	if rel, ok := inst.(*oml.RelationInstance); ok {
		dirViolations, err := c.checkDirection(pm, file, qname, types, rel)
		if err != nil {
			return nil, err
		}

		violations = append(violations, dirViolations...)
	}

	matches, err := MatchRules(c.hier, types, schema)
	if err != nil {
		return nil, err
	}

	props, err := c.collectAssertions(pm, inst)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", qname, err)
	}

	env := guardEnv(inst.StatementName(), types, props)

	for _, m := range matches {
		if !m.Constraint.EvalWhen(env) {
			continue
		}

		ruleViolations, err := c.evalConstraint(pm, file, qname, m.Constraint, props)
		if err != nil {
			return nil, err
		}

		violations = append(violations, ruleViolations...)
	}

	return violations, nil
}

// checkContainer verifies the instance's types are allowed in this file.
// An instance no schema allows anywhere yields a single type_not_allowed
// violation rather than silence; one allowed elsewhere but not here yields
// wrong_container.
func (c *Checker) checkContainer(file, qname string, types []string, schema *playbook.DescriptionSchema) []Violation {
	if c.pb == nil || len(c.pb.Schemas) == 0 {
		return nil
	}

	if schema != nil && typesAllowed(schema, types) {
		return nil
	}

	var allowedIn []string

	for other, otherSchema := range c.pb.Schemas {
		if other == file {
			continue
		}

		if typesAllowed(otherSchema, types) {
			allowedIn = append(allowedIn, other)
		}
	}

	sort.Strings(allowedIn)

	if len(allowedIn) > 0 {
		return []Violation{{
			Type:     WrongContainer,
			File:     file,
			Instance: qname,
			Message:  fmt.Sprintf("instance type not allowed in %s; allowed in %s", file, allowedIn[0]),
			Severity: playbook.SeverityError,
		}}
	}

	return []Violation{{
		Type:     TypeNotAllowed,
		File:     file,
		Instance: qname,
		Message:  fmt.Sprintf("no description schema allows types %v", types),
		Severity: playbook.SeverityError,
	}}
}

// typesAllowed reports whether any asserted type matches the schema's
// allowed types, exactly or via wildcard.
func typesAllowed(schema *playbook.DescriptionSchema, types []string) bool {
	for _, t := range types {
		for _, allowed := range schema.AllowedTypes {
			if t == allowed || matchPattern(allowed, t) {
				return true
			}
		}
	}

	return false
}

// collectAssertions canonicalizes the instance's property assertions,
// flattening values per property in declaration order.
func (c *Checker) collectAssertions(pm *resolve.PrefixMap, inst oml.Instance) (map[string][]oml.PropertyValue, error) {
	props := make(map[string][]oml.PropertyValue)

	for _, pa := range inst.Assertions() {
		canonical, err := pm.Canonicalize(pa.Property)
		if err != nil {
			return nil, err
		}

		props[canonical] = append(props[canonical], pa.Values...)
	}

	return props, nil
}

// guardEnv builds the environment a rule's when expression runs against.
func guardEnv(name string, types []string, props map[string][]oml.PropertyValue) map[string]any {
	flat := make(map[string][]string, len(props))

	for prop, values := range props {
		for _, v := range values {
			switch {
			case v.IsRef():
				flat[prop] = append(flat[prop], v.Ref)
			case v.Literal != nil:
				flat[prop] = append(flat[prop], v.Literal.Value)
			}
		}
	}

	return map[string]any{
		"name":  name,
		"types": types,
		"props": flat,
	}
}

// evalConstraint applies each property constraint of a rule in declaration
// order. Absence and wrong count are mutually exclusive outcomes per
// property: a property with no assertions can only be missing, never
// cardinality-violated.
func (c *Checker) evalConstraint(pm *resolve.PrefixMap, file, qname string, rule *playbook.DescriptionConstraint, props map[string][]oml.PropertyValue) ([]Violation, error) {
	var violations []Violation

	report := func(vtype ViolationType, property, msg string) {
		if rule.Message != "" {
			msg = msg + ": " + rule.Message
		}

		violations = append(violations, Violation{
			Type:     vtype,
			RuleID:   rule.ID,
			File:     file,
			Instance: qname,
			Property: property,
			Message:  msg,
			Severity: rule.Severity,
		})
	}

	for _, pc := range rule.Properties {
		values := props[pc.Property]
		count := len(values)

		if count == 0 {
			if pc.Required {
				report(MissingProperty, pc.Property,
					fmt.Sprintf("required property %s has no assertion", pc.Property))
			}

			continue
		}

		switch {
		case pc.MinOccurrences != nil && count < *pc.MinOccurrences:
			report(InvalidCardinality, pc.Property,
				fmt.Sprintf("property %s has %d values, expected at least %d", pc.Property, count, *pc.MinOccurrences))
		case pc.MaxOccurrences != nil && count > *pc.MaxOccurrences:
			report(InvalidCardinality, pc.Property,
				fmt.Sprintf("property %s has %d values, expected at most %d", pc.Property, count, *pc.MaxOccurrences))
		}

		allowed := pc.AllowedTargets()
		if len(allowed) == 0 {
			continue
		}

		for _, v := range values {
			if !v.IsRef() {
				continue
			}

			ref, err := pm.Canonicalize(v.Ref)
			if err != nil {
				return nil, err
			}

			refTypes, found := c.instanceTypes(ref)
			if !found {
				// Referenced instance not loaded; nothing to check.
				continue
			}

			ok, err := c.targetConforms(refTypes, allowed, pc.TargetMatchSubtypes)
			if err != nil {
				return nil, err
			}

			if !ok {
				report(InvalidTargetType, pc.Property,
					fmt.Sprintf("value %s of property %s is not of type %v", ref, pc.Property, allowed))
			}
		}
	}

	return violations, nil
}

// targetConforms reports whether any resolved type matches any allowed
// target type, by equality or subtyping.
func (c *Checker) targetConforms(resolvedTypes, allowed []string, matchSubtypes bool) (bool, error) {
	for _, rt := range resolvedTypes {
		for _, at := range allowed {
			if rt == at {
				return true, nil
			}

			if matchSubtypes {
				ok, err := c.hier.IsSubtypeOf(rt, at)
				if err != nil {
					return false, err
				}

				if ok {
					return true, nil
				}
			}
		}
	}

	return false, nil
}

// instanceTypes resolves a canonical instance name to its canonical asserted
// types.
func (c *Checker) instanceTypes(qname string) ([]string, bool) {
	prefix, local := oml.SplitName(qname)

	for _, doc := range c.ws.ByPrefix(prefix) {
		stmt := doc.Statement(local, oml.KindConceptInstance, oml.KindRelationInstance)
		if stmt == nil {
			continue
		}

		inst, ok := stmt.(oml.Instance)
		if !ok {
			continue
		}

		pm, err := resolve.BuildPrefixMap(c.ws, doc)
		if err != nil {
			return nil, false
		}

		var types []string

		for _, t := range inst.AssertedTypes() {
			canonical, err := pm.Canonicalize(t)
			if err != nil {
				continue
			}

			types = append(types, canonical)
		}

		return types, true
	}

	return nil, false
}

// checkDirection flags relation instances whose ends are swapped relative to
// the relation entity's declared source and target types.
func (c *Checker) checkDirection(pm *resolve.PrefixMap, file, qname string, types []string, rel *oml.RelationInstance) ([]Violation, error) {
	var violations []Violation

	for _, t := range types {
		entity, declSource, declTarget, err := c.relationEnds(t)
		if err != nil {
			return nil, err
		}

		if entity == nil || declSource == "" || declTarget == "" {
			continue
		}

		srcCanon, err := canonicalizeAll(pm, rel.Sources)
		if err != nil {
			return nil, err
		}

		tgtCanon, err := canonicalizeAll(pm, rel.Targets)
		if err != nil {
			return nil, err
		}

		forward, err := c.endsConform(srcCanon, declSource, tgtCanon, declTarget)
		if err != nil {
			return nil, err
		}

		if forward {
			continue
		}

		backward, err := c.endsConform(srcCanon, declTarget, tgtCanon, declSource)
		if err != nil {
			return nil, err
		}

		if backward {
			violations = append(violations, Violation{
				Type:     WrongDirection,
				File:     file,
				Instance: qname,
				Message:  fmt.Sprintf("relation %s points %s -> %s but sources and targets are swapped", t, declSource, declTarget),
				Severity: playbook.SeverityError,
			})
		}
	}

	return violations, nil
}

// relationEnds looks up a relation entity term and its canonicalized end
// types.
func (c *Checker) relationEnds(qname string) (*oml.RelationEntity, string, string, error) {
	prefix, local := oml.SplitName(qname)

	for _, doc := range c.ws.ByPrefix(prefix) {
		stmt := doc.Statement(local, oml.KindRelationEntity)
		if stmt == nil {
			continue
		}

		entity, ok := stmt.(*oml.RelationEntity)
		if !ok || entity.Source == "" || entity.Target == "" {
			return nil, "", "", nil
		}

		pm, err := resolve.BuildPrefixMap(c.ws, doc)
		if err != nil {
			return nil, "", "", err
		}

		source, err := pm.Canonicalize(entity.Source)
		if err != nil {
			return nil, "", "", err
		}

		target, err := pm.Canonicalize(entity.Target)
		if err != nil {
			return nil, "", "", err
		}

		return entity, source, target, nil
	}

	return nil, "", "", nil
}

// endsConform reports whether every source reference conforms to the source
// end type and every target reference to the target end type. References
// that cannot be resolved are ignored.
func (c *Checker) endsConform(sources []string, sourceType string, targets []string, targetType string) (bool, error) {
	conform := func(refs []string, endType string) (bool, error) {
		matched := false

		for _, ref := range refs {
			refTypes, found := c.instanceTypes(ref)
			if !found {
				continue
			}

			ok, err := c.anySubtype(refTypes, endType)
			if err != nil {
				return false, err
			}

			if !ok {
				return false, nil
			}

			matched = true
		}

		return matched, nil
	}

	srcOK, err := conform(sources, sourceType)
	if err != nil || !srcOK {
		return false, err
	}

	tgtOK, err := conform(targets, targetType)
	if err != nil {
		return false, err
	}

	return tgtOK, nil
}

func (c *Checker) anySubtype(types []string, base string) (bool, error) {
	for _, t := range types {
		ok, err := c.hier.IsSubtypeOf(t, base)
		if err != nil {
			return false, err
		}

		if ok {
			return true, nil
		}
	}

	return false, nil
}

func canonicalizeAll(pm *resolve.PrefixMap, names []string) ([]string, error) {
	out := make([]string, 0, len(names))

	for _, n := range names {
		canonical, err := pm.Canonicalize(n)
		if err != nil {
			return nil, err
		}

		out = append(out, canonical)
	}

	return out, nil
}
