package oml

import "github.com/alecthomas/participle/v2/lexer"

// Span represents a range in source text.
type Span struct {
	Start lexer.Position
	End   lexer.Position
}

// NodeMeta carries the source span common to all model nodes. The external
// parser populates it; nodes decoded from model files carry the position of
// their mapping node.
type NodeMeta struct {
	Pos    lexer.Position
	EndPos lexer.Position
}

// Span returns the source span of this node.
func (n *NodeMeta) Span() Span { return Span{Start: n.Pos, End: n.EndPos} }

// Node is the interface implemented by all model nodes.
type Node interface {
	Span() Span
}

// Ontology is a single parsed ontology document.
type Ontology struct {
	NodeMeta

	// Kind is the document kind (vocabulary, description, or a bundle).
	Kind OntologyKind

	// Namespace is the namespace IRI, ending in '#' or '/'.
	Namespace string

	// Prefix is the canonical prefix the document declares for itself.
	Prefix string

	// Path is the source file path, empty for in-memory documents.
	Path string

	Imports    []*Import
	Statements []Statement
}

// Import is an import declaration in an ontology document.
type Import struct {
	NodeMeta

	Kind ImportKind

	// Namespace is the target namespace IRI. It may be unresolved: the
	// target document need not be loaded.
	Namespace string

	// Alias is the explicit alias, if any. The effective alias of an import
	// is the explicit alias when given, else the canonical prefix of the
	// resolved target.
	Alias *string
}

// StatementKind identifies the variant of a Statement.
type StatementKind string

// Statement kinds.
const (
	KindAspect             StatementKind = "aspect"
	KindConcept            StatementKind = "concept"
	KindRelationEntity     StatementKind = "relation-entity"
	KindScalar             StatementKind = "scalar"
	KindScalarProperty     StatementKind = "scalar-property"
	KindAnnotationProperty StatementKind = "annotation-property"
	KindUnreifiedRelation  StatementKind = "unreified-relation"
	KindConceptInstance    StatementKind = "concept-instance"
	KindRelationInstance   StatementKind = "relation-instance"
	KindRule               StatementKind = "rule"
)

// TermKinds lists the statement kinds that declare types usable as instance
// types or supertypes.
var TermKinds = []StatementKind{
	KindAspect, KindConcept, KindRelationEntity, KindScalar,
	KindScalarProperty, KindAnnotationProperty, KindUnreifiedRelation,
}

// Statement is the closed union of declarations an ontology can own.
// The set of variants is fixed; external packages cannot add members.
type Statement interface {
	Node

	// StatementName returns the declared (local) name.
	StatementName() string

	// StatementKind returns the variant tag.
	StatementKind() StatementKind

	isStatement()
}

// Term is implemented by the type-level statement variants.
type Term interface {
	Statement

	// SuperTypes returns the direct specializations, as qualified names in
	// the owning document's alias scope.
	SuperTypes() []string

	// Equivalence returns the term's equivalence expression, empty when
	// none is declared. The expression is opaque to this package.
	Equivalence() string

	// KeyGroups returns the key property groups, each a set of property
	// names.
	KeyGroups() [][]string
}

// Instance is implemented by the individual-level statement variants.
type Instance interface {
	Statement

	// AssertedTypes returns the asserted types, as qualified names in the
	// owning document's alias scope.
	AssertedTypes() []string

	// Assertions returns the property-value assertions.
	Assertions() []*PropertyAssertion
}

// termBase holds the fields shared by all term variants.
type termBase struct {
	NodeMeta

	Name string

	// Specializes lists direct supertypes by qualified name.
	Specializes []string

	// equivalence is an optional equivalence expression, opaque to this
	// package.
	equivalence string

	// keyGroups lists key property groups, each a set of property names.
	keyGroups [][]string
}

func (t *termBase) StatementName() string { return t.Name }
func (t *termBase) SuperTypes() []string  { return t.Specializes }
func (t *termBase) Equivalence() string   { return t.equivalence }
func (t *termBase) KeyGroups() [][]string { return t.keyGroups }
func (t *termBase) isStatement()          {}

// Aspect is an abstract, multiply-inheritable type.
type Aspect struct{ termBase }

// Concept is a concrete instance-level type.
type Concept struct{ termBase }

// RelationEntity is a reified relation type with source and target ends.
type RelationEntity struct {
	termBase

	// Source and Target are the declared end types, by qualified name.
	Source string
	Target string

	// Forward is the forward relation name, if declared.
	Forward string
}

// Scalar is a primitive value type.
type Scalar struct{ termBase }

// ScalarProperty relates instances to literal values.
type ScalarProperty struct {
	termBase

	// Domain and Range are qualified names; Range names a scalar.
	Domain string
	Range  string

	Functional bool
}

// AnnotationProperty relates any element to annotation values.
type AnnotationProperty struct{ termBase }

// UnreifiedRelation relates instances without a reified relation entity.
type UnreifiedRelation struct {
	termBase

	Source string
	Target string
}

// Rule is a named derivation rule. Rules are carried through the model but
// not evaluated; flat property constraints live in playbooks.
type Rule struct {
	termBase
}

func (*Aspect) StatementKind() StatementKind             { return KindAspect }
func (*Concept) StatementKind() StatementKind            { return KindConcept }
func (*RelationEntity) StatementKind() StatementKind     { return KindRelationEntity }
func (*Scalar) StatementKind() StatementKind             { return KindScalar }
func (*ScalarProperty) StatementKind() StatementKind     { return KindScalarProperty }
func (*AnnotationProperty) StatementKind() StatementKind { return KindAnnotationProperty }
func (*UnreifiedRelation) StatementKind() StatementKind  { return KindUnreifiedRelation }
func (*Rule) StatementKind() StatementKind               { return KindRule }

// instanceBase holds the fields shared by instance variants.
type instanceBase struct {
	NodeMeta

	Name string

	// Types lists asserted types by qualified name.
	Types []string

	Properties []*PropertyAssertion
}

func (i *instanceBase) StatementName() string            { return i.Name }
func (i *instanceBase) AssertedTypes() []string          { return i.Types }
func (i *instanceBase) Assertions() []*PropertyAssertion { return i.Properties }
func (i *instanceBase) isStatement()                     {}

// ConceptInstance is a named individual of one or more concept types.
type ConceptInstance struct{ instanceBase }

// RelationInstance is a named link between instances.
type RelationInstance struct {
	instanceBase

	// Sources and Targets reference instances by qualified name.
	Sources []string
	Targets []string
}

func (*ConceptInstance) StatementKind() StatementKind  { return KindConceptInstance }
func (*RelationInstance) StatementKind() StatementKind { return KindRelationInstance }

// PropertyAssertion asserts values for one property on an instance.
type PropertyAssertion struct {
	NodeMeta

	// Property is the property's qualified name.
	Property string

	Values []PropertyValue
}

// PropertyValue is a literal or a reference to another instance. Exactly one
// field is set.
type PropertyValue struct {
	// Literal is the literal lexical form, when the value is a literal.
	Literal *Literal

	// Ref is the qualified name of the referenced instance, when the value
	// is a reference.
	Ref string
}

// IsRef reports whether the value references an instance.
func (v PropertyValue) IsRef() bool { return v.Ref != "" }

// Literal is a typed literal value.
type Literal struct {
	Value string

	// Datatype is the scalar's qualified name, empty for plain strings.
	Datatype string
}

// RefValue builds a reference property value.
func RefValue(qname string) PropertyValue {
	return PropertyValue{Ref: qname}
}

// LiteralValue builds a literal property value.
func LiteralValue(value, datatype string) PropertyValue {
	return PropertyValue{Literal: &Literal{Value: value, Datatype: datatype}}
}

// SetEquivalence sets the term's equivalence expression.
func (t *termBase) SetEquivalence(expr string) { t.equivalence = expr }

// SetKeyGroups sets the term's key property groups.
func (t *termBase) SetKeyGroups(groups [][]string) { t.keyGroups = groups }

// AddProperty appends a property-value assertion to the instance.
func (i *instanceBase) AddProperty(property string, values ...PropertyValue) {
	i.Properties = append(i.Properties, &PropertyAssertion{
		Property: property,
		Values:   values,
	})
}

// NewAspect builds an aspect term.
func NewAspect(name string, specializes ...string) *Aspect {
	return &Aspect{termBase{Name: name, Specializes: specializes}}
}

// NewConcept builds a concept term.
func NewConcept(name string, specializes ...string) *Concept {
	return &Concept{termBase{Name: name, Specializes: specializes}}
}

// NewRelationEntity builds a relation entity with the given end types.
func NewRelationEntity(name, source, target string, specializes ...string) *RelationEntity {
	return &RelationEntity{
		termBase: termBase{Name: name, Specializes: specializes},
		Source:   source,
		Target:   target,
	}
}

// NewScalar builds a scalar term.
func NewScalar(name string, specializes ...string) *Scalar {
	return &Scalar{termBase{Name: name, Specializes: specializes}}
}

// NewScalarProperty builds a scalar property with the given domain and range.
func NewScalarProperty(name, domain, rng string) *ScalarProperty {
	return &ScalarProperty{
		termBase: termBase{Name: name},
		Domain:   domain,
		Range:    rng,
	}
}

// NewAnnotationProperty builds an annotation property.
func NewAnnotationProperty(name string) *AnnotationProperty {
	return &AnnotationProperty{termBase{Name: name}}
}

// NewUnreifiedRelation builds an unreified relation with the given end types.
func NewUnreifiedRelation(name, source, target string) *UnreifiedRelation {
	return &UnreifiedRelation{
		termBase: termBase{Name: name},
		Source:   source,
		Target:   target,
	}
}

// NewRule builds a named rule.
func NewRule(name string) *Rule {
	return &Rule{termBase{Name: name}}
}

// NewConceptInstance builds a concept instance with the given asserted types.
func NewConceptInstance(name string, types ...string) *ConceptInstance {
	return &ConceptInstance{instanceBase{Name: name, Types: types}}
}

// NewRelationInstance builds a relation instance linking sources to targets.
func NewRelationInstance(name string, types, sources, targets []string) *RelationInstance {
	return &RelationInstance{
		instanceBase: instanceBase{Name: name, Types: types},
		Sources:      sources,
		Targets:      targets,
	}
}

// Instances returns the instance statements of a document in declaration
// order.
func (o *Ontology) Instances() []Instance {
	var out []Instance

	for _, s := range o.Statements {
		if inst, ok := s.(Instance); ok {
			out = append(out, inst)
		}
	}

	return out
}

// Terms returns the term statements of a document in declaration order.
func (o *Ontology) Terms() []Term {
	var out []Term

	for _, s := range o.Statements {
		if term, ok := s.(Term); ok {
			out = append(out, term)
		}
	}

	return out
}

// Statement returns the statement declared under the given local name, or
// nil. If kinds are given, only statements of those kinds match.
func (o *Ontology) Statement(name string, kinds ...StatementKind) Statement {
	for _, s := range o.Statements {
		if s.StatementName() != name {
			continue
		}

		if len(kinds) == 0 {
			return s
		}

		for _, k := range kinds {
			if s.StatementKind() == k {
				return s
			}
		}
	}

	return nil
}
