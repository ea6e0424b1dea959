package oml

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"gopkg.in/yaml.v3"
)

// This file implements the document-model interchange format: an ontology
// serialized as YAML by the external text parser. Decoding preserves node
// positions so diagnostics can point back into the model file.

// yamlOntology is the YAML representation of Ontology.
type yamlOntology struct {
	Kind       string           `yaml:"kind"`
	Namespace  string           `yaml:"namespace"`
	Prefix     string           `yaml:"prefix"`
	Imports    []*yamlImport    `yaml:"imports,omitempty"`
	Statements []*yamlStatement `yaml:"statements,omitempty"`
}

// yamlImport is the YAML representation of Import.
type yamlImport struct {
	pos lexer.Position

	Kind      string `yaml:"kind"`
	Namespace string `yaml:"namespace"`
	Alias     string `yaml:"alias,omitempty"`
}

// UnmarshalYAML records the node position before decoding the fields.
func (i *yamlImport) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlImport

	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}

	*i = yamlImport(p)
	i.pos = lexer.Position{Line: value.Line, Column: value.Column}

	return nil
}

// yamlStatement is the YAML representation of any Statement variant; Kind
// discriminates.
type yamlStatement struct {
	pos lexer.Position

	Kind        string     `yaml:"kind"`
	Name        string     `yaml:"name"`
	Specializes []string   `yaml:"specializes,omitempty"`
	Equivalence string     `yaml:"equivalence,omitempty"`
	Keys        [][]string `yaml:"keys,omitempty"`

	// Relation entity / unreified relation ends.
	Source  string `yaml:"source,omitempty"`
	Target  string `yaml:"target,omitempty"`
	Forward string `yaml:"forward,omitempty"`

	// Scalar property fields.
	Domain     string `yaml:"domain,omitempty"`
	Range      string `yaml:"range,omitempty"`
	Functional bool   `yaml:"functional,omitempty"`

	// Instance fields.
	Types      []string         `yaml:"types,omitempty"`
	Sources    []string         `yaml:"sources,omitempty"`
	Targets    []string         `yaml:"targets,omitempty"`
	Properties []*yamlAssertion `yaml:"properties,omitempty"`
}

// UnmarshalYAML records the node position before decoding the fields.
func (s *yamlStatement) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlStatement

	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}

	*s = yamlStatement(p)
	s.pos = lexer.Position{Line: value.Line, Column: value.Column}

	return nil
}

// yamlAssertion is the YAML representation of PropertyAssertion.
type yamlAssertion struct {
	Property string       `yaml:"property"`
	Values   []*yamlValue `yaml:"values"`
}

// yamlValue is the YAML representation of PropertyValue. Exactly one of Ref
// and Value should be set.
type yamlValue struct {
	Ref      string `yaml:"ref,omitempty"`
	Value    string `yaml:"value,omitempty"`
	Datatype string `yaml:"datatype,omitempty"`
}

// DecodeOntology decodes the document-model form of an ontology. The path is
// recorded on the result and in position information.
func DecodeOntology(data []byte, path string) (*Ontology, error) {
	var yo yamlOntology
	if err := yaml.Unmarshal(data, &yo); err != nil {
		return nil, fmt.Errorf("decoding ontology model: %w", err)
	}

	return yamlToOntology(&yo, path)
}

func yamlToOntology(yo *yamlOntology, path string) (*Ontology, error) {
	kind := OntologyKind(yo.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: ontology kind %q", ErrUnknownKind, yo.Kind)
	}

	if yo.Namespace == "" || !strings.HasSuffix(yo.Namespace, "#") && !strings.HasSuffix(yo.Namespace, "/") {
		return nil, fmt.Errorf("ontology namespace %q must end in '#' or '/'", yo.Namespace)
	}

	if yo.Prefix == "" {
		return nil, fmt.Errorf("ontology %s declares no prefix", yo.Namespace)
	}

	o := &Ontology{
		Kind:      kind,
		Namespace: yo.Namespace,
		Prefix:    yo.Prefix,
		Path:      path,
	}

	for _, yi := range yo.Imports {
		imp := &Import{
			Kind:      ImportKind(yi.Kind),
			Namespace: yi.Namespace,
		}
		imp.Pos = withFile(yi.pos, path)
		imp.EndPos = imp.Pos

		switch imp.Kind {
		case Extends, Uses, Includes:
		default:
			return nil, fmt.Errorf("%w: import kind %q", ErrUnknownKind, yi.Kind)
		}

		if yi.Alias != "" {
			alias := yi.Alias
			imp.Alias = &alias
		}

		o.Imports = append(o.Imports, imp)
	}

	for _, ys := range yo.Statements {
		stmt, err := yamlToStatement(ys, path)
		if err != nil {
			return nil, err
		}

		o.Statements = append(o.Statements, stmt)
	}

	return o, nil
}

func yamlToStatement(ys *yamlStatement, path string) (Statement, error) {
	if ys.Name == "" {
		return nil, fmt.Errorf("statement at line %d has no name", ys.pos.Line)
	}

	base := termBase{
		Name:        ys.Name,
		Specializes: ys.Specializes,
		equivalence: ys.Equivalence,
		keyGroups:   ys.Keys,
	}
	base.Pos = withFile(ys.pos, path)
	base.EndPos = base.Pos

	inst := instanceBase{
		Name:  ys.Name,
		Types: ys.Types,
	}
	inst.Pos = base.Pos
	inst.EndPos = base.Pos

	for _, ya := range ys.Properties {
		if ya.Property == "" {
			return nil, fmt.Errorf("instance %s: property assertion with no property name", ys.Name)
		}

		pa := &PropertyAssertion{Property: ya.Property}
		pa.Pos = base.Pos
		pa.EndPos = base.Pos

		for _, yv := range ya.Values {
			switch {
			case yv.Ref != "":
				pa.Values = append(pa.Values, PropertyValue{Ref: yv.Ref})
			default:
				pa.Values = append(pa.Values, PropertyValue{
					Literal: &Literal{Value: yv.Value, Datatype: yv.Datatype},
				})
			}
		}

		inst.Properties = append(inst.Properties, pa)
	}

	switch StatementKind(ys.Kind) {
	case KindAspect:
		return &Aspect{termBase: base}, nil
	case KindConcept:
		return &Concept{termBase: base}, nil
	case KindRelationEntity:
		return &RelationEntity{
			termBase: base,
			Source:   ys.Source,
			Target:   ys.Target,
			Forward:  ys.Forward,
		}, nil
	case KindScalar:
		return &Scalar{termBase: base}, nil
	case KindScalarProperty:
		return &ScalarProperty{
			termBase:   base,
			Domain:     ys.Domain,
			Range:      ys.Range,
			Functional: ys.Functional,
		}, nil
	case KindAnnotationProperty:
		return &AnnotationProperty{termBase: base}, nil
	case KindUnreifiedRelation:
		return &UnreifiedRelation{
			termBase: base,
			Source:   ys.Source,
			Target:   ys.Target,
		}, nil
	case KindRule:
		return &Rule{termBase: base}, nil
	case KindConceptInstance:
		return &ConceptInstance{instanceBase: inst}, nil
	case KindRelationInstance:
		return &RelationInstance{
			instanceBase: inst,
			Sources:      ys.Sources,
			Targets:      ys.Targets,
		}, nil
	default:
		return nil, fmt.Errorf("%w: statement kind %q", ErrUnknownKind, ys.Kind)
	}
}

func withFile(pos lexer.Position, path string) lexer.Position {
	pos.Filename = path
	return pos
}

// EncodeOntology writes the document-model form of an ontology.
func EncodeOntology(o *Ontology) ([]byte, error) {
	yo := &yamlOntology{
		Kind:      string(o.Kind),
		Namespace: o.Namespace,
		Prefix:    o.Prefix,
	}

	for _, imp := range o.Imports {
		yi := &yamlImport{
			Kind:      string(imp.Kind),
			Namespace: imp.Namespace,
		}
		if imp.Alias != nil {
			yi.Alias = *imp.Alias
		}

		yo.Imports = append(yo.Imports, yi)
	}

	for _, s := range o.Statements {
		yo.Statements = append(yo.Statements, statementToYAML(s))
	}

	var buf strings.Builder

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(yo); err != nil {
		return nil, err
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}

	return []byte(buf.String()), nil
}

func statementToYAML(s Statement) *yamlStatement {
	ys := &yamlStatement{
		Kind: string(s.StatementKind()),
		Name: s.StatementName(),
	}

	switch v := s.(type) {
	case *RelationEntity:
		ys.Source, ys.Target, ys.Forward = v.Source, v.Target, v.Forward
	case *ScalarProperty:
		ys.Domain, ys.Range, ys.Functional = v.Domain, v.Range, v.Functional
	case *UnreifiedRelation:
		ys.Source, ys.Target = v.Source, v.Target
	case *RelationInstance:
		ys.Sources, ys.Targets = v.Sources, v.Targets
	}

	if term, ok := s.(Term); ok {
		ys.Specializes = term.SuperTypes()
		ys.Equivalence = term.Equivalence()
		ys.Keys = term.KeyGroups()
	}

	if inst, ok := s.(Instance); ok {
		ys.Types = inst.AssertedTypes()

		for _, pa := range inst.Assertions() {
			ya := &yamlAssertion{Property: pa.Property}

			for _, v := range pa.Values {
				switch {
				case v.IsRef():
					ya.Values = append(ya.Values, &yamlValue{Ref: v.Ref})
				case v.Literal != nil:
					ya.Values = append(ya.Values, &yamlValue{Value: v.Literal.Value, Datatype: v.Literal.Datatype})
				}
			}

			ys.Properties = append(ys.Properties, ya)
		}
	}

	return ys
}
