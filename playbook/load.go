package playbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"
)

// Load errors.
var (
	// ErrPlaybookNotFound is returned when no playbook file is found.
	ErrPlaybookNotFound = errors.New("playbook: no playbook file found")

	// ErrInvalidRule is returned when a rule is malformed. Malformed rules
	// are rejected at load time, before any instance is evaluated.
	ErrInvalidRule = errors.New("playbook: invalid rule")
)

// DefaultPlaybookNames are the filenames searched for.
var DefaultPlaybookNames = []string{
	".oml-playbook.yaml", ".oml-playbook.yml",
	"oml-playbook.yaml", "oml-playbook.yml",
}

// yamlPlaybook is the YAML representation of Playbook.
type yamlPlaybook struct {
	Version      int                    `yaml:"version"`
	Descriptions map[string]*yamlSchema `yaml:"descriptions"`
}

// yamlSchema is the YAML representation of DescriptionSchema.
type yamlSchema struct {
	AllowedTypes []string          `yaml:"allowedTypes,omitempty"`
	Routing      map[string]int    `yaml:"routing,omitempty"`
	Constraints  []*yamlConstraint `yaml:"constraints,omitempty"`
}

// yamlConstraint is the YAML representation of DescriptionConstraint.
type yamlConstraint struct {
	ID         string          `yaml:"id"`
	Message    string          `yaml:"message,omitempty"`
	AppliesTo  yamlAppliesTo   `yaml:"appliesTo"`
	Severity   string          `yaml:"severity,omitempty"`
	When       string          `yaml:"when,omitempty"`
	Properties []*yamlProperty `yaml:"properties,omitempty"`
}

// yamlAppliesTo is the YAML representation of AppliesTo.
type yamlAppliesTo struct {
	ConceptType    string   `yaml:"conceptType,omitempty"`
	ConceptTypes   []string `yaml:"conceptTypes,omitempty"`
	AnySubtypeOf   string   `yaml:"anySubtypeOf,omitempty"`
	ConceptPattern string   `yaml:"conceptPattern,omitempty"`
}

// yamlProperty is the YAML representation of PropertyConstraint.
type yamlProperty struct {
	Property            string   `yaml:"property"`
	Required            bool     `yaml:"required,omitempty"`
	MinOccurrences      *int     `yaml:"minOccurrences,omitempty"`
	MaxOccurrences      *int     `yaml:"maxOccurrences,omitempty"`
	TargetMustBe        string   `yaml:"targetMustBe,omitempty"`
	TargetMustBeOneOf   []string `yaml:"targetMustBeOneOf,omitempty"`
	TargetMatchSubtypes bool     `yaml:"targetMatchSubtypes,omitempty"`
}

// Find searches for a playbook file starting from dir and walking up.
func Find(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultPlaybookNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrPlaybookNotFound
		}

		dir = parent
	}
}

// LoadFile loads a playbook from a specific path.
func LoadFile(path string) (*Playbook, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return Load(data)
}

// Load parses and validates a playbook. Every rule is checked here so a
// single bad rule cannot corrupt evaluation of unrelated rules later.
func Load(data []byte) (*Playbook, error) {
	var yp yamlPlaybook
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return nil, fmt.Errorf("parsing playbook: %w", err)
	}

	pb := &Playbook{
		Version: yp.Version,
		Schemas: make(map[string]*DescriptionSchema, len(yp.Descriptions)),
	}

	seenIDs := make(map[string]string)

	for file, ys := range yp.Descriptions {
		schema := &DescriptionSchema{
			File:         file,
			AllowedTypes: ys.AllowedTypes,
		}

		for typeName, priority := range ys.Routing {
			if priority < 1 {
				return nil, fmt.Errorf("%w: %s: routing priority for %s must be >= 1", ErrInvalidRule, file, typeName)
			}

			schema.Routing = append(schema.Routing, RoutingEntry{Type: typeName, Priority: priority})
		}

		// YAML maps are unordered; keep routing deterministic.
		sort.Slice(schema.Routing, func(i, j int) bool {
			if schema.Routing[i].Priority != schema.Routing[j].Priority {
				return schema.Routing[i].Priority < schema.Routing[j].Priority
			}

			return schema.Routing[i].Type < schema.Routing[j].Type
		})

		for _, yc := range ys.Constraints {
			c, err := buildConstraint(file, yc)
			if err != nil {
				return nil, err
			}

			if prev, ok := seenIDs[c.ID]; ok {
				return nil, fmt.Errorf("%w: duplicate rule id %q (in %s and %s)", ErrInvalidRule, c.ID, prev, file)
			}

			seenIDs[c.ID] = file
			schema.Constraints = append(schema.Constraints, c)
		}

		pb.Schemas[file] = schema
	}

	return pb, nil
}

func buildConstraint(file string, yc *yamlConstraint) (*DescriptionConstraint, error) {
	if yc.ID == "" {
		return nil, fmt.Errorf("%w: %s: constraint with no id", ErrInvalidRule, file)
	}

	appliesTo := AppliesTo(yc.AppliesTo)
	if n := appliesTo.variantCount(); n != 1 {
		return nil, fmt.Errorf("%w: %s: appliesTo must set exactly one variant, got %d", ErrInvalidRule, yc.ID, n)
	}

	severity := Severity(yc.Severity)
	if yc.Severity == "" {
		severity = SeverityError
	}

	if !severity.Valid() {
		return nil, fmt.Errorf("%w: %s: unknown severity %q", ErrInvalidRule, yc.ID, yc.Severity)
	}

	c := &DescriptionConstraint{
		ID:        yc.ID,
		Message:   yc.Message,
		AppliesTo: appliesTo,
		Severity:  severity,
		When:      yc.When,
	}

	if yc.When != "" {
		program, err := compileGuard(yc.When)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: when: %v", ErrInvalidRule, yc.ID, err)
		}

		c.program = program
	}

	for _, yprop := range yc.Properties {
		if yprop.Property == "" {
			return nil, fmt.Errorf("%w: %s: property constraint with no property name", ErrInvalidRule, yc.ID)
		}

		if yprop.TargetMustBe != "" && len(yprop.TargetMustBeOneOf) > 0 {
			return nil, fmt.Errorf("%w: %s: %s: targetMustBe and targetMustBeOneOf are mutually exclusive", ErrInvalidRule, yc.ID, yprop.Property)
		}

		if yprop.MinOccurrences != nil && yprop.MaxOccurrences != nil && *yprop.MinOccurrences > *yprop.MaxOccurrences {
			return nil, fmt.Errorf("%w: %s: %s: minOccurrences %d > maxOccurrences %d", ErrInvalidRule, yc.ID, yprop.Property, *yprop.MinOccurrences, *yprop.MaxOccurrences)
		}

		if yprop.MinOccurrences != nil && *yprop.MinOccurrences < 0 {
			return nil, fmt.Errorf("%w: %s: %s: negative minOccurrences", ErrInvalidRule, yc.ID, yprop.Property)
		}

		c.Properties = append(c.Properties, &PropertyConstraint{
			Property:            yprop.Property,
			Required:            yprop.Required,
			MinOccurrences:      yprop.MinOccurrences,
			MaxOccurrences:      yprop.MaxOccurrences,
			TargetMustBe:        yprop.TargetMustBe,
			TargetMustBeOneOf:   yprop.TargetMustBeOneOf,
			TargetMatchSubtypes: yprop.TargetMatchSubtypes,
		})
	}

	return c, nil
}

// compileGuard compiles a when expression against the instance environment.
func compileGuard(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(GuardEnv()), expr.AsBool())
}

// GuardEnv returns the environment shape guard expressions are compiled and
// evaluated against: the instance's local name, its canonical asserted
// types, and its property assertions keyed by canonical property name.
func GuardEnv() map[string]any {
	return map[string]any{
		"name":  "",
		"types": []string{},
		"props": map[string][]string{},
	}
}

// EvalWhen evaluates the rule's guard against env. Rules without a guard
// always apply. A runtime failure skips the rule rather than aborting the
// whole evaluation.
func (c *DescriptionConstraint) EvalWhen(env map[string]any) bool {
	if c.program == nil {
		return true
	}

	out, err := vm.Run(c.program, env)
	if err != nil {
		return false
	}

	b, ok := out.(bool)

	return ok && b
}
