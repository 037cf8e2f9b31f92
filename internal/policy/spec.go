// Package policy evaluates declarative score-adjustment rules applied by the
// ranking engine before temperature scaling.
package policy

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const SpecSchemaV1 = "orchestration.ranking_policy.v1"

// MaxFactor bounds a single rule's multiplier.
const MaxFactor = 10.0

type Spec struct {
	Schema string `json:"schema" yaml:"schema"`
	Rules  []Rule `json:"rules" yaml:"rules"`
}

// Rule multiplies a scenario's raw score by Factor when its conditions match.
type Rule struct {
	ID          string         `json:"id" yaml:"id"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Factor      float64        `json:"factor" yaml:"factor"`
	When        ConditionGroup `json:"when" yaml:"when"`
}

type ConditionGroup struct {
	All []Condition `json:"all,omitempty" yaml:"all,omitempty"`
	Any []Condition `json:"any,omitempty" yaml:"any,omitempty"`
}

type Condition struct {
	Field  string   `json:"field" yaml:"field"`
	Op     string   `json:"op" yaml:"op"`
	Value  string   `json:"value,omitempty" yaml:"value,omitempty"`
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
}

func ParseSpec(input []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(input, &spec); err != nil {
		return Spec{}, fmt.Errorf("decode spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// LoadFile reads a YAML rule file. An empty path yields Default().
func LoadFile(path string) (Spec, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read policy file: %w", err)
	}
	spec, err := ParseSpec(data)
	if err != nil {
		return Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Schema) != SpecSchemaV1 {
		return fmt.Errorf("spec.schema must be %q", SpecSchemaV1)
	}

	seen := make(map[string]struct{}, len(s.Rules))
	for i, rule := range s.Rules {
		ruleID := strings.TrimSpace(rule.ID)
		if ruleID == "" {
			return fmt.Errorf("spec.rules[%d].id is required", i)
		}
		if _, ok := seen[ruleID]; ok {
			return fmt.Errorf("spec.rules[%d].id must be unique (duplicate %q)", i, ruleID)
		}
		seen[ruleID] = struct{}{}

		if math.IsNaN(rule.Factor) || rule.Factor <= 0 || rule.Factor > MaxFactor {
			return fmt.Errorf("spec.rules[%d].factor must be in (0, %g]", i, MaxFactor)
		}
		if len(rule.When.All) == 0 && len(rule.When.Any) == 0 {
			return fmt.Errorf("spec.rules[%d].when must include all or any", i)
		}
		if err := validateConditions(rule.When.All, fmt.Sprintf("spec.rules[%d].when.all", i)); err != nil {
			return err
		}
		if err := validateConditions(rule.When.Any, fmt.Sprintf("spec.rules[%d].when.any", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateConditions(conds []Condition, prefix string) error {
	for i, cond := range conds {
		field := strings.ToLower(strings.TrimSpace(cond.Field))
		if field == "" {
			return fmt.Errorf("%s[%d].field is required", prefix, i)
		}
		if !isFieldKnown(field) {
			return fmt.Errorf("%s[%d].field unsupported: %q", prefix, i, cond.Field)
		}
		op := strings.ToLower(strings.TrimSpace(cond.Op))
		if op == "" {
			return fmt.Errorf("%s[%d].op is required", prefix, i)
		}
		if !isOpAllowed(op) {
			return fmt.Errorf("%s[%d].op unsupported: %q", prefix, i, cond.Op)
		}

		switch op {
		case "exists":
			continue
		case "in", "not_in":
			if len(trimNonEmpty(cond.Values)) == 0 {
				return fmt.Errorf("%s[%d].values must be non-empty for %s", prefix, i, op)
			}
		default:
			if strings.TrimSpace(cond.Value) == "" {
				return fmt.Errorf("%s[%d].value is required for %s", prefix, i, op)
			}
		}
	}
	return nil
}

func isOpAllowed(op string) bool {
	switch op {
	case "eq", "neq", "in", "not_in", "contains", "not_contains", "matches", "exists":
		return true
	default:
		return false
	}
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, item := range values {
		v := normalizeString(item)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func normalizeString(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
