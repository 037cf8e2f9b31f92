package policy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

// Context is what a rule can observe: the caller's profile and one catalog
// entry.
type Context struct {
	Profile  domain.Profile
	Scenario domain.ScenarioSpec
}

// Adjustment is the combined effect of every matching rule.
type Adjustment struct {
	Factor  float64  `json:"factor"`
	RuleIDs []string `json:"rule_ids,omitempty"`
}

// Evaluate multiplies the factors of all matching rules. With no match the
// factor is 1.
func Evaluate(spec Spec, ctx Context) Adjustment {
	adj := Adjustment{Factor: 1}
	for _, rule := range spec.Rules {
		if ruleMatches(rule, ctx) {
			adj.Factor *= rule.Factor
			adj.RuleIDs = append(adj.RuleIDs, strings.TrimSpace(rule.ID))
		}
	}
	return adj
}

func ruleMatches(rule Rule, ctx Context) bool {
	for _, cond := range rule.When.All {
		if !conditionMatches(cond, ctx) {
			return false
		}
	}
	if len(rule.When.Any) > 0 {
		for _, cond := range rule.When.Any {
			if conditionMatches(cond, ctx) {
				return true
			}
		}
		return false
	}
	return true
}

func conditionMatches(cond Condition, ctx Context) bool {
	value, ok := ctx.Field(cond.Field)
	op := strings.ToLower(strings.TrimSpace(cond.Op))
	if op == "exists" {
		return ok
	}
	if !ok {
		// Absent fields only satisfy negative operators.
		return op == "neq" || op == "not_in" || op == "not_contains"
	}
	switch op {
	case "eq":
		return compareEqual(value, cond.Value)
	case "neq":
		return !compareEqual(value, cond.Value)
	case "in":
		return compareIn(value, cond.Values)
	case "not_in":
		return !compareIn(value, cond.Values)
	case "contains":
		return compareContains(value, cond.Value)
	case "not_contains":
		return !compareContains(value, cond.Value)
	case "matches":
		return compareRegex(value, cond.Value)
	default:
		return false
	}
}

func isFieldKnown(name string) bool {
	_, known := fieldValue(Context{}, name)
	return known
}

// Field resolves a dotted field name. The second result is false when the
// field is unknown or empty.
func (c Context) Field(name string) (any, bool) {
	value, known := fieldValue(c, name)
	if !known {
		return nil, false
	}
	switch typed := value.(type) {
	case string:
		return typed, strings.TrimSpace(typed) != ""
	case []string:
		return typed, len(typed) > 0
	default:
		return value, true
	}
}

func fieldValue(c Context, name string) (any, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "profile.risk_profile", "risk_profile":
		return string(c.Profile.Risk()), true
	case "profile.jurisdiction", "jurisdiction":
		return c.Profile.Jurisdiction, true
	case "profile.accredited_investor", "accredited_investor":
		return strconv.FormatBool(c.Profile.AccreditedInvestor), true
	case "profile.regulatory_flags":
		return c.Profile.RegulatoryFlags, true
	case "profile.excluded_tags":
		return c.Profile.ExcludedTags, true
	case "scenario.id", "scenario.scenario_id":
		return c.Scenario.ScenarioID, true
	case "scenario.tags":
		return c.Scenario.Tags, true
	case "scenario.keywords":
		return c.Scenario.Keywords, true
	case "scenario.eligibility_tags":
		return c.Scenario.EligibilityTags, true
	case "scenario.restricted_regions":
		return c.Scenario.RestrictedRegions, true
	case "scenario.complexity":
		return c.Scenario.Complexity, true
	case "scenario.requires_accreditation":
		return strconv.FormatBool(c.Scenario.RequiresAccreditation), true
	default:
		return nil, false
	}
}

func compareEqual(value any, target string) bool {
	target = normalizeString(target)
	switch typed := value.(type) {
	case string:
		return normalizeString(typed) == target
	case []string:
		for _, item := range typed {
			if normalizeString(item) == target {
				return true
			}
		}
		return false
	default:
		return normalizeString(fmt.Sprint(value)) == target
	}
}

func compareIn(value any, targets []string) bool {
	normalized := trimNonEmpty(targets)
	if len(normalized) == 0 {
		return false
	}
	switch typed := value.(type) {
	case string:
		return sliceContains(normalized, normalizeString(typed))
	case []string:
		for _, item := range typed {
			if sliceContains(normalized, normalizeString(item)) {
				return true
			}
		}
		return false
	default:
		return sliceContains(normalized, normalizeString(fmt.Sprint(value)))
	}
}

// compareContains is substring match on strings and element match on lists.
func compareContains(value any, target string) bool {
	target = normalizeString(target)
	if target == "" {
		return false
	}
	switch typed := value.(type) {
	case string:
		return strings.Contains(normalizeString(typed), target)
	case []string:
		for _, item := range typed {
			if normalizeString(item) == target {
				return true
			}
		}
		return false
	default:
		return strings.Contains(normalizeString(fmt.Sprint(value)), target)
	}
}

func compareRegex(value any, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	switch typed := value.(type) {
	case string:
		return re.MatchString(typed)
	case []string:
		for _, item := range typed {
			if re.MatchString(item) {
				return true
			}
		}
		return false
	default:
		return re.MatchString(fmt.Sprint(value))
	}
}

func sliceContains(values []string, target string) bool {
	for _, item := range values {
		if item == target {
			return true
		}
	}
	return false
}
