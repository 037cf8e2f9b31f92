package policy

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() err=%v", err)
	}
}

func TestSpecValidate(t *testing.T) {
	spec := Spec{
		Schema: SpecSchemaV1,
		Rules: []Rule{{
			ID:     "boost-income",
			Factor: 1.1,
			When:   ConditionGroup{All: []Condition{{Field: "scenario.tags", Op: "contains", Value: "income"}}},
		}},
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	invalid := spec
	invalid.Schema = "bad"
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected schema error")
	}

	invalid = spec
	invalid.Rules = []Rule{spec.Rules[0]}
	invalid.Rules[0].Factor = 0
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected factor error")
	}

	invalid.Rules[0].Factor = 1
	invalid.Rules[0].When = ConditionGroup{All: []Condition{{Field: "actor.roles", Op: "eq", Value: "x"}}}
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestEvaluateConservativeDiscount(t *testing.T) {
	spec := Default()
	pair := domain.ScenarioSpec{ScenarioID: "pair_trade", Tags: []string{"equities", "hedging"}}
	adj := Evaluate(spec, Context{Profile: domain.Profile{RiskProfile: "Conservative"}, Scenario: pair})
	if math.Abs(adj.Factor-0.8) > 1e-12 {
		t.Fatalf("Factor=%v, want 0.8", adj.Factor)
	}
	if len(adj.RuleIDs) != 1 || adj.RuleIDs[0] != "conservative-volatility" {
		t.Fatalf("RuleIDs=%v", adj.RuleIDs)
	}

	adj = Evaluate(spec, Context{Profile: domain.Profile{RiskProfile: "balanced"}, Scenario: pair})
	if adj.Factor != 1 || len(adj.RuleIDs) != 0 {
		t.Fatalf("balanced profile adj=%+v", adj)
	}
}

func TestEvaluateMultipliesMatches(t *testing.T) {
	spec := Spec{
		Schema: SpecSchemaV1,
		Rules: []Rule{
			{ID: "a", Factor: 2, When: ConditionGroup{All: []Condition{{Field: "scenario.id", Op: "eq", Value: "x"}}}},
			{ID: "b", Factor: 1.5, When: ConditionGroup{All: []Condition{{Field: "profile.jurisdiction", Op: "not_in", Values: []string{"SG"}}}}},
			{ID: "c", Factor: 3, When: ConditionGroup{All: []Condition{{Field: "profile.jurisdiction", Op: "exists"}}}},
		},
	}
	adj := Evaluate(spec, Context{Scenario: domain.ScenarioSpec{ScenarioID: "x"}})
	if adj.Factor != 3 {
		t.Fatalf("Factor=%v, want 3", adj.Factor)
	}
	adj = Evaluate(spec, Context{Profile: domain.Profile{Jurisdiction: "US"}, Scenario: domain.ScenarioSpec{ScenarioID: "x"}})
	if adj.Factor != 9 {
		t.Fatalf("Factor=%v, want 9", adj.Factor)
	}
}

func TestLoadFile(t *testing.T) {
	spec, err := LoadFile("")
	if err != nil || len(spec.Rules) != 2 {
		t.Fatalf("LoadFile(\"\") rules=%d err=%v", len(spec.Rules), err)
	}

	path := filepath.Join(t.TempDir(), "ranking.yaml")
	doc := `schema: orchestration.ranking_policy.v1
rules:
  - id: prefer-advanced-accredited
    factor: 1.25
    when:
      all:
        - field: profile.accredited_investor
          op: eq
          value: "true"
        - field: scenario.complexity
          op: eq
          value: advanced
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	spec, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() err=%v", err)
	}
	adj := Evaluate(spec, Context{
		Profile:  domain.Profile{AccreditedInvestor: true},
		Scenario: domain.ScenarioSpec{Complexity: "advanced"},
	})
	if adj.Factor != 1.25 {
		t.Fatalf("Factor=%v", adj.Factor)
	}

	if err := os.WriteFile(path, []byte("schema: other\nrules: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected schema error")
	}
}
