package policy

// Default is the built-in rule set used when no policy file is configured.
func Default() Spec {
	return Spec{
		Schema: SpecSchemaV1,
		Rules: []Rule{
			{
				ID:          "conservative-volatility",
				Description: "Discount volatility and hedging strategies for conservative investors",
				Factor:      0.8,
				When: ConditionGroup{
					All: []Condition{
						{Field: "profile.risk_profile", Op: "eq", Value: "conservative"},
					},
					Any: []Condition{
						{Field: "scenario.tags", Op: "in", Values: []string{"volatility", "hedging"}},
						{Field: "scenario.keywords", Op: "in", Values: []string{"volatility", "hedge"}},
					},
				},
			},
			{
				ID:          "aggressive-momentum",
				Description: "Amplify momentum strategies for aggressive investors",
				Factor:      1.2,
				When: ConditionGroup{
					All: []Condition{
						{Field: "profile.risk_profile", Op: "eq", Value: "aggressive"},
						{Field: "scenario.tags", Op: "contains", Value: "momentum"},
					},
				},
			},
		},
	}
}
