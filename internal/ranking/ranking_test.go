package ranking

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/animus-labs/animus-scenarios/internal/catalog"
	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/animus-labs/animus-scenarios/internal/embedding"
	"github.com/animus-labs/animus-scenarios/internal/policy"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	svc := embedding.New(embedding.DefaultDimension)
	engine, err := New(catalog.New(svc), svc, policy.Default(), Config{})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return engine
}

func ids(options []domain.RankedOption) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.ScenarioID)
	}
	return out
}

func TestRankValueDividendPrompt(t *testing.T) {
	engine := newEngine(t)
	resp, err := engine.Rank(context.Background(), Request{
		Prompt:       "long-term value investment with dividends",
		MaxScenarios: 3,
	})
	if err != nil {
		t.Fatalf("Rank() err=%v", err)
	}
	if len(resp.Options) == 0 || len(resp.Options) > 3 {
		t.Fatalf("len(options)=%d", len(resp.Options))
	}
	top := resp.Options[0].ScenarioID
	if top != "quant_factor" && top != "dividend_growth" {
		t.Fatalf("top=%s, options=%v", top, ids(resp.Options))
	}
	if resp.Metadata["total_available"] != 12 {
		t.Fatalf("total_available=%v", resp.Metadata["total_available"])
	}
	if resp.Metadata["scored"] != len(resp.Options) {
		t.Fatalf("scored=%v", resp.Metadata["scored"])
	}
	for i := 1; i < len(resp.Options); i++ {
		if resp.Options[i].Score > resp.Options[i-1].Score {
			t.Fatalf("options not sorted: %v", resp.Options)
		}
	}
}

func TestRankExcludesIneligible(t *testing.T) {
	engine := newEngine(t)
	resp, err := engine.Rank(context.Background(), Request{
		Prompt: "pair trading strategy with hedging",
		Profile: &domain.Profile{
			Jurisdiction:       "SG",
			AccreditedInvestor: false,
			ExcludedTags:       []string{"hedging"},
		},
		MaxScenarios: 12,
	})
	if err != nil {
		t.Fatalf("Rank() err=%v", err)
	}
	for _, id := range ids(resp.Options) {
		if id == "pair_trade" || id == "dca_planner" {
			t.Fatalf("ineligible option %s returned: %v", id, ids(resp.Options))
		}
	}
	if resp.Metadata["eligible"] != 10 {
		t.Fatalf("eligible=%v, want 10", resp.Metadata["eligible"])
	}
}

func TestRankBoundsAndNonEmpty(t *testing.T) {
	engine := newEngine(t)
	svc := embedding.New(embedding.DefaultDimension)
	cat := catalog.New(svc)
	prompts := []string{"x", "momentum", "zzz qqq", "dca planner for retirement income", "smart beta tracking error"}
	for _, prompt := range prompts {
		for n := 1; n <= MaxScenariosLimit; n++ {
			resp, err := engine.Rank(context.Background(), Request{Prompt: prompt, MaxScenarios: n, Profile: &domain.Profile{}})
			if err != nil {
				t.Fatalf("Rank(%q,%d) err=%v", prompt, n, err)
			}
			if len(resp.Options) == 0 || len(resp.Options) > n {
				t.Fatalf("Rank(%q,%d) len=%d", prompt, n, len(resp.Options))
			}
			for _, opt := range resp.Options {
				spec, _ := cat.Get(opt.ScenarioID)
				if spec.RequiresAccreditation {
					t.Fatalf("accreditation-required %s returned to unaccredited profile", opt.ScenarioID)
				}
				if opt.Score <= 0 {
					t.Fatalf("score=%v for %s", opt.Score, opt.ScenarioID)
				}
			}
		}
	}
}

func TestRankJurisdictionExclusion(t *testing.T) {
	engine := newEngine(t)
	svc := embedding.New(embedding.DefaultDimension)
	cat := catalog.New(svc)
	resp, err := engine.Rank(context.Background(), Request{
		Prompt:       "dca planner regime volatility valuation",
		Profile:      &domain.Profile{Jurisdiction: "sg", AccreditedInvestor: true},
		MaxScenarios: 12,
	})
	if err != nil {
		t.Fatalf("Rank() err=%v", err)
	}
	for _, opt := range resp.Options {
		spec, _ := cat.Get(opt.ScenarioID)
		for _, region := range spec.RestrictedRegions {
			if region == "SG" {
				t.Fatalf("restricted option %s returned", opt.ScenarioID)
			}
		}
	}
}

func TestRankNilProfilePassesAll(t *testing.T) {
	engine := newEngine(t)
	resp, err := engine.Rank(context.Background(), Request{Prompt: "pair trade hedge beta", MaxScenarios: 12})
	if err != nil {
		t.Fatalf("Rank() err=%v", err)
	}
	if len(resp.Options) != 12 {
		t.Fatalf("len=%d, want 12", len(resp.Options))
	}
	if resp.Options[0].ScenarioID != "pair_trade" {
		t.Fatalf("top=%s", resp.Options[0].ScenarioID)
	}
}

func TestRankValidation(t *testing.T) {
	engine := newEngine(t)
	cases := []Request{
		{Prompt: "   ", MaxScenarios: 3},
		{Prompt: "value", MaxScenarios: 13},
		{Prompt: "value", MaxScenarios: -1},
		{Prompt: "value", MaxScenarios: 3, Profile: &domain.Profile{RiskProfile: "reckless"}},
	}
	for _, req := range cases {
		if _, err := engine.Rank(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("Rank(%+v) err=%v, want ErrInvalidRequest", req, err)
		}
	}
}

func TestRankDefaultsMaxScenarios(t *testing.T) {
	engine := newEngine(t)
	resp, err := engine.Rank(context.Background(), Request{Prompt: "portfolio allocation"})
	if err != nil {
		t.Fatalf("Rank() err=%v", err)
	}
	if len(resp.Options) != DefaultMaxScenarios {
		t.Fatalf("len=%d, want %d", len(resp.Options), DefaultMaxScenarios)
	}
}

func TestRankTemperatureOverrideClamped(t *testing.T) {
	engine := newEngine(t)
	temp := 9.0
	resp, err := engine.Rank(context.Background(), Request{
		Prompt:       "momentum",
		Profile:      &domain.Profile{Temperature: &temp},
		MaxScenarios: 2,
	})
	if err != nil {
		t.Fatalf("Rank() err=%v", err)
	}
	if resp.Metadata["temperature"] != MaxTemperature {
		t.Fatalf("temperature=%v", resp.Metadata["temperature"])
	}
}

func TestRiskProfileMultiplier(t *testing.T) {
	engine := newEngine(t)
	rank := func(risk domain.RiskProfile) map[string]float64 {
		resp, err := engine.Rank(context.Background(), Request{
			Prompt:       "momentum trend volatility",
			Profile:      &domain.Profile{RiskProfile: risk, AccreditedInvestor: true},
			MaxScenarios: 12,
		})
		if err != nil {
			t.Fatalf("Rank() err=%v", err)
		}
		out := make(map[string]float64, len(resp.Options))
		for _, opt := range resp.Options {
			out[opt.ScenarioID] = opt.Score
		}
		return out
	}
	balanced := rank(domain.RiskBalanced)
	aggressive := rank(domain.RiskAggressive)
	conservative := rank(domain.RiskConservative)

	want := math.Pow(1.2, 1/DefaultTemperature)
	if got := aggressive["trend_strength"] / balanced["trend_strength"]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("aggressive ratio=%v, want %v", got, want)
	}
	if conservative["dca_planner"] >= balanced["dca_planner"] {
		t.Fatalf("conservative dca_planner=%v, balanced=%v", conservative["dca_planner"], balanced["dca_planner"])
	}
	if conservative["quant_factor"] != balanced["quant_factor"] {
		t.Fatalf("conservative should not touch quant_factor")
	}
}

func TestEligible(t *testing.T) {
	spec := domain.ScenarioSpec{
		Tags:                  []string{"equities", "hedging"},
		EligibilityTags:       []string{"advanced_derivatives"},
		RestrictedRegions:     []string{"SG"},
		RequiresAccreditation: true,
	}
	cases := []struct {
		name    string
		profile *domain.Profile
		want    bool
	}{
		{"nil profile", nil, true},
		{"accredited elsewhere", &domain.Profile{Jurisdiction: "US", AccreditedInvestor: true}, true},
		{"restricted region", &domain.Profile{Jurisdiction: "sg", AccreditedInvestor: true}, false},
		{"excluded tag", &domain.Profile{ExcludedTags: []string{"Hedging"}, AccreditedInvestor: true}, false},
		{"excluded eligibility tag", &domain.Profile{ExcludedTags: []string{"advanced_derivatives"}, AccreditedInvestor: true}, false},
		{"not accredited", &domain.Profile{}, false},
		{"regulatory flag", &domain.Profile{RegulatoryFlags: []string{"advanced_derivatives"}, AccreditedInvestor: true}, false},
	}
	for _, tc := range cases {
		if got := Eligible(spec, tc.profile); got != tc.want {
			t.Fatalf("%s: Eligible()=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestKeywordBoost(t *testing.T) {
	freq := map[string]int{"dividends": 1, "value": 2}
	got := keywordBoost(freq, 3, []string{"value", "dividend", "dcf"})
	want := 1.4*2 + 0.6 + 0.05*math.Log1p(3)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("keywordBoost=%v, want %v", got, want)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MAX_SCENARIOS", "13")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected MAX_SCENARIOS error")
	}
	t.Setenv("MAX_SCENARIOS", "4")
	t.Setenv("RANKING_TEMPERATURE", "1.5")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.MaxScenarios != 4 || cfg.Temperature != 1.5 {
		t.Fatalf("cfg=%+v", cfg)
	}
}
