// Package ranking scores catalog scenarios against a free-text prompt.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/animus-labs/animus-scenarios/internal/catalog"
	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/animus-labs/animus-scenarios/internal/embedding"
	"github.com/animus-labs/animus-scenarios/internal/policy"
)

var ErrInvalidRequest = errors.New("invalid ranking request")

const (
	exactKeywordWeight  = 1.4
	partialKeywordBonus = 0.6
	promptLengthWeight  = 0.05
	scoreFloor          = 1e-6
)

type Request struct {
	Prompt       string          `json:"prompt"`
	Profile      *domain.Profile `json:"user_profile,omitempty"`
	MaxScenarios int             `json:"max_scenarios"`
}

type Response struct {
	Prompt   string                `json:"prompt"`
	Options  []domain.RankedOption `json:"options"`
	Metadata domain.Metadata       `json:"metadata"`
}

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	catalog     *catalog.Catalog
	embedder    *embedding.Service
	policy      policy.Spec
	temperature float64
	maxDefault  int
}

func New(cat *catalog.Catalog, embedder *embedding.Service, rules policy.Spec, cfg Config) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cfg.MaxScenarios == 0 {
		cfg.MaxScenarios = DefaultMaxScenarios
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rules.Schema == "" {
		rules = policy.Default()
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("ranking policy: %w", err)
	}
	return &Engine{
		catalog:     cat,
		embedder:    embedder,
		policy:      rules,
		temperature: cfg.Temperature,
		maxDefault:  cfg.MaxScenarios,
	}, nil
}

// DefaultMaxScenarios is the result count applied when a request leaves it zero.
func (e *Engine) DefaultMaxScenarios() int {
	return e.maxDefault
}

type scored struct {
	spec  domain.ScenarioSpec
	order int
	score float64
}

// Rank filters ineligible entries, scores the rest, and returns the top
// MaxScenarios. It has no side effects.
func (e *Engine) Rank(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	maxScenarios := req.MaxScenarios
	if maxScenarios == 0 {
		maxScenarios = e.maxDefault
	}
	if err := validate(req.Prompt, maxScenarios, req.Profile); err != nil {
		return Response{}, err
	}

	temperature := e.temperature
	if req.Profile != nil && req.Profile.Temperature != nil {
		temperature = *req.Profile.Temperature
	}
	temperature = clamp(temperature, MinTemperature, MaxTemperature)

	tokens := embedding.Tokenize(req.Prompt)
	frequencies := make(map[string]int, len(tokens))
	for _, token := range tokens {
		frequencies[token]++
	}
	promptVector := e.embedder.Embed(req.Prompt)

	profile := domain.Profile{}
	if req.Profile != nil {
		profile = *req.Profile
	}

	specs := e.catalog.All()
	candidates := make([]scored, 0, len(specs))
	for i, spec := range specs {
		if !Eligible(spec, req.Profile) {
			continue
		}
		similarity := math.Max(0, embedding.Cosine(promptVector, spec.Embedding))
		raw := math.Max(similarity+keywordBoost(frequencies, len(tokens), spec.Keywords), scoreFloor)
		adj := policy.Evaluate(e.policy, policy.Context{Profile: profile, Scenario: spec})
		raw *= adj.Factor
		candidates = append(candidates, scored{
			spec:  spec,
			order: i,
			score: math.Pow(raw, 1/temperature),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	selected := make([]domain.RankedOption, 0, maxScenarios)
	for _, c := range candidates {
		if len(selected) == maxScenarios {
			break
		}
		if c.score > 0 {
			selected = append(selected, domain.NewRankedOption(c.spec, c.score))
		}
	}
	if len(selected) == 0 {
		for _, c := range candidates {
			if len(selected) == maxScenarios {
				break
			}
			selected = append(selected, domain.NewRankedOption(c.spec, c.score))
		}
	}

	return Response{
		Prompt:  req.Prompt,
		Options: selected,
		Metadata: domain.Metadata{
			"scored":          len(selected),
			"eligible":        len(candidates),
			"total_available": e.catalog.Len(),
			"temperature":     temperature,
		},
	}, nil
}

// keywordBoost rewards exact keyword tokens by frequency, keywords embedded in
// a longer token by a flat bonus, and longer prompts slightly.
func keywordBoost(frequencies map[string]int, totalTokens int, keywords []string) float64 {
	var boost float64
	for _, keyword := range keywords {
		keyword = strings.ToLower(keyword)
		if freq := frequencies[keyword]; freq > 0 {
			boost += exactKeywordWeight * float64(freq)
			continue
		}
		for token := range frequencies {
			if strings.Contains(token, keyword) {
				boost += partialKeywordBonus
				break
			}
		}
	}
	return boost + promptLengthWeight*math.Log1p(float64(totalTokens))
}

func validate(prompt string, maxScenarios int, profile *domain.Profile) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if maxScenarios < 1 || maxScenarios > MaxScenariosLimit {
		return fmt.Errorf("%w: max_scenarios must be between 1 and %d", ErrInvalidRequest, MaxScenariosLimit)
	}
	if profile == nil {
		return nil
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if t := profile.Temperature; t != nil && (math.IsNaN(*t) || math.IsInf(*t, 0)) {
		return fmt.Errorf("%w: temperature must be a finite number", ErrInvalidRequest)
	}
	return nil
}

func clamp(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}
