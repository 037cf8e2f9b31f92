package domain

import (
	"errors"
	"strings"
)

// ScenarioSpec is an immutable catalog entry.
type ScenarioSpec struct {
	ScenarioID            string    `json:"scenario_id"`
	Title                 string    `json:"title"`
	ShortDescription      string    `json:"short_description"`
	Rationale             string    `json:"rationale"`
	Inputs                []string  `json:"inputs"`
	Methodology           []string  `json:"methodology"`
	Deliverables          []string  `json:"deliverables"`
	Keywords              []string  `json:"keywords"`
	Tags                  []string  `json:"tags"`
	RestrictedRegions     []string  `json:"restricted_regions,omitempty"`
	EligibilityTags       []string  `json:"eligibility_tags,omitempty"`
	RequiresAccreditation bool      `json:"requires_accreditation"`
	Complexity            string    `json:"complexity"`
	Embedding             []float64 `json:"-"`
}

// Narrative is the text the catalog embedding is computed from.
func (s ScenarioSpec) Narrative() string {
	return strings.Join([]string{
		s.Title,
		s.ShortDescription,
		s.Rationale,
		strings.Join(s.Methodology, " "),
		strings.Join(s.Deliverables, " "),
		strings.Join(s.Keywords, " "),
	}, " ")
}

// RankedOption is one scored scenario in a suggestion response.
type RankedOption struct {
	ScenarioID       string   `json:"scenario_id"`
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Rationale        string   `json:"rationale"`
	Inputs           []string `json:"inputs"`
	Methodology      []string `json:"methodology"`
	Deliverables     []string `json:"deliverables"`
	Score            float64  `json:"score"`
}

func NewRankedOption(spec ScenarioSpec, score float64) RankedOption {
	return RankedOption{
		ScenarioID:       spec.ScenarioID,
		Title:            spec.Title,
		ShortDescription: spec.ShortDescription,
		Rationale:        spec.Rationale,
		Inputs:           append([]string(nil), spec.Inputs...),
		Methodology:      append([]string(nil), spec.Methodology...),
		Deliverables:     append([]string(nil), spec.Deliverables...),
		Score:            score,
	}
}

type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskBalanced     RiskProfile = "balanced"
	RiskAggressive   RiskProfile = "aggressive"
)

// Profile carries the caller's eligibility constraints and preferences.
type Profile struct {
	Jurisdiction       string      `json:"jurisdiction,omitempty"`
	ExcludedTags       []string    `json:"excluded_tags,omitempty"`
	AccreditedInvestor bool        `json:"accredited_investor"`
	RegulatoryFlags    []string    `json:"regulatory_flags,omitempty"`
	RiskProfile        RiskProfile `json:"risk_profile,omitempty"`
	Temperature        *float64    `json:"temperature,omitempty"`
}

func (p Profile) Validate() error {
	switch RiskProfile(strings.ToLower(strings.TrimSpace(string(p.RiskProfile)))) {
	case "", RiskConservative, RiskBalanced, RiskAggressive:
	default:
		return errors.New("risk_profile must be conservative, balanced or aggressive")
	}
	return nil
}

// Risk returns the normalized risk preference.
func (p Profile) Risk() RiskProfile {
	return RiskProfile(strings.ToLower(strings.TrimSpace(string(p.RiskProfile))))
}
