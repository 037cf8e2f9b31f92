package ranking

import (
	"strings"

	"github.com/animus-labs/animus-scenarios/internal/domain"
)

// Eligible reports whether spec may be offered to the profile. A nil profile
// passes every entry.
func Eligible(spec domain.ScenarioSpec, profile *domain.Profile) bool {
	if profile == nil {
		return true
	}
	if jurisdiction := normalize(profile.Jurisdiction); jurisdiction != "" {
		if containsFold(spec.RestrictedRegions, jurisdiction) {
			return false
		}
	}
	for _, tag := range profile.ExcludedTags {
		tag = normalize(tag)
		if tag == "" {
			continue
		}
		if containsFold(spec.Tags, tag) || containsFold(spec.EligibilityTags, tag) {
			return false
		}
	}
	if spec.RequiresAccreditation && !profile.AccreditedInvestor {
		return false
	}
	for _, flag := range profile.RegulatoryFlags {
		flag = normalize(flag)
		if flag != "" && containsFold(spec.EligibilityTags, flag) {
			return false
		}
	}
	return true
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if normalize(value) == target {
			return true
		}
	}
	return false
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
