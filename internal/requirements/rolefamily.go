package requirements

import "strings"

// roleFamilies maps a role family to the keywords that signal it in a job
// title or candidate headline. Order within a family is irrelevant; matching
// is whole-token and case-insensitive.
var roleFamilies = map[string][]string{
	"engineering": {"engineer", "developer", "programmer", "swe", "sde", "devops", "sre"},
	"data":        {"data scientist", "data engineer", "data analyst", "machine learning", "ml engineer", "analytics"},
	"design":      {"designer", "ux", "ui", "product design"},
	"product":     {"product manager", "product owner", "program manager"},
	"marketing":   {"marketing", "seo", "content", "growth", "brand"},
	"sales":       {"sales", "account executive", "business development", "account manager"},
	"hr":          {"recruiter", "talent", "human resources", "people operations", "sourcer"},
	"finance":     {"accountant", "finance", "auditor", "controller", "bookkeeper"},
	"operations":  {"operations", "supply chain", "logistics", "procurement"},
	"support":     {"customer support", "customer success", "help desk"},
	"legal":       {"lawyer", "attorney", "paralegal", "counsel", "compliance"},
}

// techRoleFamilies are the families the track classifier treats as tech.
var techRoleFamilies = map[string]bool{
	"engineering": true,
	"data":        true,
}

// InferRoleFamily derives a role family from free text, preferring the family
// with the most keyword hits. Returns "" when nothing matches.
func InferRoleFamily(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)

	best := ""
	bestHits := 0
	for _, family := range roleFamilyNames {
		hits := 0
		for _, kw := range roleFamilies[family] {
			if containsTokenPhrase(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = family
			bestHits = hits
		}
	}
	return best
}

// RoleFamilyKeywords returns the keyword list for a family, or nil for an
// unknown family.
func RoleFamilyKeywords(family string) []string {
	return roleFamilies[family]
}

// IsTechRoleFamily reports whether the family belongs to the tech track.
func IsTechRoleFamily(family string) bool {
	return techRoleFamilies[family]
}

// roleFamilyNames gives deterministic iteration order over roleFamilies so
// ties resolve the same way on every run.
var roleFamilyNames = []string{
	"engineering",
	"data",
	"design",
	"product",
	"marketing",
	"sales",
	"hr",
	"finance",
	"operations",
	"support",
	"legal",
}
