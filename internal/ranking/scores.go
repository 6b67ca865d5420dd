package ranking

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/requirements"
)

// Component weights for the overall fit score. Stable configuration, never
// re-derived per call.
const (
	weightSkill     = 0.35
	weightLocation  = 0.20
	weightRole      = 0.15
	weightSeniority = 0.15
	weightFreshness = 0.15
)

// Freshness tiers: a signal at most 30 days old is fully fresh, anything
// past 180 days (or never enriched) bottoms out at 0.1, linear in between.
const (
	freshFloorDays = 30
	staleCeilDays  = 180
	freshnessFloor = 0.1
)

var (
	skillPatternMu    sync.RWMutex
	skillPatternCache = map[string]*regexp.Regexp{}
)

func isWordChar(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// skillPattern compiles a case-insensitive whole-word matcher for one skill.
// Word boundaries are only anchored on sides that end in a word character,
// so skills like "c++" or ".net" still match ("\b" beside punctuation would
// invert the boundary semantics).
func skillPattern(skill string) *regexp.Regexp {
	key := strings.ToLower(strings.TrimSpace(skill))

	skillPatternMu.RLock()
	re, ok := skillPatternCache[key]
	skillPatternMu.RUnlock()
	if ok {
		return re
	}

	pattern := regexp.QuoteMeta(key)
	if len(key) > 0 && isWordChar(key[0]) {
		pattern = `\b` + pattern
	}
	if len(key) > 0 && isWordChar(key[len(key)-1]) {
		pattern += `\b`
	}
	re = regexp.MustCompile(`(?i)` + pattern)

	skillPatternMu.Lock()
	skillPatternCache[key] = re
	skillPatternMu.Unlock()
	return re
}

// skillScoreFromSnapshot matches topSkills against the normalized snapshot
// skill list. Whole-word matching means "Java" never matches "JavaScript".
func skillScoreFromSnapshot(topSkills, skillsNormalized []string) float64 {
	if len(topSkills) == 0 {
		return 0
	}
	matched := 0
	for _, skill := range topSkills {
		if strings.TrimSpace(skill) == "" {
			continue
		}
		re := skillPattern(skill)
		for _, have := range skillsNormalized {
			if re.MatchString(have) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(topSkills))
}

// skillScoreFromText matches topSkills against the candidate's free-text bag.
func skillScoreFromText(topSkills []string, text string) float64 {
	if len(topSkills) == 0 {
		return 0
	}
	matched := 0
	for _, skill := range topSkills {
		if strings.TrimSpace(skill) == "" {
			continue
		}
		if skillPattern(skill).MatchString(text) {
			matched++
		}
	}
	return float64(matched) / float64(len(topSkills))
}

// seniorityScore maps ladder distance to a score: exact band 1, adjacent
// band 0.5, two or more steps 0. A job with no seniority requirement is
// neutral; a candidate with no parseable band against a set requirement
// scores 0.
func seniorityScore(required *model.Seniority, candidateBand string) float64 {
	if required == nil {
		return 0.5
	}
	band, ok := requirements.ParseSeniority(candidateBand)
	if !ok {
		return 0
	}
	switch requirements.LadderDistance(*required, band) {
	case 0:
		return 1
	case 1:
		return 0.5
	default:
		return 0
	}
}

// locationScore scores candidate location text against the job's parsed
// location and reports how the match was made. City-scoped targets demand
// the same canonical city (aliases count); country-only targets accept any
// city in that country. Placeholder or boilerplate candidate locations never
// match.
func locationScore(target requirements.Location, candidateLocation string) (float64, model.LocationMatchType) {
	if target.Empty() {
		return 1, model.LocationMatchNone
	}
	if requirements.IsPlaceholderLocation(candidateLocation) {
		return 0, model.LocationMatchNone
	}
	cand := requirements.ParseLocation(candidateLocation)

	if target.CityScoped() {
		if cand.CityKey == target.CityKey && cand.CityKey != "" {
			if sameCity(cand.City, target.City) {
				return 1, model.LocationMatchCityExact
			}
			return 1, model.LocationMatchCityAlias
		}
		return 0, model.LocationMatchNone
	}

	// Country-only target.
	if cand.Country == target.Country && target.Country != "" {
		return 1, model.LocationMatchCountryOnly
	}
	return 0, model.LocationMatchNone
}

func sameCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// freshnessScore uses the freshest of the snapshot's computedAt and the
// candidate's lastEnrichedAt. Never-enriched candidates sit at the floor.
func freshnessScore(now time.Time, snapshot *model.Snapshot, lastEnrichedAt *time.Time) float64 {
	var freshest *time.Time
	if snapshot != nil && !snapshot.ComputedAt.IsZero() {
		t := snapshot.ComputedAt
		freshest = &t
	}
	if lastEnrichedAt != nil && (freshest == nil || lastEnrichedAt.After(*freshest)) {
		freshest = lastEnrichedAt
	}
	if freshest == nil {
		return freshnessFloor
	}

	ageDays := now.Sub(*freshest).Hours() / 24
	switch {
	case ageDays <= freshFloorDays:
		return 1.0
	case ageDays > staleCeilDays:
		return freshnessFloor
	default:
		return 1.0 - (1.0-freshnessFloor)*(ageDays-freshFloorDays)/(staleCeilDays-freshFloorDays)
	}
}

// roleScore measures role-family fit. A snapshot role type equal to the
// required family is a full match; otherwise keyword hits in the free text
// count, two or more saturating the score.
func roleScore(reqs model.JobRequirements, snapshot *model.Snapshot, text string) float64 {
	if reqs.RoleFamily == nil || *reqs.RoleFamily == "" {
		return 0.5
	}
	family := *reqs.RoleFamily
	if snapshot != nil && strings.EqualFold(snapshot.RoleType, family) {
		return 1
	}
	hits := 0
	for _, kw := range requirements.RoleFamilyKeywords(family) {
		if skillPattern(kw).MatchString(text) {
			hits++
		}
	}
	score := float64(hits) / 2
	if score > 1 {
		return 1
	}
	return score
}
