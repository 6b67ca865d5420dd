package model

import "time"

type EnrichmentStatus string

const (
	EnrichmentStatusNone      EnrichmentStatus = "none"
	EnrichmentStatusPending   EnrichmentStatus = "pending"
	EnrichmentStatusCompleted EnrichmentStatus = "completed"
	EnrichmentStatusFailed    EnrichmentStatus = "failed"
)

// CandidateForRanking is the identity-independent view the ranking engine
// consumes: free-text hints plus an optional enrichment snapshot. When a
// non-stale snapshot is present it is authoritative over the free text.
type CandidateForRanking struct {
	ID               string
	Headline         string
	Title            string
	Snippet          string
	Location         string
	EnrichmentStatus EnrichmentStatus
	LastEnrichedAt   *time.Time
	Snapshot         *Snapshot
}

// Snapshot is a cached, versioned, per-candidate-per-track computed profile
// produced by the external enrichment step.
type Snapshot struct {
	CandidateID      string     `json:"candidateId"`
	Track            string     `json:"track"`
	SkillsNormalized []string   `json:"skillsNormalized"`
	RoleType         string     `json:"roleType"`
	SeniorityBand    string     `json:"seniorityBand"`
	Location         string     `json:"location"`
	ComputedAt       time.Time  `json:"computedAt"`
	StaleAfter       *time.Time `json:"staleAfter,omitempty"`
}

// Stale reports whether the snapshot has passed its expiry at the given time.
func (s *Snapshot) Stale(now time.Time) bool {
	if s == nil {
		return true
	}
	return s.StaleAfter != nil && now.After(*s.StaleAfter)
}

type SkillScoreMethod string

const (
	SkillScoreMethodSnapshot     SkillScoreMethod = "snapshot"
	SkillScoreMethodTextFallback SkillScoreMethod = "text_fallback"
)

type MatchTier string

const (
	MatchTierStrictLocation   MatchTier = "strict_location"
	MatchTierExpandedLocation MatchTier = "expanded_location"
)

type LocationMatchType string

const (
	LocationMatchCityExact   LocationMatchType = "city_exact"
	LocationMatchCityAlias   LocationMatchType = "city_alias"
	LocationMatchCountryOnly LocationMatchType = "country_only"
	LocationMatchNone        LocationMatchType = "none"
)

type FitBreakdown struct {
	SkillScore             float64          `json:"skillScore"`
	SkillScoreMethod       SkillScoreMethod `json:"skillScoreMethod"`
	RoleScore              float64          `json:"roleScore"`
	SeniorityScore         float64          `json:"seniorityScore"`
	ActivityFreshnessScore float64          `json:"activityFreshnessScore"`
	LocationScore          float64          `json:"locationScore"`
}

// ScoredCandidate is one candidate's result from a ranking pass. It is never
// persisted independent of a sourcing request.
type ScoredCandidate struct {
	CandidateID       string             `json:"candidateId"`
	FitScore          float64            `json:"fitScore"`
	FitBreakdown      FitBreakdown       `json:"fitBreakdown"`
	MatchTier         *MatchTier         `json:"matchTier,omitempty"`
	LocationMatchType *LocationMatchType `json:"locationMatchType,omitempty"`
	NonTechScore      *NonTechScore      `json:"nonTechScore,omitempty"`
}
