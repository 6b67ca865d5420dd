// Package ranking implements the deterministic fit scorer. Rank is a pure
// function of its inputs: no I/O, no clock reads (the caller passes now), so
// every worker can run it without coordination.
package ranking

import (
	"sort"
	"strings"
	"time"

	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/requirements"
)

// Rank scores every candidate against the job requirements and returns them
// sorted best-first. Ties within epsilon are broken by evidence richness and
// then candidate id, so the output is stable across runs and independent of
// input order.
func Rank(candidates []model.CandidateForRanking, reqs model.JobRequirements, now time.Time, epsilon float64) []model.ScoredCandidate {
	target := requirements.Location{}
	if reqs.Location != nil {
		target = requirements.ParseLocation(*reqs.Location)
	}

	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, scoreCandidate(c, reqs, target, now))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return CompareFitWithConfidence(scored[i], scored[j], epsilon) < 0
	})
	return scored
}

// scoreCandidate isolates per-candidate failures: a snapshot with an
// unexpected shape that panics during scoring downgrades that one candidate
// to text-only scoring instead of aborting the whole pass.
func scoreCandidate(c model.CandidateForRanking, reqs model.JobRequirements, target requirements.Location, now time.Time) (out model.ScoredCandidate) {
	defer func() {
		if r := recover(); r != nil {
			stripped := c
			stripped.Snapshot = nil
			out = scoreWith(stripped, reqs, target, now)
		}
	}()
	return scoreWith(c, reqs, target, now)
}

func scoreWith(c model.CandidateForRanking, reqs model.JobRequirements, target requirements.Location, now time.Time) model.ScoredCandidate {
	text := textBag(c)

	snapshot := c.Snapshot
	if snapshot.Stale(now) {
		snapshot = nil
	}

	var breakdown model.FitBreakdown
	if snapshot != nil {
		breakdown.SkillScore = skillScoreFromSnapshot(reqs.TopSkills, snapshot.SkillsNormalized)
		breakdown.SkillScoreMethod = model.SkillScoreMethodSnapshot
	} else {
		breakdown.SkillScore = skillScoreFromText(reqs.TopSkills, text)
		breakdown.SkillScoreMethod = model.SkillScoreMethodTextFallback
	}

	candidateBand := ""
	if snapshot != nil {
		candidateBand = snapshot.SeniorityBand
	}
	if candidateBand == "" {
		candidateBand = text
	}
	breakdown.SeniorityScore = seniorityScore(reqs.SeniorityLevel, candidateBand)

	candidateLocation := c.Location
	if snapshot != nil && snapshot.Location != "" {
		candidateLocation = snapshot.Location
	}
	locScore, matchType := locationScore(target, candidateLocation)
	breakdown.LocationScore = locScore

	breakdown.ActivityFreshnessScore = freshnessScore(now, snapshot, c.LastEnrichedAt)
	breakdown.RoleScore = roleScore(reqs, snapshot, text)

	fit := weightSkill*breakdown.SkillScore +
		weightLocation*breakdown.LocationScore +
		weightRole*breakdown.RoleScore +
		weightSeniority*breakdown.SeniorityScore +
		weightFreshness*breakdown.ActivityFreshnessScore

	tier := model.MatchTierExpandedLocation
	if locScore > 0 {
		tier = model.MatchTierStrictLocation
	}

	return model.ScoredCandidate{
		CandidateID:       c.ID,
		FitScore:          fit,
		FitBreakdown:      breakdown,
		MatchTier:         &tier,
		LocationMatchType: &matchType,
	}
}

func textBag(c model.CandidateForRanking) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{c.Headline, c.Title, c.Snippet} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// CompareFitWithConfidence orders two scored candidates; negative means a
// ranks first. Outside epsilon the higher fit score wins outright. Within
// epsilon, a snapshot-backed skill score outranks a text fallback, and an
// exact tie falls through to ascending candidate id. Epsilon zero degenerates
// to pure fit-score ordering.
func CompareFitWithConfidence(a, b model.ScoredCandidate, epsilon float64) int {
	delta := a.FitScore - b.FitScore
	if delta > epsilon {
		return -1
	}
	if delta < -epsilon {
		return 1
	}

	am := a.FitBreakdown.SkillScoreMethod == model.SkillScoreMethodSnapshot
	bm := b.FitBreakdown.SkillScoreMethod == model.SkillScoreMethodSnapshot
	if am != bm {
		if am {
			return -1
		}
		return 1
	}

	if delta > 0 {
		return -1
	}
	if delta < 0 {
		return 1
	}
	return strings.Compare(a.CandidateID, b.CandidateID)
}
