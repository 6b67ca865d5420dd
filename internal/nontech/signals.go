package nontech

import (
	"time"

	"talentgraph.app/sourcer/internal/model"
)

// neverEnrichedAgeDays stands in for a missing timestamp so the freshness
// gate always fails for candidates with no enrichment history.
const neverEnrichedAgeDays = 9999

// DeriveSignals builds validation signals from what the snapshot already
// carries. The enrichment service does not yet export first-class
// corroboration counts, so each populated snapshot facet (role, seniority,
// location, skills) counts as one corroborating source.
func DeriveSignals(snapshot *model.Snapshot, lastEnrichedAt *time.Time, now time.Time) model.NonTechSignals {
	signals := model.NonTechSignals{
		SourceAgeDays:       neverEnrichedAgeDays,
		SeniorityConfidence: 0.2,
	}

	var freshest time.Time
	if lastEnrichedAt != nil {
		freshest = *lastEnrichedAt
	}
	if snapshot != nil && snapshot.ComputedAt.After(freshest) {
		freshest = snapshot.ComputedAt
	}
	if !freshest.IsZero() {
		age := now.Sub(freshest).Hours() / 24
		if age < 0 {
			age = 0
		}
		signals.SourceAgeDays = age
		signals.SERP.RecencyScore = clamp01(1 - age/365)
	}

	if snapshot == nil {
		return signals
	}

	if snapshot.RoleType != "" {
		signals.CorroboratingSources++
	}
	if snapshot.SeniorityBand != "" {
		signals.CorroboratingSources++
		signals.SeniorityConfidence = 0.9
	}
	if snapshot.Location != "" {
		signals.CorroboratingSources++
	}
	if len(snapshot.SkillsNormalized) > 0 {
		signals.CorroboratingSources++
	}

	return signals
}
