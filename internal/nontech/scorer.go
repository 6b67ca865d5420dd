// Package nontech scores candidates on the non_tech track, where skill
// snapshots are thin and professional corroboration carries the signal
// instead. Like the fit ranker it is pure and side-effect free.
package nontech

import (
	"fmt"
	"math"

	"talentgraph.app/sourcer/internal/model"
)

// Scoring weights. Corroboration saturates at maxCorroborationSources.
const (
	weightCorroboration = 0.35
	weightSeniority     = 0.20
	weightFreshness     = 0.25
	weightNoContradict  = 0.20

	maxCorroborationSources = 5

	serpRecencyWeight = 0.07
	serpLocaleBonus   = 0.03
)

// Thresholds configure the validation gates.
type Thresholds struct {
	MinCorroboration int
	MaxSourceAgeDays float64
	SeniorityMinConf float64
	ScoreFloor       float64
}

// DefaultThresholds are used when a tenant has no overrides.
var DefaultThresholds = Thresholds{
	MinCorroboration: 2,
	MaxSourceAgeDays: 365,
	SeniorityMinConf: 0.6,
	ScoreFloor:       0.4,
}

// Score computes the overall validation score and evaluates the gates.
// Gates run in strict order and short-circuit: the first hard fail decides
// the tier and only that gate's reason is reported. Callers needing the full
// picture read GateResults, which is always fully populated.
func Score(signals model.NonTechSignals, thresholds Thresholds) model.NonTechScore {
	overall := overallScore(signals, thresholds)
	gates := evaluateGates(signals, thresholds, overall)

	tier, reason := 1, ""
	switch {
	case !gates.Corroboration:
		tier = 3
		reason = fmt.Sprintf("corroboration below minimum (%d < %d)", signals.CorroboratingSources, thresholds.MinCorroboration)
	case !gates.Contradiction:
		tier = 3
		reason = fmt.Sprintf("%d contradicting sources found", signals.ContradictionCount)
	case !gates.Freshness:
		tier = 2
		reason = fmt.Sprintf("sources stale (%.0f days > %.0f)", signals.SourceAgeDays, thresholds.MaxSourceAgeDays)
	case !gates.Seniority:
		tier = 2
		reason = fmt.Sprintf("seniority confidence %.2f below %.2f", signals.SeniorityConfidence, thresholds.SeniorityMinConf)
	case !gates.ScoreFloor:
		tier = 2
		reason = fmt.Sprintf("overall score %.2f below floor %.2f", overall, thresholds.ScoreFloor)
	}

	var reasons []string
	if reason != "" {
		reasons = []string{reason}
	}

	return model.NonTechScore{
		Tier:         tier,
		OverallScore: overall,
		TopReasons:   reasons,
		GateResults:  gates,
	}
}

func evaluateGates(signals model.NonTechSignals, thresholds Thresholds, overall float64) model.NonTechGateResults {
	return model.NonTechGateResults{
		Corroboration: signals.CorroboratingSources >= thresholds.MinCorroboration,
		Contradiction: signals.ContradictionCount == 0,
		Freshness:     signals.SourceAgeDays <= thresholds.MaxSourceAgeDays,
		Seniority:     signals.SeniorityConfidence >= thresholds.SeniorityMinConf,
		ScoreFloor:    overall >= thresholds.ScoreFloor,
	}
}

func overallScore(signals model.NonTechSignals, thresholds Thresholds) float64 {
	corr := float64(signals.CorroboratingSources)
	if corr > maxCorroborationSources {
		corr = maxCorroborationSources
	}
	score := weightCorroboration * corr / maxCorroborationSources

	score += weightSeniority * clamp01(signals.SeniorityConfidence)

	if thresholds.MaxSourceAgeDays > 0 {
		decay := 1 - signals.SourceAgeDays/thresholds.MaxSourceAgeDays
		score += weightFreshness * clamp01(decay)
	}

	if signals.ContradictionCount == 0 {
		score += weightNoContradict
	}

	score += serpRecencyWeight * clamp01(signals.SERP.RecencyScore)
	if signals.SERP.LocaleConsistent != nil {
		if *signals.SERP.LocaleConsistent {
			score += serpLocaleBonus
		} else {
			score -= serpLocaleBonus
		}
	}

	return math.Round(clamp01(score)*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
