// Package pool decides how much fresh discovery a sourcing pass may spend
// and assembles the final candidate pool from known plus discovered
// candidates.
package pool

import (
	"strconv"

	"talentgraph.app/sourcer/internal/model"
)

// Operating modes for a discovery pass.
const (
	ModeNone       = "none"       // pool already at or above target
	ModeAggressive = "aggressive" // weak pool: discovery capped by jobMaxEnrich
	ModeDecent     = "decent"     // healthy pool: full deficit, uncapped
)

// Budget is the bounded discovery plan for one sourcing pass.
type Budget struct {
	Mode            string
	DiscoveryTarget int
}

// Config are the per-tenant limits driving budget decisions.
type Config struct {
	TargetCount   int
	MinGoodEnough int
	JobMaxEnrich  int
}

// Plan computes the discovery budget. A pool at or above target spends
// nothing. A weak pool (too few enrichment-completed candidates) is capped at
// jobMaxEnrich even when the deficit is larger, so a low-quality pool cannot
// trigger runaway enrichment cost. A decent pool gets topped off with the
// full deficit, uncapped.
func Plan(poolSize, enrichedCount int, cfg Config) Budget {
	deficit := cfg.TargetCount - poolSize
	if deficit <= 0 {
		return Budget{Mode: ModeNone}
	}

	if enrichedCount < cfg.MinGoodEnough {
		target := deficit
		if target > cfg.JobMaxEnrich {
			target = cfg.JobMaxEnrich
		}
		return Budget{Mode: ModeAggressive, DiscoveryTarget: target}
	}

	return Budget{Mode: ModeDecent, DiscoveryTarget: deficit}
}

// Assemble applies a discovery yield to a budget and produces the pool
// counters surfaced in diagnostics. The shortfall rate is the fraction of the
// planned discovery that never materialized, the primary quality-gate signal.
func Assemble(poolSize, enrichedCount, actualYield int, cfg Config) model.PoolCounters {
	budget := Plan(poolSize, enrichedCount, cfg)

	discovered := actualYield
	if discovered > budget.DiscoveryTarget {
		discovered = budget.DiscoveryTarget
	}
	if discovered < 0 {
		discovered = 0
	}

	assembled := poolSize + discovered
	if assembled > cfg.TargetCount {
		assembled = cfg.TargetCount
	}

	shortfall := 0.0
	if budget.DiscoveryTarget > 0 {
		shortfall = float64(budget.DiscoveryTarget-discovered) / float64(budget.DiscoveryTarget)
	}

	return model.PoolCounters{
		KnownPoolSize:   poolSize,
		EnrichedCount:   enrichedCount,
		Mode:            budget.Mode,
		DiscoveryTarget: budget.DiscoveryTarget,
		DiscoveredCount: discovered,
		AssembledCount:  assembled,
		ShortfallRate:   shortfall,
	}
}

// GateConfig are the tenant thresholds for the post-assembly quality gate.
type GateConfig struct {
	QualityMinAvgFit float64 // minimum acceptable average fit score
	QualityThreshold float64 // maximum acceptable discovery shortfall rate
}

// EvaluateGate flags a pass whose assembled pool looks weak: average fit
// under the floor or discovery shortfall over the threshold. The gate never
// blocks the response; it is diagnostic only.
func EvaluateGate(scored []model.ScoredCandidate, counters model.PoolCounters, cfg GateConfig) model.QualityGate {
	gate := model.QualityGate{}

	if len(scored) > 0 {
		sum := 0.0
		for _, c := range scored {
			sum += c.FitScore
		}
		gate.AvgFit = sum / float64(len(scored))
	}

	if len(scored) > 0 && gate.AvgFit < cfg.QualityMinAvgFit {
		gate.Triggered = true
		gate.Reasons = append(gate.Reasons, "average fit "+formatRate(gate.AvgFit)+" below minimum "+formatRate(cfg.QualityMinAvgFit))
	}
	if counters.ShortfallRate > cfg.QualityThreshold {
		gate.Triggered = true
		gate.Reasons = append(gate.Reasons, "discovery shortfall "+formatRate(counters.ShortfallRate)+" above threshold "+formatRate(cfg.QualityThreshold))
	}
	return gate
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
