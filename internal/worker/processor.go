package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"talentgraph.app/sourcer/common/logger"
	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/nontech"
	"talentgraph.app/sourcer/internal/novelty"
	"talentgraph.app/sourcer/internal/pool"
	"talentgraph.app/sourcer/internal/queue"
	"talentgraph.app/sourcer/internal/ranking"
	"talentgraph.app/sourcer/internal/requirements"
	"talentgraph.app/sourcer/internal/store"
	"talentgraph.app/sourcer/internal/track"
)

// freshAgeDays is the snapshot age under which a candidate counts as fresh
// in the result's freshness stats.
const freshAgeDays = 30

// Processor runs one full sourcing pass for a claimed request: pool
// assembly, discovery, ranking, gating, persistence and callback.
type Processor struct {
	txRunner  TxRunner
	requests  store.SourcingRequestStore
	settings  SettingsProvider
	discovery DiscoveryProvider
	deliverer CallbackDeliverer

	now func() time.Time
}

func NewProcessor(txRunner TxRunner, requests store.SourcingRequestStore, settings SettingsProvider, discovery DiscoveryProvider, deliverer CallbackDeliverer) *Processor {
	return &Processor{
		txRunner:  txRunner,
		requests:  requests,
		settings:  settings,
		discovery: discovery,
		deliverer: deliverer,
		now:       time.Now,
	}
}

// passOutcome is what one successful pipeline run produces.
type passOutcome struct {
	result          *model.RankingResult
	diagnostics     model.Diagnostics
	queriesExecuted int
	gateTriggered   bool
	enrichedCount   int
}

// Process claims the request, runs the pipeline inside a single transaction,
// then delivers the callback after the transaction commits. A pipeline error
// is committed as status=failed (retryable via re-POST); only transaction
// errors propagate so the message is redelivered.
func (p *Processor) Process(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RequestID:     &msg.RequestID,
		TenantID:      &msg.TenantID,
		ExternalJobID: &msg.ExternalJobID,
		MessageID:     &msg.ID,
		Component:     "sourcer.worker.processor",
	})

	var (
		req     *model.SourcingRequest
		outcome *passOutcome
		procErr error
	)

	txErr := p.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		claimed, current, err := sp.SourcingRequests().ClaimQueued(ctx, msg.RequestID)
		if err != nil {
			return fmt.Errorf("claiming request: %w", err)
		}
		if !claimed {
			status := "missing"
			if current != nil {
				status = string(current.Status)
			}
			slog.InfoContext(ctx, "request not claimable, skipping", "status", status)
			return nil
		}
		req = current

		outcome, procErr = p.runPipeline(ctx, sp, current)
		if procErr != nil {
			if markErr := sp.SourcingRequests().MarkFailed(ctx, current.ID, procErr.Error(), current.Diagnostics); markErr != nil {
				return fmt.Errorf("marking request failed: %w", markErr)
			}
			return nil
		}

		if err := sp.SourcingRequests().MarkComplete(ctx, current.ID, outcome.result, outcome.diagnostics, outcome.queriesExecuted, outcome.gateTriggered); err != nil {
			return fmt.Errorf("marking request complete: %w", err)
		}
		if len(outcome.result.Candidates) > 0 {
			if err := sp.Candidates().WriteRankingFields(ctx, current.TenantID, current.ID, outcome.result.Candidates); err != nil {
				return fmt.Errorf("writing ranking fields: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return fmt.Errorf("transaction failed: %w", txErr)
	}
	if req == nil {
		// Not claimable - ACK and move on
		return nil
	}

	p.deliverCallback(ctx, req, outcome, procErr)
	return nil
}

func (p *Processor) runPipeline(ctx context.Context, sp StoreProvider, req *model.SourcingRequest) (*passOutcome, error) {
	now := p.now().UTC()

	settings, err := p.settings.Get(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("loading tenant settings: %w", err)
	}

	reqs := requirements.FromJobContext(req.JobContext)
	decision := p.trackDecision(req, reqs, settings)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Track: logger.Ptr(string(decision.Track))})

	known, err := sp.Candidates().ListForTenant(ctx, req.TenantID, settings.TargetCount)
	if err != nil {
		return nil, fmt.Errorf("listing candidate pool: %w", err)
	}
	enriched, err := sp.Candidates().CountEnriched(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("counting enriched candidates: %w", err)
	}

	budgetCfg := pool.Config{
		TargetCount:   settings.TargetCount,
		MinGoodEnough: settings.MinGoodEnough,
		JobMaxEnrich:  settings.JobMaxEnrich,
	}
	budget := pool.Plan(len(known), enriched, budgetCfg)

	queriesExecuted := 0
	var discovered []model.CandidateForRanking
	if budget.DiscoveryTarget > 0 {
		discovered, err = p.discovery.Discover(ctx, req.TenantID, reqs, budget.DiscoveryTarget)
		if err != nil {
			return nil, fmt.Errorf("discovery: %w", err)
		}
		queriesExecuted = 1
		if len(discovered) > budget.DiscoveryTarget {
			discovered = discovered[:budget.DiscoveryTarget]
		}
		if len(discovered) > 0 {
			if _, err := sp.Candidates().UpsertDiscovered(ctx, req.TenantID, discovered); err != nil {
				return nil, fmt.Errorf("upserting discovered candidates: %w", err)
			}
		}
	}
	counters := pool.Assemble(len(known), enriched, len(discovered), budgetCfg)

	candidates := mergeCandidates(known, discovered)
	snapshots, err := p.attachSnapshots(ctx, sp, candidates, string(decision.Track))
	if err != nil {
		return nil, err
	}

	scored := ranking.Rank(candidates, reqs, now, settings.RankEpsilon)
	if len(scored) > counters.AssembledCount {
		scored = scored[:counters.AssembledCount]
	}

	scored = applyTierFloors(scored, settings, &counters)

	excluded, noveltyOut, err := novelty.NewFilter(sp.SourcingRequests()).Exclusions(ctx, req.TenantID, reqs, settings.NoveltyWindowDays, now)
	if err != nil {
		return nil, fmt.Errorf("novelty lookup: %w", err)
	}
	scored, counters.NoveltySuppressed = dropExposed(scored, excluded)

	if decision.Track == model.TrackNonTech {
		attachNonTechScores(scored, candidates, snapshots, now)
	}

	best, broader := countTiers(scored)
	result := &model.RankingResult{
		Candidates:        scored,
		BestMatchCount:    best,
		BroaderPoolCount:  broader,
		SnapshotFreshness: freshnessStats(candidates, now),
	}

	gate := pool.EvaluateGate(scored, counters, pool.GateConfig{
		QualityMinAvgFit: settings.QualityMinAvgFit,
		QualityThreshold: settings.QualityThreshold,
	})

	slog.InfoContext(ctx, "sourcing pass complete",
		"candidates", len(scored),
		"best_matches", best,
		"broader_pool", broader,
		"mode", counters.Mode,
		"discovered", counters.DiscoveredCount,
		"novelty_suppressed", counters.NoveltySuppressed,
		"gate_triggered", gate.Triggered,
	)

	return &passOutcome{
		result: result,
		diagnostics: model.Diagnostics{
			TrackDecision: &decision,
			Pool:          &counters,
			QualityGate:   &gate,
			Novelty:       &noveltyOut,
		},
		queriesExecuted: queriesExecuted,
		gateTriggered:   gate.Triggered,
		enrichedCount:   enriched,
	}, nil
}

// trackDecision returns what was persisted at creation time. Requests created
// before decisions were persisted get one resolved now as a fallback.
func (p *Processor) trackDecision(req *model.SourcingRequest, reqs model.JobRequirements, settings model.TenantSettings) model.TrackDecision {
	if req.Diagnostics.TrackDecision != nil {
		return *req.Diagnostics.TrackDecision
	}
	return track.NewResolver().Resolve(reqs, nil, settings.DefaultTrack)
}

func (p *Processor) attachSnapshots(ctx context.Context, sp StoreProvider, candidates []model.CandidateForRanking, trk string) (map[string]*model.Snapshot, error) {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	snapshots, err := sp.Snapshots().ListByCandidates(ctx, ids, trk)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	for i := range candidates {
		if s, ok := snapshots[candidates[i].ID]; ok {
			candidates[i].Snapshot = s
		}
	}
	return snapshots, nil
}

func (p *Processor) deliverCallback(ctx context.Context, req *model.SourcingRequest, outcome *passOutcome, procErr error) {
	payload := model.CallbackPayload{
		RequestID:     req.ID,
		ExternalJobID: req.ExternalJobID,
	}
	if procErr != nil {
		payload.Status = string(model.RequestStatusFailed)
		payload.Error = procErr.Error()
	} else {
		payload.Status = string(model.RequestStatusComplete)
		payload.CandidateCount = len(outcome.result.Candidates)
		payload.EnrichedCount = outcome.enrichedCount
	}

	if err := p.deliverer.Deliver(ctx, req.CallbackURL, payload); err != nil {
		slog.ErrorContext(ctx, "callback delivery exhausted", "error", err)
		if procErr == nil {
			// Results exist but could not be delivered: callback_failed is
			// kept distinct from failed so operators can tell the two apart.
			if markErr := p.requests.MarkCallbackFailed(ctx, req.ID, err.Error()); markErr != nil {
				slog.ErrorContext(ctx, "failed to mark request callback_failed", "error", markErr)
			}
		}
	}
}

// mergeCandidates concatenates known and discovered candidates, dropping
// discovered ids already present in the known pool.
func mergeCandidates(known, discovered []model.CandidateForRanking) []model.CandidateForRanking {
	merged := make([]model.CandidateForRanking, 0, len(known)+len(discovered))
	seen := make(map[string]bool, len(known))
	for _, c := range known {
		merged = append(merged, c)
		seen[c.ID] = true
	}
	for _, c := range discovered {
		if seen[c.ID] {
			continue
		}
		merged = append(merged, c)
		seen[c.ID] = true
	}
	return merged
}

// applyTierFloors reassigns match tiers around the tenant's fit floors:
// strict-location candidates under the demotion floor move to the broader
// pool, broader-pool candidates at or above the rescue floor move up. Runs
// before novelty filtering so a demoted candidate becomes subject to it and
// a rescued one escapes it.
func applyTierFloors(scored []model.ScoredCandidate, settings model.TenantSettings, counters *model.PoolCounters) []model.ScoredCandidate {
	for i := range scored {
		if scored[i].MatchTier == nil {
			continue
		}
		switch *scored[i].MatchTier {
		case model.MatchTierStrictLocation:
			if scored[i].FitScore < settings.DemotionFitFloor {
				tier := model.MatchTierExpandedLocation
				scored[i].MatchTier = &tier
				counters.DemotedCount++
			}
		case model.MatchTierExpandedLocation:
			if scored[i].FitScore >= settings.RescueFitFloor {
				tier := model.MatchTierStrictLocation
				scored[i].MatchTier = &tier
				counters.RescuedCount++
			}
		}
	}
	return scored
}

// dropExposed removes recently-exposed candidates from the broader pool.
// Best matches (strict location) are always kept.
func dropExposed(scored []model.ScoredCandidate, excluded map[string]bool) ([]model.ScoredCandidate, int) {
	if len(excluded) == 0 {
		return scored, 0
	}
	kept := scored[:0]
	suppressed := 0
	for _, c := range scored {
		broader := c.MatchTier == nil || *c.MatchTier == model.MatchTierExpandedLocation
		if broader && excluded[c.CandidateID] {
			suppressed++
			continue
		}
		kept = append(kept, c)
	}
	return kept, suppressed
}

func attachNonTechScores(scored []model.ScoredCandidate, candidates []model.CandidateForRanking, snapshots map[string]*model.Snapshot, now time.Time) {
	lastEnriched := make(map[string]*time.Time, len(candidates))
	for _, c := range candidates {
		lastEnriched[c.ID] = c.LastEnrichedAt
	}
	for i := range scored {
		signals := nontech.DeriveSignals(snapshots[scored[i].CandidateID], lastEnriched[scored[i].CandidateID], now)
		score := nontech.Score(signals, nontech.DefaultThresholds)
		scored[i].NonTechScore = &score
	}
}

func countTiers(scored []model.ScoredCandidate) (best, broader int) {
	for _, c := range scored {
		if c.MatchTier != nil && *c.MatchTier == model.MatchTierStrictLocation {
			best++
			continue
		}
		broader++
	}
	return best, broader
}

// freshnessStats summarizes snapshot age across the ranked pool. A candidate
// with no snapshot and no enrichment timestamp counts as stale and is
// excluded from the average.
func freshnessStats(candidates []model.CandidateForRanking, now time.Time) model.FreshnessStats {
	stats := model.FreshnessStats{}
	sum, counted := 0.0, 0
	for _, c := range candidates {
		var freshest time.Time
		if c.LastEnrichedAt != nil {
			freshest = *c.LastEnrichedAt
		}
		if c.Snapshot != nil && c.Snapshot.ComputedAt.After(freshest) {
			freshest = c.Snapshot.ComputedAt
		}
		if freshest.IsZero() {
			stats.StaleCount++
			continue
		}
		age := now.Sub(freshest).Hours() / 24
		if age < 0 {
			age = 0
		}
		if age <= freshAgeDays {
			stats.FreshCount++
		} else {
			stats.StaleCount++
		}
		sum += age
		counted++
	}
	if counted > 0 {
		stats.AvgAgeDays = sum / float64(counted)
	}
	return stats
}
