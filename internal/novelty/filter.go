// Package novelty suppresses candidates who were already surfaced for
// similar roles in the same city recently, so relaxed-location ranking does
// not resurface the same people on every sourcing pass.
package novelty

import (
	"context"
	"fmt"
	"time"

	"talentgraph.app/sourcer/internal/model"
	"talentgraph.app/sourcer/internal/requirements"
)

// CompletedRequestLister reads a tenant's completed sourcing requests within
// a trailing window.
type CompletedRequestLister interface {
	ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error)
}

type Filter struct {
	requests CompletedRequestLister
}

func NewFilter(requests CompletedRequestLister) *Filter {
	return &Filter{requests: requests}
}

// Exclusions returns the candidate ids already surfaced within windowDays
// for the same role family and normalized city as the given requirements.
// Historical requests are re-derived through the same requirements extractor,
// so both sides of the comparison canonicalize the same way.
func (f *Filter) Exclusions(ctx context.Context, tenantID string, reqs model.JobRequirements, windowDays int, now time.Time) (map[string]bool, model.NoveltyOutcome, error) {
	outcome := model.NoveltyOutcome{WindowDays: windowDays}
	if windowDays <= 0 {
		return nil, outcome, nil
	}

	family, cityKey := signature(reqs)
	if family == "" && cityKey == "" {
		return nil, outcome, nil
	}

	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	history, err := f.requests.ListCompletedSince(ctx, tenantID, since)
	if err != nil {
		return nil, outcome, fmt.Errorf("list completed requests: %w", err)
	}

	excluded := map[string]bool{}
	for _, past := range history {
		pastReqs := requirements.FromJobContext(past.JobContext)
		pastFamily, pastCity := signature(pastReqs)
		if pastFamily != family || pastCity != cityKey {
			continue
		}
		outcome.MatchedRequests++
		if past.Result == nil {
			continue
		}
		for _, c := range past.Result.Candidates {
			excluded[c.CandidateID] = true
		}
	}
	outcome.ExcludedIDs = len(excluded)

	if len(excluded) == 0 {
		return nil, outcome, nil
	}
	return excluded, outcome, nil
}

// signature canonicalizes the role family and city a request targets.
func signature(reqs model.JobRequirements) (family, cityKey string) {
	if reqs.RoleFamily != nil {
		family = *reqs.RoleFamily
	}
	if reqs.Location != nil {
		cityKey = requirements.ParseLocation(*reqs.Location).CityKey
	}
	return family, cityKey
}
