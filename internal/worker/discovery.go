package worker

import (
	"context"
	"log/slog"

	"talentgraph.app/sourcer/internal/model"
)

// StubDiscovery is a no-op discovery provider for testing and for
// deployments without a search backend. It logs the budgeted target and
// yields nothing, so the pass runs on the known pool alone and the shortfall
// surfaces in diagnostics.
type StubDiscovery struct{}

// NewStubDiscovery creates a new stub discovery provider.
func NewStubDiscovery() *StubDiscovery {
	return &StubDiscovery{}
}

// Discover logs the request and returns no candidates.
func (d *StubDiscovery) Discover(ctx context.Context, tenantID string, reqs model.JobRequirements, target int) ([]model.CandidateForRanking, error) {
	family := ""
	if reqs.RoleFamily != nil {
		family = *reqs.RoleFamily
	}
	slog.InfoContext(ctx, "stub discovery: no search backend configured",
		"tenant_id", tenantID,
		"role_family", family,
		"target", target)
	return nil, nil
}
