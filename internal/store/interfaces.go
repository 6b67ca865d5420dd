package store

import (
	"context"
	"errors"
	"time"

	"talentgraph.app/sourcer/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
// Callers racing on the idempotency key catch this and re-read the winner.
var ErrDuplicate = errors.New("duplicate")

// SourcingRequestStore defines the contract for sourcing request data access
type SourcingRequestStore interface {
	Create(ctx context.Context, req *model.SourcingRequest) error
	GetByID(ctx context.Context, id int64) (*model.SourcingRequest, error)
	GetByJobContext(ctx context.Context, tenantID, externalJobID, jobContextHash string) (*model.SourcingRequest, error)
	// ClaimQueued transitions queued -> running and bumps the attempt
	// counter. Returns false with the current row when the request was not
	// claimable (already running or finished).
	ClaimQueued(ctx context.Context, id int64) (bool, *model.SourcingRequest, error)
	MarkComplete(ctx context.Context, id int64, result *model.RankingResult, diagnostics model.Diagnostics, queriesExecuted int, qualityGateTriggered bool) error
	MarkFailed(ctx context.Context, id int64, errMsg string, diagnostics model.Diagnostics) error
	MarkCallbackFailed(ctx context.Context, id int64, callbackErr string) error
	// ResetForRetry clears a failed/callback_failed request back to queued,
	// wiping completion state so the worker reprocesses from scratch.
	ResetForRetry(ctx context.Context, id int64) error
	SetQueueMessageID(ctx context.Context, id int64, messageID string) error
	ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]model.SourcingRequest, error)
}

// CandidateStore defines the contract for candidate pool data access
type CandidateStore interface {
	ListForTenant(ctx context.Context, tenantID string, limit int) ([]model.CandidateForRanking, error)
	CountEnriched(ctx context.Context, tenantID string) (int, error)
	UpsertDiscovered(ctx context.Context, tenantID string, candidates []model.CandidateForRanking) (int, error)
	// WriteRankingFields persists the denormalized last-ranked fit data on
	// the candidate rows.
	WriteRankingFields(ctx context.Context, tenantID string, requestID int64, scored []model.ScoredCandidate) error
}

// SnapshotStore defines the contract for per-candidate, per-track
// intelligence snapshots
type SnapshotStore interface {
	// ListByCandidates returns snapshots for the given candidates on one
	// track, keyed by candidate id; absent candidates are simply missing.
	ListByCandidates(ctx context.Context, candidateIDs []string, track string) (map[string]*model.Snapshot, error)
}

// TenantSettingsStore defines the contract for per-tenant sourcing overrides
type TenantSettingsStore interface {
	Get(ctx context.Context, tenantID string) (*model.TenantSettings, error)
}
